// Package scanner expands declared asset roots into a flat, deduplicated
// list of hashed assets.
//
// Roots are files or directories. Directories are walked recursively with
// fastwalk. When two discovered files share a basename, only the first one
// encountered in root declaration order is kept; within one directory root,
// files are visited in lexical path order so the survivor is stable.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/assetlink/pkg/assetlink/hash"
	"github.com/jamesainslie/assetlink/pkg/assetlink/logging"
	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// ignoredNames are never linked, wherever they appear.
var ignoredNames = map[string]bool{
	".DS_Store": true,
	"Thumbs.db": true,
}

// Options configures a scan.
type Options struct {
	// Roots are the declared asset roots in declaration order. Relative
	// roots are resolved against BaseDir.
	Roots []string

	// BaseDir is the directory relative roots and exclude patterns are
	// resolved against.
	BaseDir string

	// Exclude holds doublestar patterns matched against the slash-separated
	// path relative to BaseDir.
	Exclude []string

	// Hasher computes content digests. Defaults to SHA-1.
	Hasher hash.Hasher

	// Logger receives warnings about dropped duplicates. Defaults to Nop.
	Logger *logging.Logger
}

// Duplicate records a file dropped because an earlier root already
// provided the same basename.
type Duplicate struct {
	Kept    string `json:"kept" yaml:"kept"`
	Dropped string `json:"dropped" yaml:"dropped"`
}

// Result is the outcome of a scan.
type Result struct {
	// Assets holds one hashed entry per surviving basename.
	Assets []types.Asset

	// Duplicates lists every file dropped by basename deduplication.
	Duplicates []Duplicate

	// FilesScanned counts regular files discovered before deduplication.
	FilesScanned int
}

// Scanner discovers assets under declared roots.
type Scanner struct {
	opts Options
}

// New creates a Scanner, filling in defaults.
func New(opts Options) *Scanner {
	if opts.Hasher == nil {
		opts.Hasher = hash.NewSHA1Hasher()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Scanner{opts: opts}
}

// Scan walks every root and returns the deduplicated, hashed asset list.
// A root that does not exist is an error.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	for _, p := range s.opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	var discovered []string
	for _, root := range s.opts.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := s.expand(ctx, s.resolve(root))
		if err != nil {
			return nil, err
		}
		discovered = append(discovered, files...)
	}

	result := &Result{FilesScanned: len(discovered)}
	seen := make(map[string]string, len(discovered))
	for _, p := range discovered {
		name := filepath.Base(p)
		if kept, ok := seen[name]; ok {
			result.Duplicates = append(result.Duplicates, Duplicate{Kept: kept, Dropped: p})
			s.opts.Logger.Warn("duplicate asset basename dropped", "kept", kept, "dropped", p)
			continue
		}
		seen[name] = p
		if ignoredNames[name] {
			continue
		}

		digest, err := s.opts.Hasher.HashFile(p)
		if err != nil {
			return nil, fmt.Errorf("hashing asset: %w", err)
		}
		result.Assets = append(result.Assets, types.Asset{Path: p, Hash: digest})
	}

	s.opts.Logger.Debug("scan complete", "files", result.FilesScanned, "assets", len(result.Assets))
	return result, nil
}

// resolve makes root absolute against BaseDir.
func (s *Scanner) resolve(root string) string {
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(s.opts.BaseDir, root)
}

// expand returns the regular files under root in lexical order.
func (s *Scanner) expand(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset root %s: %w", root, err)
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() || s.excluded(root) {
			return nil, nil
		}
		return []string{root}, nil
	}

	var (
		mu    sync.Mutex
		files []string
	)
	conf := fastwalk.Config{Follow: true}
	walkErr := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			return err
		}
		if s.excluded(p) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		regular := d.Type().IsRegular()
		if d.Type()&fs.ModeSymlink != 0 {
			st, statErr := os.Stat(p)
			regular = statErr == nil && st.Mode().IsRegular()
		}
		if !regular {
			return nil
		}

		mu.Lock()
		files = append(files, p)
		mu.Unlock()
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	sort.Strings(files)
	return files, nil
}

// excluded reports whether p matches any exclude pattern.
func (s *Scanner) excluded(p string) bool {
	if len(s.opts.Exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.opts.BaseDir, p)
	if err != nil {
		rel = p
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, path.Base(rel)); ok {
			return true
		}
	}
	return false
}
