// Package apple links assets into an Xcode project.
//
// Asset files stay where they are. The linker manages file references in
// the project's "Resources" group and the first target's resources build
// phase, and for fonts the UIAppFonts array of the app's Info.plist.
package apple

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jamesainslie/assetlink/pkg/assetlink/logging"
	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// ErrProjectNotFound is returned when no Xcode project exists in the iOS
// directory.
var ErrProjectNotFound = errors.New("xcode project not found")

// ResourcesGroup is the project group asset references are added to.
const ResourcesGroup = "Resources"

// Options configures a Linker.
type Options struct {
	// Dir is the iOS directory containing the .xcodeproj.
	Dir string

	// Project overrides .xcodeproj discovery. Relative paths are resolved
	// against Dir.
	Project string

	// InfoPlist overrides Info.plist resolution. Relative paths are
	// resolved against Dir.
	InfoPlist string

	// Logger defaults to Nop.
	Logger *logging.Logger

	// Open opens the project store. Defaults to OpenProject.
	Open func(pbxprojPath string) (ProjectStore, error)
}

// Linker applies clean and copy operations to one Xcode project.
type Linker struct {
	opts Options
	log  *logging.Logger
}

// New creates a Linker.
func New(opts Options) *Linker {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Open == nil {
		opts.Open = func(p string) (ProjectStore, error) { return OpenProject(p) }
	}
	return &Linker{opts: opts, log: opts.Logger}
}

// FindProject returns the project.pbxproj path of the app project in dir.
// Pods.xcodeproj is never chosen.
func FindProject(dir string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "*.xcodeproj")
	if err != nil {
		return "", fmt.Errorf("searching xcode project: %w", err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if m == "Pods.xcodeproj" {
			continue
		}
		return filepath.Join(dir, m, "project.pbxproj"), nil
	}
	return "", fmt.Errorf("%w in %s", ErrProjectNotFound, dir)
}

func (l *Linker) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.opts.Dir, p)
}

func (l *Linker) pbxprojPath() (string, error) {
	if l.opts.Project == "" {
		return FindProject(l.opts.Dir)
	}
	p := l.resolve(l.opts.Project)
	if strings.HasSuffix(p, ".xcodeproj") {
		p = filepath.Join(p, "project.pbxproj")
	}
	return p, nil
}

func (l *Linker) open() (ProjectStore, error) {
	p, err := l.pbxprojPath()
	if err != nil {
		return nil, err
	}
	store, err := l.opts.Open(p)
	if err != nil {
		return nil, err
	}
	created, err := store.EnsureGroup(ResourcesGroup)
	if err != nil {
		return nil, err
	}
	if created {
		l.log.Warn("xcode project had no Resources group, created one", "project", p)
	}
	return store, nil
}

// InfoPlistPath resolves the app's Info.plist: the configured path, else
// the INFOPLIST_FILE build setting, else the first */Info.plist outside
// Pods and test targets.
func (l *Linker) InfoPlistPath(store ProjectStore) (string, error) {
	if l.opts.InfoPlist != "" {
		return l.resolve(l.opts.InfoPlist), nil
	}

	if setting := store.InfoPlistSetting(); setting != "" {
		for _, v := range []string{"$(SRCROOT)", "${SRCROOT}"} {
			setting = strings.ReplaceAll(setting, v, l.opts.Dir)
		}
		return l.resolve(setting), nil
	}

	matches, err := doublestar.Glob(os.DirFS(l.opts.Dir), "*/Info.plist")
	if err != nil {
		return "", fmt.Errorf("searching Info.plist: %w", err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		dir := filepath.Dir(filepath.FromSlash(m))
		if dir == "Pods" || strings.HasSuffix(dir, "Tests") {
			continue
		}
		return filepath.Join(l.opts.Dir, filepath.FromSlash(m)), nil
	}
	return "", fmt.Errorf("no Info.plist found in %s", l.opts.Dir)
}

// reference is the project-relative path of an asset's file reference.
func (l *Linker) reference(a types.Asset) string {
	rel, err := filepath.Rel(l.opts.Dir, a.Path)
	if err != nil {
		return filepath.ToSlash(a.Path)
	}
	return filepath.ToSlash(rel)
}

// Copy adds file references for assets and, for fonts, registers the newly
// added basenames in UIAppFonts. It returns the number of references added.
func (l *Linker) Copy(ctx context.Context, assets []types.Asset, opts types.AppleOptions) (int, error) {
	if len(assets) == 0 {
		return 0, nil
	}
	store, err := l.open()
	if err != nil {
		return 0, err
	}

	var added []string
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return len(added), err
		}
		ok, err := store.AddFile(ResourcesGroup, l.reference(a))
		if err != nil {
			return len(added), err
		}
		if !ok {
			l.log.Debug("file reference already present", "asset", a.Name())
			continue
		}
		added = append(added, a.Name())
		l.log.Debug("added file reference", "asset", a.Name())
	}

	if opts.IsFont && len(added) > 0 {
		if err := l.updateFonts(store, func(p *infoPlist) { p.addFonts(added) }); err != nil {
			return len(added), err
		}
	}
	return len(added), store.Save()
}

// Clean removes file references for assets and, for fonts, their
// basenames from UIAppFonts.
func (l *Linker) Clean(ctx context.Context, assets []types.Asset, opts types.AppleOptions) error {
	if len(assets) == 0 {
		return nil
	}
	store, err := l.open()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(assets))
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		removed, err := store.RemoveFile(ResourcesGroup, l.reference(a))
		if err != nil {
			return err
		}
		if removed {
			l.log.Debug("removed file reference", "asset", a.Name())
		}
		names = append(names, a.Name())
	}

	if opts.IsFont {
		if err := l.updateFonts(store, func(p *infoPlist) { p.removeFonts(names) }); err != nil {
			return err
		}
	}
	return store.Save()
}

func (l *Linker) updateFonts(store ProjectStore, edit func(*infoPlist)) error {
	path, err := l.InfoPlistPath(store)
	if err != nil {
		return err
	}
	p, err := loadInfoPlist(path)
	if err != nil {
		return err
	}
	edit(p)
	return p.save()
}
