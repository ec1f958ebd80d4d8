// Package manifest persists the per-platform record of linked assets.
//
// Each platform keeps one JSON document at
// <platform dir>/link-assets-manifest.json:
//
//	{
//	  "schemaVersion": 2,
//	  "assets": [
//	    {"path": "assets/fonts/Foo-Bold.ttf", "hash": "…"}
//	  ]
//	}
//
// Paths are stored relative to the project root with forward slashes. A
// missing file reads as an empty manifest at the current schema version. A
// file at an older version is migrated on read; the upgraded form is only
// persisted by the next successful Write.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/assetlink/pkg/assetlink/types"
)

// FileName is the manifest file name inside each platform directory.
const FileName = "link-assets-manifest.json"

// Document is the on-disk manifest shape.
type Document struct {
	SchemaVersion int           `json:"schemaVersion"`
	Assets        []types.Asset `json:"assets"`
}

// Store reads and writes one platform's manifest.
type Store struct {
	path     string
	root     string
	platform types.Platform
}

// NewStore creates a Store for the manifest inside platformDir. root is the
// project root stored paths are relative to.
func NewStore(platform types.Platform, platformDir, root string) *Store {
	return &Store{
		path:     filepath.Join(platformDir, FileName),
		root:     root,
		platform: platform,
	}
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return s.path
}

// Read loads the manifest, migrating it to the current schema version.
// Returned asset paths are absolute.
func (s *Store) Read() ([]types.Asset, error) {
	doc, err := s.ReadDocument()
	if err != nil {
		return nil, err
	}

	assets := make([]types.Asset, 0, len(doc.Assets))
	for _, a := range doc.Assets {
		a.Path = s.absolute(a.Path)
		assets = append(assets, a)
	}
	return assets, nil
}

// ReadDocument loads the manifest with migrations applied but paths left in
// stored form.
func (s *Store) ReadDocument() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Document{SchemaVersion: CurrentSchemaVersion(), Assets: []types.Asset{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	if err := validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", s.path, ErrInvalidManifest, err)
	}
	if doc.SchemaVersion > CurrentSchemaVersion() {
		return nil, fmt.Errorf("%s: %w: %d", s.path, ErrUnsupportedVersion, doc.SchemaVersion)
	}

	doc.Assets, doc.SchemaVersion = Migrate(doc.Assets, doc.SchemaVersion, s.platform)
	if doc.Assets == nil {
		doc.Assets = []types.Asset{}
	}
	return &doc, nil
}

// Write replaces the manifest with assets at the current schema version.
// Relink flags are not persisted. The file is written atomically, and not
// at all when its content would not change.
func (s *Store) Write(assets []types.Asset) error {
	doc := Document{
		SchemaVersion: CurrentSchemaVersion(),
		Assets:        make([]types.Asset, 0, len(assets)),
	}
	for _, a := range assets {
		doc.Assets = append(doc.Assets, types.Asset{Path: s.relative(a.Path), Hash: a.Hash})
	}
	sort.Slice(doc.Assets, func(i, j int) bool {
		return doc.Assets[i].Path < doc.Assets[j].Path
	})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	data = append(data, '\n')

	if existing, err := os.ReadFile(s.path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	return writeAtomic(s.path, data)
}

// relative converts an absolute asset path to stored form.
func (s *Store) relative(p string) string {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		rel = p
	}
	return filepath.ToSlash(rel)
}

// absolute resolves a stored path against the project root.
func (s *Store) absolute(p string) string {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return filepath.Clean(filepath.FromSlash(p))
	}
	return filepath.Join(s.root, filepath.FromSlash(p))
}

// writeAtomic writes data to a temp file beside path and renames it over
// path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting manifest permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
