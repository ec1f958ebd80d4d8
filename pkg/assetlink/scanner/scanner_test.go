package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/jamesainslie/assetlink/pkg/assetlink/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative path -> content) under dir.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func names(t *testing.T, res *Result) []string {
	t.Helper()
	var out []string
	for _, a := range res.Assets {
		out = append(out, a.Name())
	}
	sort.Strings(out)
	return out
}

func TestScan_RecursiveDirectories(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"assets/fonts/Foo-Bold.ttf":   "font",
		"assets/images/a/b/c/pic.png": "png",
		"assets/images/logo.png":      "logo",
	})

	res, err := New(Options{Roots: []string{"assets"}, BaseDir: base}).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Foo-Bold.ttf", "logo.png", "pic.png"}, names(t, res))
	assert.Equal(t, 3, res.FilesScanned)
	for _, a := range res.Assets {
		assert.True(t, filepath.IsAbs(a.Path))
		assert.Len(t, a.Hash, 40)
	}
}

func TestScan_FileRoot(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{"one.mp3": "sound"})

	res, err := New(Options{Roots: []string{"one.mp3"}, BaseDir: base}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Assets, 1)
	assert.Equal(t, filepath.Join(base, "one.mp3"), res.Assets[0].Path)
}

func TestScan_DuplicateBasenameKeepsFirstRoot(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"first/icon.png":  "first",
		"second/icon.png": "second",
	})
	h := hash.NewFakeHasher()
	h.SetHash(filepath.Join(base, "first", "icon.png"), "h1")
	h.SetHash(filepath.Join(base, "second", "icon.png"), "h2")

	for _, roots := range [][]string{{"first", "second"}, {"second", "first"}} {
		res, err := New(Options{Roots: roots, BaseDir: base, Hasher: h}).Scan(context.Background())
		require.NoError(t, err)
		require.Len(t, res.Assets, 1)

		want := filepath.Join(base, roots[0], "icon.png")
		assert.Equal(t, want, res.Assets[0].Path)
		require.Len(t, res.Duplicates, 1)
		assert.Equal(t, want, res.Duplicates[0].Kept)
	}
}

func TestScan_DuplicateWithinRootIsLexical(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"assets/b/x.png": "b",
		"assets/a/x.png": "a",
	})

	res, err := New(Options{Roots: []string{"assets"}, BaseDir: base}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Assets, 1)
	assert.Equal(t, filepath.Join(base, "assets", "a", "x.png"), res.Assets[0].Path)
}

func TestScan_IgnoresSpecialFiles(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"assets/.DS_Store": "junk",
		"assets/Thumbs.db": "junk",
		"assets/a.png":     "png",
	})

	res, err := New(Options{Roots: []string{"assets"}, BaseDir: base}).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, names(t, res))
	assert.Equal(t, 3, res.FilesScanned)
}

func TestScan_Exclude(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"assets/a.png":        "png",
		"assets/src/a.psd":    "psd",
		"assets/drafts/b.png": "draft",
	})

	res, err := New(Options{
		Roots:   []string{"assets"},
		BaseDir: base,
		Exclude: []string{"**/*.psd", "assets/drafts"},
	}).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, names(t, res))
}

func TestScan_InvalidExclude(t *testing.T) {
	_, err := New(Options{BaseDir: t.TempDir(), Exclude: []string{"[unclosed"}}).Scan(context.Background())
	assert.Error(t, err)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := New(Options{Roots: []string{"nope"}, BaseDir: t.TempDir()}).Scan(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScan_Cancelled(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{"assets/a.png": "png"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{Roots: []string{"assets"}, BaseDir: base}).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
