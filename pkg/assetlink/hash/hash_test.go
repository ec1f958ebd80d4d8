package hash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA1Hasher_HashFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	got, err := NewSHA1Hasher().HashFile(p)
	require.NoError(t, err)
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", got)
}

func TestSHA1Hasher_EmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(p, nil, 0o644))

	got, err := NewSHA1Hasher().HashFile(p)
	require.NoError(t, err)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", got)
}

func TestSHA1Hasher_MissingFile(t *testing.T) {
	_, err := NewSHA1Hasher().HashFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFakeHasher(t *testing.T) {
	h := NewFakeHasher()
	h.SetHash("/a", "abc")

	got, err := h.HashFile("/a")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	got, err = h.HashFile("/b")
	require.NoError(t, err)
	assert.Equal(t, "fakehash", got)
}
