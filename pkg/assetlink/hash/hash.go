// Package hash computes content fingerprints for asset files.
//
// The fingerprint is a hex-encoded SHA-1 of the full file bytes. It is the
// content half of an asset's identity; the other half is its path.
package hash

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Hasher computes the content digest of a file.
type Hasher interface {
	HashFile(path string) (string, error)
}

// SHA1Hasher implements Hasher using SHA-1.
type SHA1Hasher struct{}

// NewSHA1Hasher creates a new SHA1Hasher.
func NewSHA1Hasher() *SHA1Hasher {
	return &SHA1Hasher{}
}

// HashFile returns the hex SHA-1 digest of the file at path.
func (h *SHA1Hasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sum := sha1.New() //nolint:gosec
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// FakeHasher returns preset digests. Used in tests.
type FakeHasher struct {
	hashes map[string]string
}

// NewFakeHasher creates an empty FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{hashes: make(map[string]string)}
}

// SetHash presets the digest returned for path.
func (h *FakeHasher) SetHash(path, digest string) {
	h.hashes[path] = digest
}

// HashFile returns the preset digest for path, or "fakehash".
func (h *FakeHasher) HashFile(path string) (string, error) {
	if d, ok := h.hashes[path]; ok {
		return d, nil
	}
	return "fakehash", nil
}
