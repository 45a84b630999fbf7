// Package hasher computes content digests for files. The default
// implementation streams file contents through XXH64 and renders the sum as
// a lowercase hex string; an optional badger-backed cache skips rehashing
// files whose size and mtime are unchanged.
package hasher

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Hasher produces a fixed-form content digest for a file's bytes.
type Hasher interface {
	// Digest returns the lowercase hex digest of the file at path.
	Digest(path string) (string, error)
}

// XXHash computes streaming XXH64 digests.
type XXHash struct{}

// NewXXHash returns an XXH64-based Hasher.
func NewXXHash() *XXHash {
	return &XXHash{}
}

// Digest hashes the file at path. Any I/O failure is returned to the caller;
// a file that vanishes between scan and hash is not recovered here.
func (h *XXHash) Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return fmt.Sprintf("%016x", d.Sum64()), nil
}
