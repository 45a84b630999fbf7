package hasher

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// ErrCacheMiss is returned when a path has no usable cached digest.
var ErrCacheMiss = errors.New("digest cache miss")

// cachedDigest is the stored record for one path. A record is valid only
// while the file's size and mtime both match.
type cachedDigest struct {
	Size   int64
	Mtime  int64 // UnixNano
	Digest string
}

// encode serializes the record using gob.
func (c *cachedDigest) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode deserializes bytes into the record using gob.
func (c *cachedDigest) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(c)
}

// Cache is a Hasher that consults a persistent digest store before hashing.
// Entries are keyed by absolute path and invalidated when the file's size or
// mtime changes.
type Cache struct {
	db    *badger.DB
	inner Hasher
}

// OpenCache opens or creates a digest cache at dir, wrapping inner for
// cache misses.
func OpenCache(dir string, inner Hasher) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable badger logging.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open digest cache: %w", err)
	}

	return &Cache{db: db, inner: inner}, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Digest returns the cached digest for path when the file's size and mtime
// match the stored record, otherwise hashes the file and refreshes the
// record.
func (c *Cache) Digest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	digest, err := c.lookup(path, info.Size(), info.ModTime().UnixNano())
	if err == nil {
		return digest, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return "", err
	}

	digest, err = c.inner.Digest(path)
	if err != nil {
		return "", err
	}

	if err := c.store(path, &cachedDigest{
		Size:   info.Size(),
		Mtime:  info.ModTime().UnixNano(),
		Digest: digest,
	}); err != nil {
		return "", fmt.Errorf("update digest cache: %w", err)
	}

	return digest, nil
}

// lookup fetches a record and validates it against the live size and mtime.
func (c *Cache) lookup(path string, size, mtime int64) (string, error) {
	var rec cachedDigest

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCacheMiss
		}
		if err != nil {
			return err
		}
		return item.Value(rec.decode)
	})
	if err != nil {
		return "", err
	}

	if rec.Size != size || rec.Mtime != mtime {
		return "", ErrCacheMiss
	}
	return rec.Digest, nil
}

// store writes a record for path.
func (c *Cache) store(path string, rec *cachedDigest) error {
	value, err := rec.encode()
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), value)
	})
}
