// Package scanner enumerates the regular files under a root directory.
// It walks the tree in parallel with fastwalk, applies exclusion patterns,
// and returns a snapshot sorted by relative path so that downstream
// consumers see a deterministic order regardless of walk scheduling.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// FileEntry is one live file in the snapshot.
type FileEntry struct {
	// Path is the file's path relative to the scan root, using the
	// platform separator.
	Path string

	// Size is the file size in bytes at scan time.
	Size int64
}

// Options configures the scanner.
type Options struct {
	// Root is the directory to enumerate.
	Root string

	// Exclude contains patterns for paths to skip. A pattern matches a
	// path prefix, the path's basename (glob), or the full path (glob).
	Exclude []string
}

// Scanner enumerates files under a root.
type Scanner struct {
	opts Options

	results   []FileEntry
	resultsMu sync.Mutex

	root string
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks the root and returns the file snapshot sorted by path.
// A filesystem error during the walk aborts the scan; this is a single-shot
// integrity check, not a resilient service.
func (s *Scanner) Scan(ctx context.Context) ([]FileEntry, error) {
	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root
	s.results = make([]FileEntry, 0)

	conf := fastwalk.Config{
		Follow: false, // Don't follow symlinks.
	}

	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		if s.isExcluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		return s.addFile(path, d)
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(s.results, func(i, j int) bool {
		return s.results[i].Path < s.results[j].Path
	})
	return s.results, nil
}

// addFile stats a regular file and records it in the snapshot.
func (s *Scanner) addFile(path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return fmt.Errorf("relativize %s: %w", path, err)
	}

	s.resultsMu.Lock()
	s.results = append(s.results, FileEntry{Path: rel, Size: info.Size()})
	s.resultsMu.Unlock()
	return nil
}

// validateRoot resolves the root path to absolute and verifies it is a
// directory.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", root, os.ErrInvalid)
	}

	return root, nil
}

// isExcluded checks if a path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string) bool {
	for _, pattern := range s.opts.Exclude {
		if matchesExclusionPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchesExclusionPattern checks if a path matches a single exclusion pattern.
func matchesExclusionPattern(path, pattern string) bool {
	if pattern == "" {
		return false
	}

	if path == pattern {
		return true
	}
	if strings.HasPrefix(path, pattern+string(filepath.Separator)) {
		return true
	}

	// Try glob matching against basename.
	if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
		return true
	}

	// Try matching against full path.
	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	return false
}
