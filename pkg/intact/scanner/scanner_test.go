package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scan(t *testing.T, opts Options) []FileEntry {
	t.Helper()
	files, err := New(opts).Scan(context.Background())
	require.NoError(t, err)
	return files
}

func TestScanCollectsRegularFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "aa")
	writeFile(t, root, "sub/b.txt", "bbbb")
	writeFile(t, root, "sub/deep/c.txt", "cccccc")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-dir"), 0o755))

	files := scan(t, Options{Root: root})

	require.Len(t, files, 3)
	assert.Equal(t, "a.txt", files[0].Path)
	assert.Equal(t, int64(2), files[0].Size)
	assert.Equal(t, filepath.Join("sub", "b.txt"), files[1].Path)
	assert.Equal(t, filepath.Join("sub", "deep", "c.txt"), files[2].Path)
}

func TestScanSortsByPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "zz.txt", "z")
	writeFile(t, root, "aa.txt", "a")
	writeFile(t, root, "mm/x.txt", "m")

	files := scan(t, Options{Root: root})

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"aa.txt", filepath.Join("mm", "x.txt"), "zz.txt"}, paths)
}

func TestScanDeterministic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt", "d/e.txt", "d/f.txt"} {
		writeFile(t, root, name, name)
	}

	first := scan(t, Options{Root: root})
	second := scan(t, Options{Root: root})
	assert.Equal(t, first, second)
}

func TestScanExcludesPatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "keep.txt", "k")
	writeFile(t, root, ".intact", "manifest")
	writeFile(t, root, "skipdir/inner.txt", "s")
	writeFile(t, root, "notes.tmp", "t")

	files := scan(t, Options{
		Root:    root,
		Exclude: []string{".intact", filepath.Join(root, "skipdir"), "*.tmp"},
	})

	require.Len(t, files, 1)
	assert.Equal(t, "keep.txt", files[0].Path)
}

func TestScanMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Root: filepath.Join(t.TempDir(), "nope")}).Scan(context.Background())
	require.Error(t, err)
}

func TestScanRootIsFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "f.txt", "x")

	_, err := New(Options{Root: filepath.Join(root, "f.txt")}).Scan(context.Background())
	require.ErrorIs(t, err, os.ErrInvalid)
}

func TestScanSkipsSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "real.txt", "payload")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files := scan(t, Options{Root: root})

	require.Len(t, files, 1)
	assert.Equal(t, "real.txt", files[0].Path)
}

func TestScanCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Root: root}).Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
