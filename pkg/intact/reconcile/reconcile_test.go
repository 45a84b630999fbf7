package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/intact/pkg/intact/hasher"
	"github.com/jamesainslie/intact/pkg/intact/manifest"
	"github.com/jamesainslie/intact/pkg/intact/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func snapshot(t *testing.T, root string) []scanner.FileEntry {
	t.Helper()
	live, err := scanner.New(scanner.Options{Root: root, Exclude: []string{".intact"}}).Scan(context.Background())
	require.NoError(t, err)
	return live
}

// reconcileDir runs a full reconciliation of root against m.
func reconcileDir(t *testing.T, root string, m *manifest.Manifest, mode Mode) {
	t.Helper()
	r := New(root, hasher.NewXXHash())
	require.NoError(t, r.Reconcile(m, snapshot(t, root), mode))
}

// indexDir builds a reconciled manifest for root from scratch.
func indexDir(t *testing.T, root string) *manifest.Manifest {
	t.Helper()
	m := manifest.New()
	reconcileDir(t, root, m, ModeFull)
	return m
}

func TestReconcileNewFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "content of a")
	writeFile(t, root, "sub/b.txt", "content of b, longer")

	m := indexDir(t, root)

	require.Equal(t, 2, m.Len())
	a := m.Get("a.txt")
	require.NotNil(t, a)
	assert.Equal(t, manifest.StatusIndexed, a.Status)
	assert.Equal(t, int64(len("content of a")), a.Size)
	assert.NotEmpty(t, a.Digest)

	b := m.Get(filepath.Join("sub", "b.txt"))
	require.NotNil(t, b)
	assert.Equal(t, manifest.StatusIndexed, b.Status)

	// Distinct content, distinct digests.
	assert.NotEqual(t, a.Digest, b.Digest)
}

func TestReconcileMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "keep.txt", "stays")
	writeFile(t, root, "gone.txt", "leaves")

	m := indexDir(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "gone.txt")))

	reconcileDir(t, root, m, ModeFull)

	assert.Equal(t, manifest.StatusMissing, m.Get("gone.txt").Status)
	assert.Equal(t, manifest.StatusChecked, m.Get("keep.txt").Status)
}

func TestReconcileRename(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "old.txt", "identical payload")

	m := indexDir(t, root)
	require.NoError(t, os.Rename(
		filepath.Join(root, "old.txt"),
		filepath.Join(root, "new.txt")))

	reconcileDir(t, root, m, ModeFull)

	// The move is attributed: one renamed entry, no trace of the old path.
	require.Equal(t, 1, m.Len())
	e := m.Get("new.txt")
	require.NotNil(t, e)
	assert.Equal(t, manifest.StatusRenamed, e.Status)
	assert.Equal(t, "old.txt", e.PriorPath)
	assert.False(t, m.Has("old.txt"))
}

func TestReconcileRenameRequiresIdenticalContent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "old.txt", "original payload")

	m := indexDir(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "old.txt")))
	// Same size as the original but different bytes: not a rename.
	writeFile(t, root, "new.txt", "DIFFERENT bytes!")

	reconcileDir(t, root, m, ModeFull)

	assert.Equal(t, manifest.StatusMissing, m.Get("old.txt").Status)
	assert.Equal(t, manifest.StatusIndexed, m.Get("new.txt").Status)
}

func TestReconcileRenameTieBreakIsScanOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "original.txt", "duplicated payload")

	m := indexDir(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "original.txt")))
	// Two byte-identical candidates; the snapshot is sorted by path, so
	// the first candidate in scan order wins the attribution.
	writeFile(t, root, "copy-a.txt", "duplicated payload")
	writeFile(t, root, "copy-b.txt", "duplicated payload")

	reconcileDir(t, root, m, ModeFull)

	assert.Equal(t, manifest.StatusRenamed, m.Get("copy-a.txt").Status)
	assert.Equal(t, "original.txt", m.Get("copy-a.txt").PriorPath)
	assert.Equal(t, manifest.StatusIndexed, m.Get("copy-b.txt").Status)
	assert.False(t, m.Has("original.txt"))
}

func TestReconcileNoTombstonesSurvive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "payload one")
	writeFile(t, root, "b.txt", "payload two!")

	m := indexDir(t, root)
	require.NoError(t, os.Rename(
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "a-moved.txt")))

	reconcileDir(t, root, m, ModeFull)

	for _, e := range m.Entries() {
		assert.NotEqual(t, manifest.StatusDeleted, e.Status, "path %s", e.Path)
		assert.NotEqual(t, manifest.StatusUnknown, e.Status, "path %s", e.Path)
	}
}

func TestReconcileAltered(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "f.txt", "before")

	m := indexDir(t, root)
	priorDigest := m.Get("f.txt").Digest
	writeFile(t, root, "f.txt", "after, and longer")

	reconcileDir(t, root, m, ModeFull)

	e := m.Get("f.txt")
	assert.Equal(t, manifest.StatusAltered, e.Status)
	assert.Equal(t, int64(len("after, and longer")), e.Size)
	assert.Equal(t, int64(len("before")), e.PriorSize)
	assert.Equal(t, priorDigest, e.PriorDigest)
	assert.NotEqual(t, priorDigest, e.Digest)
}

func TestFastModeBlindSpot(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (string, *manifest.Manifest) {
		root := t.TempDir()
		writeFile(t, root, "f.txt", "aaaa")
		m := indexDir(t, root)
		// Same size, different content.
		writeFile(t, root, "f.txt", "bbbb")
		return root, m
	}

	t.Run("fast mode misses the change", func(t *testing.T) {
		t.Parallel()
		root, m := setup(t)
		reconcileDir(t, root, m, ModeFast)
		assert.Equal(t, manifest.StatusChecked, m.Get("f.txt").Status)
	})

	t.Run("full mode catches the change", func(t *testing.T) {
		t.Parallel()
		root, m := setup(t)
		reconcileDir(t, root, m, ModeFull)
		assert.Equal(t, manifest.StatusAltered, m.Get("f.txt").Status)
	})
}

func TestFastModeSizeChangeRecordsDigest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "f.txt", "short")

	m := indexDir(t, root)
	priorDigest := m.Get("f.txt").Digest
	writeFile(t, root, "f.txt", "much longer content")

	reconcileDir(t, root, m, ModeFast)

	// The size decided the classification, but the digest is still
	// recomputed for the record.
	e := m.Get("f.txt")
	assert.Equal(t, manifest.StatusAltered, e.Status)
	assert.NotEqual(t, priorDigest, e.Digest)
	assert.Equal(t, priorDigest, e.PriorDigest)
}

func TestReconcileIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")
	writeFile(t, root, "sub dir/b c.txt", "beta with spaces in path")

	manifestPath := filepath.Join(root, ".intact")

	m := indexDir(t, root)
	require.NoError(t, manifest.Save(manifestPath, m))
	first, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	// Second run with no filesystem changes: everything checked, nothing
	// to persist, and a forced save is byte-identical.
	m2, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	reconcileDir(t, root, m2, ModeFull)

	counts := m2.CountByStatus()
	assert.Equal(t, 2, counts[manifest.StatusChecked])
	assert.Equal(t, 0, counts[manifest.StatusIndexed])
	assert.Equal(t, 0, counts[manifest.StatusMissing])
	assert.Equal(t, 0, counts[manifest.StatusAltered])
	assert.Equal(t, 0, counts[manifest.StatusRenamed])
	assert.False(t, manifest.ShouldPersist(m2))

	require.NoError(t, manifest.Save(manifestPath, m2))
	second, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "full", ModeFull.String())
	assert.Equal(t, "fast", ModeFast.String())
}
