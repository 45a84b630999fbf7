package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestPutGet(t *testing.T) {
	t.Parallel()

	m := New()
	require.Equal(t, 0, m.Len())

	m.Put(&Entry{Path: "b.txt", Size: 2, Digest: "bb"})
	m.Put(&Entry{Path: "a.txt", Size: 1, Digest: "aa"})

	require.Equal(t, 2, m.Len())
	assert.True(t, m.Has("a.txt"))
	assert.False(t, m.Has("c.txt"))
	assert.Nil(t, m.Get("c.txt"))
	assert.Equal(t, int64(2), m.Get("b.txt").Size)
}

func TestManifestInsertionOrderPreserved(t *testing.T) {
	t.Parallel()

	m := New()
	m.Put(&Entry{Path: "z.txt"})
	m.Put(&Entry{Path: "a.txt"})
	m.Put(&Entry{Path: "m.txt"})

	var got []string
	for _, e := range m.Entries() {
		got = append(got, e.Path)
	}
	assert.Equal(t, []string{"z.txt", "a.txt", "m.txt"}, got)

	// Replacing keeps the original position.
	m.Put(&Entry{Path: "a.txt", Size: 99})
	got = got[:0]
	for _, e := range m.Entries() {
		got = append(got, e.Path)
	}
	assert.Equal(t, []string{"z.txt", "a.txt", "m.txt"}, got)
}

func TestManifestPathsSorted(t *testing.T) {
	t.Parallel()

	m := New()
	m.Put(&Entry{Path: "z.txt"})
	m.Put(&Entry{Path: "a.txt"})

	assert.Equal(t, []string{"a.txt", "z.txt"}, m.Paths())
}

func TestManifestRemove(t *testing.T) {
	t.Parallel()

	m := New()
	m.Put(&Entry{Path: "a.txt"})
	m.Put(&Entry{Path: "b.txt"})

	m.Remove("a.txt")
	assert.False(t, m.Has("a.txt"))
	assert.Equal(t, 1, m.Len())
	require.Len(t, m.Entries(), 1)
	assert.Equal(t, "b.txt", m.Entries()[0].Path)

	// Removing an absent path is a no-op.
	m.Remove("a.txt")
	assert.Equal(t, 1, m.Len())
}

func TestEntryMarkAltered(t *testing.T) {
	t.Parallel()

	e := &Entry{Path: "f.txt", Size: 10, Digest: "aa", Status: StatusUnknown}
	e.MarkAltered(20, "bb")

	assert.Equal(t, StatusAltered, e.Status)
	assert.Equal(t, int64(20), e.Size)
	assert.Equal(t, "bb", e.Digest)
	assert.Equal(t, int64(10), e.PriorSize)
	assert.Equal(t, "aa", e.PriorDigest)
}

func TestEntryMarkRenamed(t *testing.T) {
	t.Parallel()

	e := &Entry{Path: "new.txt", Size: 10, Digest: "aa", Status: StatusIndexed}
	e.MarkRenamed("old.txt")

	assert.Equal(t, StatusRenamed, e.Status)
	assert.Equal(t, "old.txt", e.PriorPath)
	assert.Equal(t, "aa", e.Digest)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	cases := map[Status]string{
		StatusUnknown: "unknown",
		StatusChecked: "checked",
		StatusMissing: "missing",
		StatusAltered: "altered",
		StatusIndexed: "indexed",
		StatusRenamed: "renamed",
		StatusDeleted: "deleted",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
}

func TestCountByStatus(t *testing.T) {
	t.Parallel()

	m := New()
	m.Put(&Entry{Path: "a", Status: StatusChecked})
	m.Put(&Entry{Path: "b", Status: StatusChecked})
	m.Put(&Entry{Path: "c", Status: StatusIndexed})

	counts := m.CountByStatus()
	assert.Equal(t, 2, counts[StatusChecked])
	assert.Equal(t, 1, counts[StatusIndexed])
	assert.Equal(t, 0, counts[StatusMissing])
}
