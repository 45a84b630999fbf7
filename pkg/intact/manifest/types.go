// Package manifest provides the persisted table of tracked files and its
// text serialization. A Manifest maps relative paths to entries carrying the
// file's size, content digest, and a per-run lifecycle status.
package manifest

import "sort"

// Status is the lifecycle state of an entry within a single reconciliation run.
// It is recomputed every run and never persisted.
type Status int

const (
	// StatusUnknown is the state of every loaded entry before reconciliation.
	StatusUnknown Status = iota

	// StatusChecked means the entry was verified against the live file.
	StatusChecked

	// StatusMissing means the entry's path no longer exists on disk.
	StatusMissing

	// StatusAltered means the live file's content differs from the record.
	StatusAltered

	// StatusIndexed means the entry was created this run for a new file.
	StatusIndexed

	// StatusRenamed means the entry's content was previously tracked under
	// a different path.
	StatusRenamed

	// StatusDeleted is an intermediate tombstone used during rename
	// detection. Tombstones are purged before reconciliation returns.
	StatusDeleted
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusChecked:
		return "checked"
	case StatusMissing:
		return "missing"
	case StatusAltered:
		return "altered"
	case StatusIndexed:
		return "indexed"
	case StatusRenamed:
		return "renamed"
	case StatusDeleted:
		return "deleted"
	default:
		return "invalid"
	}
}

// Entry is one tracked file.
//
// PriorSize and PriorDigest are meaningful only when Status is StatusAltered;
// PriorPath only when Status is StatusRenamed. Use MarkAltered and MarkRenamed
// so status and prior fields always change together.
type Entry struct {
	Path   string
	Size   int64
	Digest string
	Status Status

	PriorSize   int64
	PriorDigest string
	PriorPath   string
}

// MarkAltered records a content change, stashing the previous size and
// digest and replacing them with the live values.
func (e *Entry) MarkAltered(liveSize int64, liveDigest string) {
	e.PriorSize = e.Size
	e.PriorDigest = e.Digest
	e.Size = liveSize
	e.Digest = liveDigest
	e.Status = StatusAltered
}

// MarkRenamed records that this entry's content was previously tracked at
// priorPath.
func (e *Entry) MarkRenamed(priorPath string) {
	e.PriorPath = priorPath
	e.Status = StatusRenamed
}

// Manifest is an insertion-ordered mapping from path to entry. Iteration
// order is file order for loaded entries followed by scan order for entries
// added during reconciliation; output is always sorted by path.
type Manifest struct {
	entries map[string]*Entry
	order   []string
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]*Entry)}
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Get returns the entry for path, or nil if absent.
func (m *Manifest) Get(path string) *Entry {
	return m.entries[path]
}

// Has reports whether an entry exists for path.
func (m *Manifest) Has(path string) bool {
	_, ok := m.entries[path]
	return ok
}

// Put inserts or replaces the entry for e.Path. New paths are appended to
// the iteration order; replaced paths keep their position.
func (m *Manifest) Put(e *Entry) {
	if _, ok := m.entries[e.Path]; !ok {
		m.order = append(m.order, e.Path)
	}
	m.entries[e.Path] = e
}

// Remove deletes the entry for path if present.
func (m *Manifest) Remove(path string) {
	if _, ok := m.entries[path]; !ok {
		return
	}
	delete(m.entries, path)
	for i, p := range m.order {
		if p == path {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Entries returns all entries in insertion order.
func (m *Manifest) Entries() []*Entry {
	out := make([]*Entry, 0, len(m.entries))
	for _, p := range m.order {
		out = append(out, m.entries[p])
	}
	return out
}

// Paths returns all paths sorted lexicographically.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// CountByStatus returns the number of entries per status.
func (m *Manifest) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts
}
