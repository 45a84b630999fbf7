// Package content provides content-addressed grouping of manifest entries.
// Entries are keyed by (size, digest) so that neither a digest collision nor
// a size coincidence alone is treated as identity. The grouping backs both
// the name-blind find operation and the duplicate report.
package content

import "github.com/jamesainslie/intact/pkg/intact/manifest"

// Key is the composite content fingerprint of an entry.
type Key struct {
	Size   int64
	Digest string
}

// Group is one set of paths sharing identical content, in first-seen order.
type Group struct {
	Key   Key
	Paths []string
}

// GroupByContent partitions the manifest's entries by content key. Groups
// and their members preserve the manifest's iteration order.
func GroupByContent(m *manifest.Manifest) []Group {
	index := make(map[Key]int)
	var groups []Group

	for _, e := range m.Entries() {
		k := Key{Size: e.Size, Digest: e.Digest}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Paths = append(groups[i].Paths, e.Path)
	}

	return groups
}

// KeySet returns the set of content keys present in the manifest.
func KeySet(m *manifest.Manifest) map[Key]struct{} {
	set := make(map[Key]struct{}, m.Len())
	for _, e := range m.Entries() {
		set[Key{Size: e.Size, Digest: e.Digest}] = struct{}{}
	}
	return set
}

// Unindexed returns the paths of local entries whose content is not
// represented anywhere in the reference manifest, in local iteration order.
// The check is deliberately name-blind: it answers "does this content
// already exist somewhere", not "does this path already exist".
func Unindexed(reference, local *manifest.Manifest) []string {
	known := KeySet(reference)

	var paths []string
	for _, e := range local.Entries() {
		if _, ok := known[Key{Size: e.Size, Digest: e.Digest}]; !ok {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// DuplicateGroup is one set of entries with identical content where at
// least one copy is redundant.
type DuplicateGroup struct {
	Key Key

	// Original is the kept copy: the group's first member in manifest
	// iteration order.
	Original string

	// Redundant holds the remaining copies.
	Redundant []string
}

// Wasted returns the reclaimable bytes for this group.
func (g DuplicateGroup) Wasted() int64 {
	return int64(len(g.Redundant)) * g.Key.Size
}

// Duplicates returns every content group with more than one member, plus
// the total reclaimable bytes across all groups.
func Duplicates(m *manifest.Manifest) ([]DuplicateGroup, int64) {
	var dups []DuplicateGroup
	var wasted int64

	for _, g := range GroupByContent(m) {
		if len(g.Paths) < 2 {
			continue
		}
		d := DuplicateGroup{
			Key:       g.Key,
			Original:  g.Paths[0],
			Redundant: g.Paths[1:],
		}
		dups = append(dups, d)
		wasted += d.Wasted()
	}

	return dups, wasted
}
