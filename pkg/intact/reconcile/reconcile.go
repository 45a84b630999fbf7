// Package reconcile implements the reconciliation engine: it diffs a loaded
// manifest against a live directory snapshot and classifies every entry as
// checked, missing, altered, indexed, or renamed.
package reconcile

import (
	"path/filepath"

	"github.com/jamesainslie/intact/pkg/intact/hasher"
	"github.com/jamesainslie/intact/pkg/intact/logging"
	"github.com/jamesainslie/intact/pkg/intact/manifest"
	"github.com/jamesainslie/intact/pkg/intact/scanner"
)

// Mode selects the verification strategy for surviving entries.
type Mode int

const (
	// ModeFull compares size and content digest. A change in either
	// marks the entry altered.
	ModeFull Mode = iota

	// ModeFast compares size only. A content change that preserves file
	// size is invisible in this mode; it trades hashing cost for a
	// weaker guarantee.
	ModeFast
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	if m == ModeFast {
		return "fast"
	}
	return "full"
}

// Reconciler classifies manifest entries against a live snapshot. It owns
// no state across runs; each Reconcile call mutates the single manifest
// passed to it.
type Reconciler struct {
	root   string
	hasher hasher.Hasher
	log    *logging.Logger
}

// New creates a Reconciler for the given scan root. The hasher is consulted
// for new files and for content verification; its errors are fatal.
func New(root string, h hasher.Hasher) *Reconciler {
	return &Reconciler{
		root:   root,
		hasher: h,
		log:    logging.Get("reconcile"),
	}
}

// Reconcile runs the four classification passes over the manifest. Pass
// ordering matters: later passes only see entries the earlier passes left
// untouched. On return every entry has a terminal status and no tombstones
// survive.
func (r *Reconciler) Reconcile(m *manifest.Manifest, live []scanner.FileEntry, mode Mode) error {
	liveSizes := make(map[string]int64, len(live))
	for _, f := range live {
		liveSizes[f.Path] = f.Size
	}

	if err := r.indexNewFiles(m, live); err != nil {
		return err
	}
	r.markMissing(m, liveSizes)
	r.resolveRenames(m)
	if err := r.verify(m, liveSizes, mode); err != nil {
		return err
	}

	counts := m.CountByStatus()
	r.log.Info("reconcile complete",
		"mode", mode.String(),
		"checked", counts[manifest.StatusChecked],
		"indexed", counts[manifest.StatusIndexed],
		"missing", counts[manifest.StatusMissing],
		"altered", counts[manifest.StatusAltered],
		"renamed", counts[manifest.StatusRenamed])
	return nil
}

// indexNewFiles registers every live path absent from the manifest. Content
// is read once immediately so the digest is available for rename detection.
func (r *Reconciler) indexNewFiles(m *manifest.Manifest, live []scanner.FileEntry) error {
	for _, f := range live {
		if m.Has(f.Path) {
			continue
		}

		digest, err := r.hasher.Digest(filepath.Join(r.root, f.Path))
		if err != nil {
			return err
		}

		r.log.Debug("indexed new file", "path", f.Path, "size", f.Size)
		m.Put(&manifest.Entry{
			Path:   f.Path,
			Size:   f.Size,
			Digest: digest,
			Status: manifest.StatusIndexed,
		})
	}
	return nil
}

// markMissing flags every untouched entry whose path is gone from disk.
func (r *Reconciler) markMissing(m *manifest.Manifest, liveSizes map[string]int64) {
	for _, e := range m.Entries() {
		if e.Status != manifest.StatusUnknown {
			continue
		}
		if _, ok := liveSizes[e.Path]; !ok {
			r.log.Debug("file missing", "path", e.Path)
			e.Status = manifest.StatusMissing
		}
	}
}

// resolveRenames pairs missing entries with newly indexed files carrying
// identical content. Candidates are grouped by digest; the first candidate
// whose size also matches and that is still indexed wins. The tie-break is
// first match in scan order: when several indexed files are byte-identical
// to one missing file, the attribution is arbitrary but deterministic for a
// fixed snapshot order.
func (r *Reconciler) resolveRenames(m *manifest.Manifest) {
	byDigest := make(map[string][]*manifest.Entry)
	for _, e := range m.Entries() {
		if e.Status == manifest.StatusIndexed {
			byDigest[e.Digest] = append(byDigest[e.Digest], e)
		}
	}

	for _, e := range m.Entries() {
		if e.Status != manifest.StatusMissing {
			continue
		}
		for _, cand := range byDigest[e.Digest] {
			if cand.Size != e.Size || cand.Status != manifest.StatusIndexed {
				continue
			}
			r.log.Debug("rename detected", "from", e.Path, "to", cand.Path)
			cand.MarkRenamed(e.Path)
			e.Status = manifest.StatusDeleted
			break
		}
	}

	// Purge tombstones: no downstream consumer may see them.
	for _, e := range m.Entries() {
		if e.Status == manifest.StatusDeleted {
			m.Remove(e.Path)
		}
	}
}

// verify classifies the remaining untouched entries as checked or altered
// according to the verification mode.
func (r *Reconciler) verify(m *manifest.Manifest, liveSizes map[string]int64, mode Mode) error {
	for _, e := range m.Entries() {
		if e.Status != manifest.StatusUnknown {
			continue
		}
		liveSize := liveSizes[e.Path]

		if mode == ModeFast {
			if liveSize == e.Size {
				e.Status = manifest.StatusChecked
				continue
			}
			// Size changed: the digest is recomputed for the record
			// only, it does not participate in the decision.
			digest, err := r.hasher.Digest(filepath.Join(r.root, e.Path))
			if err != nil {
				return err
			}
			e.MarkAltered(liveSize, digest)
			continue
		}

		digest, err := r.hasher.Digest(filepath.Join(r.root, e.Path))
		if err != nil {
			return err
		}
		if liveSize != e.Size || digest != e.Digest {
			e.MarkAltered(liveSize, digest)
		} else {
			e.Status = manifest.StatusChecked
		}
	}
	return nil
}
