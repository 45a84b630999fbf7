// Package report derives categorized change sets from a reconciled manifest
// and writes them as timestamped change logs.
package report

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/intact/pkg/intact/logging"
	"github.com/jamesainslie/intact/pkg/intact/manifest"
)

// Move records a detected rename.
type Move struct {
	From string
	To   string
}

// Modification records a content change.
type Modification struct {
	Path        string
	PriorDigest string
	Digest      string
}

// Record is one backup line, sufficient to restore an entry's pre-run state.
type Record struct {
	Path   string
	Size   int64
	Digest string
}

// ChangeSet holds the categorized changes of one reconciliation run.
type ChangeSet struct {
	Deleted  []string
	New      []string
	Moved    []Move
	Modified []Modification

	// Backup covers every entry that already existed before this run,
	// using the prior values where present. Together with the updated
	// manifest it is sufficient to reconstruct the manifest as it was
	// before the run, except for brand-new entries which have no
	// "before" state.
	Backup []Record
}

// Empty reports whether the run produced no changes at all.
func (c *ChangeSet) Empty() bool {
	return len(c.Deleted) == 0 && len(c.New) == 0 && len(c.Moved) == 0 && len(c.Modified) == 0
}

// Derive walks the reconciled manifest and builds the change sets in
// manifest iteration order.
func Derive(m *manifest.Manifest) *ChangeSet {
	c := &ChangeSet{}

	for _, e := range m.Entries() {
		switch e.Status {
		case manifest.StatusMissing:
			c.Deleted = append(c.Deleted, e.Path)
		case manifest.StatusIndexed:
			c.New = append(c.New, e.Path)
		case manifest.StatusRenamed:
			c.Moved = append(c.Moved, Move{From: e.PriorPath, To: e.Path})
		case manifest.StatusAltered:
			c.Modified = append(c.Modified, Modification{
				Path:        e.Path,
				PriorDigest: e.PriorDigest,
				Digest:      e.Digest,
			})
		}

		if e.Status == manifest.StatusIndexed {
			continue // New entries have no before state to back up.
		}
		c.Backup = append(c.Backup, backupRecord(e))
	}

	return c
}

// backupRecord returns the entry's pre-run state, preferring prior values.
func backupRecord(e *manifest.Entry) Record {
	switch e.Status {
	case manifest.StatusAltered:
		return Record{Path: e.Path, Size: e.PriorSize, Digest: e.PriorDigest}
	case manifest.StatusRenamed:
		return Record{Path: e.PriorPath, Size: e.Size, Digest: e.Digest}
	default:
		return Record{Path: e.Path, Size: e.Size, Digest: e.Digest}
	}
}

// Writer emits change logs into a directory, one file per non-empty
// category, all sharing a timestamped base name.
type Writer struct {
	dir string
	log *logging.Logger
}

// NewWriter creates a Writer targeting dir. The directory is created on the
// first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, log: logging.Get("report")}
}

// Write emits one log file per non-empty category and returns the base name
// used, or "" when the change set is empty and nothing was written.
func (w *Writer) Write(c *ChangeSet) (string, error) {
	if c.Empty() {
		return "", nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	base := generateBase()

	files := []struct {
		suffix string
		lines  []string
	}{
		{"deleted", c.Deleted},
		{"new", c.New},
		{"moved", movedLines(c.Moved)},
		{"modified", modifiedLines(c.Modified)},
		{"backup", backupLines(c.Backup)},
	}

	for _, f := range files {
		if len(f.lines) == 0 {
			continue
		}
		name := fmt.Sprintf("%s-%s.log", base, f.suffix)
		path := filepath.Join(w.dir, name)
		data := strings.Join(f.lines, "\n") + "\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			return "", fmt.Errorf("write change log %s: %w", name, err)
		}
		w.log.Debug("wrote change log", "file", name, "records", len(f.lines))
	}

	return base, nil
}

func movedLines(moves []Move) []string {
	lines := make([]string, len(moves))
	for i, mv := range moves {
		lines[i] = fmt.Sprintf("%s -> %s", mv.From, mv.To)
	}
	return lines
}

func modifiedLines(mods []Modification) []string {
	lines := make([]string, len(mods))
	for i, md := range mods {
		lines[i] = fmt.Sprintf("%s %s %s", md.Path, md.PriorDigest, md.Digest)
	}
	return lines
}

// backupLines renders records in the manifest line format so a backup file
// can be loaded as a manifest.
func backupLines(records []Record) []string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("%s %d %s", r.Path, r.Size, r.Digest)
	}
	return lines
}

// generateBase creates a base name like "intact-20240615-103000-abc123".
func generateBase() string {
	ts := time.Now().UTC().Format("20060102-150405")

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		// Fallback to nanoseconds if crypto/rand fails.
		return fmt.Sprintf("intact-%s-%06d", ts, time.Now().Nanosecond()%1000000)
	}
	return fmt.Sprintf("intact-%s-%s", ts, hex.EncodeToString(suffix))
}
