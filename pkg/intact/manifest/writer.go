package manifest

import (
	"fmt"
	"os"
	"strings"
)

// ShouldPersist reports whether a reconciled manifest differs from what is
// already on disk. It is true iff at least one entry's status is not
// StatusChecked.
func ShouldPersist(m *Manifest) bool {
	for _, e := range m.Entries() {
		if e.Status != StatusChecked {
			return true
		}
	}
	return false
}

// Save serializes the manifest to path. Entries with StatusMissing are
// dropped, survivors are written sorted by path, and only path, size, and
// digest survive serialization. The write is atomic: a temp file in the
// same directory is renamed over the target, so a crash mid-write never
// corrupts previously committed state.
func Save(path string, m *Manifest) error {
	var sb strings.Builder
	for _, p := range m.Paths() {
		e := m.Get(p)
		if e.Status == StatusMissing {
			continue
		}
		sb.WriteString(formatLine(e))
		sb.WriteByte('\n')
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename manifest temp file: %w", err)
	}
	return nil
}
