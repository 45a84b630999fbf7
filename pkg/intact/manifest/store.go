package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrCorrupt indicates a manifest line that does not match the on-disk
// grammar. Parsing aborts at the first bad line; no partial manifest is
// returned.
var ErrCorrupt = errors.New("corrupt manifest")

// digestPattern matches a lowercase hexadecimal digest field.
var digestPattern = regexp.MustCompile(`^[0-9a-f]+$`)

// Load reads a manifest file. Each line is `<path> <size> <digest>` where
// the path may contain spaces; the size and digest are the last two fields.
// Every loaded entry starts in StatusUnknown.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m := New()
	sc := bufio.NewScanner(f)
	// Allow pathological path lengths without Scan failing.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if m.Has(entry.Path) {
			return nil, fmt.Errorf("%s:%d: %w: duplicate path %q", path, lineNo, ErrCorrupt, entry.Path)
		}
		m.Put(entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return m, nil
}

// LoadOrEmpty reads a manifest file, returning an empty manifest if the file
// does not exist. Corruption is still fatal.
func LoadOrEmpty(path string) (*Manifest, error) {
	m, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	return m, err
}

// parseLine parses one manifest line. The path is the greedy left match:
// everything up to the two trailing fields.
func parseLine(line string) (*Entry, error) {
	lastSpace := strings.LastIndexByte(line, ' ')
	if lastSpace <= 0 {
		return nil, fmt.Errorf("%w: expected `path size digest`, got %q", ErrCorrupt, line)
	}
	digest := line[lastSpace+1:]

	rest := line[:lastSpace]
	midSpace := strings.LastIndexByte(rest, ' ')
	if midSpace <= 0 {
		return nil, fmt.Errorf("%w: expected `path size digest`, got %q", ErrCorrupt, line)
	}
	sizeField := rest[midSpace+1:]
	pathField := rest[:midSpace]

	size, err := strconv.ParseInt(sizeField, 10, 64)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("%w: bad size field %q", ErrCorrupt, sizeField)
	}
	if !digestPattern.MatchString(digest) {
		return nil, fmt.Errorf("%w: bad digest field %q", ErrCorrupt, digest)
	}

	return &Entry{
		Path:   pathField,
		Size:   size,
		Digest: digest,
		Status: StatusUnknown,
	}, nil
}

// formatLine renders one entry as a manifest line.
func formatLine(e *Entry) string {
	return fmt.Sprintf("%s %d %s", e.Path, e.Size, e.Digest)
}
