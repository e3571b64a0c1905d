// Package epub extracts the readable content of an EPUB archive into a
// single HTML document. It handles the common real-world sloppiness of
// EPUB files: percent-encoded hrefs, case mismatches between references
// and archive entries, and paths given relative to the section, the
// package directory, or the archive root.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// Archive wraps an in-memory zip archive and provides case-insensitive
// entry lookup. EPUB producers disagree about path casing, so the table
// maps lowercase normalized paths to the actual entry names once and
// every read goes through it.
type Archive struct {
	reader  *zip.Reader
	entries map[string]string
}

// OpenArchive opens an EPUB's raw bytes as a zip archive and builds the
// entry lookup table.
func OpenArchive(data []byte) (*Archive, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening epub archive: %w", err)
	}

	entries := make(map[string]string, len(reader.File))
	for _, f := range reader.File {
		normalized := normalizePath(f.Name)
		if normalized == "" {
			continue
		}
		entries[strings.ToLower(normalized)] = f.Name
	}

	return &Archive{reader: reader, entries: entries}, nil
}

// Has reports whether the archive contains an entry at path, ignoring case.
func (a *Archive) Has(p string) bool {
	_, ok := a.actual(p)
	return ok
}

// actual returns the real entry name for a normalized path, ignoring case.
func (a *Archive) actual(p string) (string, bool) {
	name, ok := a.entries[strings.ToLower(normalizePath(p))]
	return name, ok
}

// ReadBytes reads the entry at path. The path may differ in case from the
// actual entry name.
func (a *Archive) ReadBytes(p string) ([]byte, error) {
	name, ok := a.actual(p)
	if !ok {
		return nil, fmt.Errorf("entry %q not found in archive", p)
	}

	f, err := a.reader.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening entry %q: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading entry %q: %w", name, err)
	}
	return data, nil
}

// ReadText reads the entry at path as a string.
func (a *Archive) ReadText(p string) (string, error) {
	data, err := a.ReadBytes(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// normalizePath converts a path to forward slashes and cleans it. Empty
// paths and "." normalize to the empty string.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = path.Clean(p)
	if p == "." || p == "/" {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}
