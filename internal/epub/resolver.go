package epub

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrEntryNotFound is returned by Resolve when no resolution strategy
// produced an existing archive entry. Callers treat it as a per-reference
// failure, not a fatal one.
var ErrEntryNotFound = errors.New("entry not found in archive")

// ResolveError carries the candidate paths that were tried before a
// reference failed to resolve. It unwraps to ErrEntryNotFound.
type ResolveError struct {
	Ref       string
	Attempted []string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("could not resolve %q (tried %s)", e.Ref, strings.Join(e.Attempted, ", "))
}

func (e *ResolveError) Unwrap() error {
	return ErrEntryNotFound
}

// Resolver resolves href and src references found inside EPUB documents to
// actual archive entries. References are ambiguous in practice: they may be
// relative to the section that contains them, relative to the OPF package
// directory, or root-relative.
type Resolver struct {
	archive *Archive
	opfDir  string
}

// NewResolver creates a resolver for the archive whose OPF package file
// lives in opfDir ("" when the package sits at the archive root).
func NewResolver(archive *Archive, opfDir string) *Resolver {
	return &Resolver{archive: archive, opfDir: normalizePath(opfDir)}
}

// Resolve maps a reference to the actual entry name inside the archive.
// sectionPath is the archive path of the document the reference appeared
// in ("" when resolving spine hrefs, which are OPF-relative).
//
// The reference is percent-decoded first; if decoding fails the raw string
// is used as-is. Strategies are tried in order, first hit wins:
//
//  1. relative to the section's directory
//  2. relative to the OPF package directory
//  3. relative to the archive root (a leading "/" means root-relative)
//
// On a miss the returned error is a *ResolveError listing every candidate
// that was tried.
func (r *Resolver) Resolve(ref, sectionPath string) (string, error) {
	decoded, err := url.PathUnescape(ref)
	if err != nil {
		decoded = ref
	}
	// Strip a fragment; "chapter.xhtml#part2" points at the entry itself.
	if i := strings.IndexByte(decoded, '#'); i >= 0 {
		decoded = decoded[:i]
	}
	if decoded == "" {
		return "", &ResolveError{Ref: ref, Attempted: nil}
	}

	var attempted []string
	try := func(candidate string) (string, bool) {
		candidate = normalizePath(candidate)
		if candidate == "" {
			return "", false
		}
		attempted = append(attempted, candidate)
		actual, ok := r.archive.actual(candidate)
		return actual, ok
	}

	if dir := sectionDir(sectionPath); dir != "" || !strings.HasPrefix(decoded, "/") {
		if actual, ok := try(path.Join(dir, decoded)); ok {
			return actual, nil
		}
	}
	if r.opfDir != "" {
		if actual, ok := try(path.Join(r.opfDir, decoded)); ok {
			return actual, nil
		}
	}
	if actual, ok := try(strings.TrimPrefix(decoded, "/")); ok {
		return actual, nil
	}

	return "", &ResolveError{Ref: ref, Attempted: attempted}
}

// sectionDir returns the directory portion of an archive path, "" for
// root-level entries.
func sectionDir(p string) string {
	p = normalizePath(p)
	if p == "" {
		return ""
	}
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}
