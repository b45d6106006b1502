// Package dedup recognizes entries repeated verbatim within one conversion run.
package dedup

import "github.com/starford/dayvault/internal/checksum"

// Index maps entry identifiers to the fingerprints of every body processed
// under that identifier. Content repeated under a different identifier is
// not detected.
type Index struct {
	enabled bool
	seen    map[string]map[string]struct{}
	skipped int
}

// New returns an index. A disabled index lets every entry through and
// records nothing.
func New(enabled bool) *Index {
	return &Index{enabled: enabled, seen: make(map[string]map[string]struct{})}
}

// Duplicate reports whether the entry with id and body repeats one already
// processed. Entries that are not duplicates are recorded.
func (x *Index) Duplicate(id, body string) bool {
	if !x.enabled || id == "" {
		return false
	}
	fp := checksum.Fingerprint(body)
	fps, ok := x.seen[id]
	if !ok {
		fps = make(map[string]struct{})
		x.seen[id] = fps
	}
	if _, dup := fps[fp]; dup {
		x.skipped++
		return true
	}
	fps[fp] = struct{}{}
	return false
}

// Skipped returns the number of duplicates reported so far.
func (x *Index) Skipped() int { return x.skipped }

// Len returns the number of identifiers recorded.
func (x *Index) Len() int { return len(x.seen) }
