package dayone

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/starford/dayvault/internal/apperr"
)

var errNoEntries = errors.New("no entries list")

// ParseError reports a journal document that could not be decoded. The
// loader records it and treats the document as empty so that a partial
// export still converts; it is not a silent drop, callers log every one.
type ParseError struct {
	Document string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Document, e.Err)
}

// Unwrap exposes both the parse class and the underlying decode error.
func (e *ParseError) Unwrap() []error {
	return []error{apperr.ErrParse, e.Err}
}

// Bundle is an opened export: a ZIP archive or a directory tree.
type Bundle struct {
	path    string
	fsys    fs.FS
	closer  io.Closer
	archive bool
}

// Open opens the export at p. Directories are read in place, regular files
// must be ZIP archives.
func Open(p string) (*Bundle, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrMalformedInput, p, err)
	}
	if info.IsDir() {
		return &Bundle{path: p, fsys: os.DirFS(p)}, nil
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is neither a directory nor a file", apperr.ErrMalformedInput, p)
	}
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a zip archive: %w", apperr.ErrMalformedInput, p, err)
	}
	return &Bundle{path: p, fsys: zr, closer: zr, archive: true}, nil
}

// FS returns the bundle contents. Paths use forward slashes.
func (b *Bundle) FS() fs.FS { return b.fsys }

// IsArchive reports whether the bundle is backed by a ZIP file.
func (b *Bundle) IsArchive() bool { return b.archive }

// Path returns the path the bundle was opened from.
func (b *Bundle) Path() string { return b.path }

// Close releases the archive handle, if any.
func (b *Bundle) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Journal is the decoded content of a bundle.
type Journal struct {
	Entries []Entry
	// Documents lists every JSON document found, in load order.
	Documents []string
	// Roots are the directories holding those documents. Media folders are
	// looked up next to them.
	Roots []string
	// Problems holds one *ParseError per document that contributed nothing.
	Problems []error
}

// Load locates and decodes every journal document in the bundle.
func (b *Bundle) Load() (*Journal, error) {
	docs, err := findDocuments(b.fsys)
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", apperr.ErrIO, b.path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no journal JSON document in %s", apperr.ErrMalformedInput, b.path)
	}

	j := &Journal{Documents: docs}
	seenRoot := make(map[string]struct{})
	for _, name := range docs {
		root := path.Dir(name)
		if _, ok := seenRoot[root]; !ok {
			seenRoot[root] = struct{}{}
			j.Roots = append(j.Roots, root)
		}

		data, err := fs.ReadFile(b.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", apperr.ErrIO, name, err)
		}
		entries, err := decode(data)
		if err != nil {
			j.Problems = append(j.Problems, &ParseError{Document: name, Err: err})
			continue
		}
		j.Entries = append(j.Entries, entries...)
	}
	return j, nil
}

func decode(data []byte) ([]Entry, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Entries == nil {
		return nil, errNoEntries
	}
	return *doc.Entries, nil
}

// findDocuments prefers JSON files at the bundle root and only searches
// the whole tree when there are none.
func findDocuments(fsys fs.FS) ([]string, error) {
	top, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range top {
		if !hidden(name) {
			out = append(out, name)
		}
	}
	if len(out) > 0 {
		sort.Strings(out)
		return out, nil
	}

	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			if hidden(d.Name()) || d.Name() == "__MACOSX" {
				return fs.SkipDir
			}
			return nil
		}
		if !hidden(d.Name()) && strings.EqualFold(path.Ext(p), ".json") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(path.Base(name), ".")
}
