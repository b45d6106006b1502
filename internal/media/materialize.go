// Package media copies journal attachments into the vault's flat attachments folder.
package media

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/dayvault/internal/apperr"
	"github.com/starford/dayvault/internal/storage"
)

// Dir is the vault folder that receives every attachment.
const Dir = "attachments"

// Categories are the export folders that hold attachments. Exports from
// different clients use either pdfAttachments or pdfs.
var Categories = []string{"photos", "videos", "audios", "pdfAttachments", "pdfs"}

// Stats counts what a materialization did.
type Stats struct {
	Copied  int
	Skipped int
}

// Materializer copies attachment files by basename. Two different source
// files that share a basename keep the first one copied; there is no
// content comparison.
type Materializer struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewMaterializer creates a materializer writing into store.
func NewMaterializer(store storage.Provider, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{store: store, logger: logger}
}

// Materialize copies every file found under <root>/<category> for each root.
func (m *Materializer) Materialize(fsys fs.FS, roots []string) (Stats, error) {
	var st Stats
	if err := m.store.MkdirAll(Dir); err != nil {
		return st, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	for _, root := range roots {
		for _, cat := range Categories {
			dir := path.Join(root, cat)
			info, err := fs.Stat(fsys, dir)
			if err != nil || !info.IsDir() {
				continue
			}
			if err := m.copyTree(fsys, dir, &st); err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func (m *Materializer) copyTree(fsys fs.FS, dir string, st *Stats) error {
	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("%w: walk %s: %w", apperr.ErrIO, p, walkErr)
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		dst := path.Join(Dir, d.Name())
		exists, err := m.store.Exists(dst)
		if err != nil {
			return fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}
		if exists {
			st.Skipped++
			m.logger.Debug("media: already present", slog.String("name", d.Name()))
			return nil
		}

		src, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", apperr.ErrIO, p, err)
		}
		err = m.store.WriteFrom(dst, src)
		_ = src.Close()
		if err != nil {
			return fmt.Errorf("%w: copy %s: %w", apperr.ErrIO, p, err)
		}
		st.Copied++
		return nil
	})
}
