// Package converter turns a journal export into a Markdown vault.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayvault/internal/apperr"
	"github.com/starford/dayvault/internal/dayone"
	"github.com/starford/dayvault/internal/dedup"
	"github.com/starford/dayvault/internal/media"
	"github.com/starford/dayvault/internal/naming"
	"github.com/starford/dayvault/internal/normalize"
	"github.com/starford/dayvault/internal/parser"
	"github.com/starford/dayvault/internal/storage"
)

// EntriesDir is the vault folder that receives entry files.
const EntriesDir = "entries"

// Result reports what a run produced.
type Result struct {
	Converted          int `json:"converted"`
	Skipped            int `json:"skipped"`
	Attachments        int `json:"attachments"`
	AttachmentsSkipped int `json:"attachments_skipped"`
	MissingMedia       int `json:"missing_media"`
	// Files are the written entry paths, relative to the output directory.
	Files []string `json:"files"`
	// Problems are the non-fatal document errors, all *dayone.ParseError.
	Problems []error `json:"-"`
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Converter runs one export-to-vault conversion. A Converter holds no state
// between runs: the filename registry and dedup index live inside Convert.
type Converter struct {
	input  string
	output string
	dedup  bool
	logger *slog.Logger
}

// New creates a converter reading the export at inputPath (a ZIP archive or
// a directory) and writing the vault under outputDir.
func New(inputPath, outputDir string, dedup bool, opts ...Option) *Converter {
	c := &Converter{
		input:  inputPath,
		output: outputDir,
		dedup:  dedup,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the paths given to New.
func (c *Converter) Validate() error {
	return validation.Errors{
		"input":  validation.Validate(c.input, validation.Required),
		"output": validation.Validate(c.output, validation.Required, validation.By(c.notInput)),
	}.Filter()
}

func (c *Converter) notInput(value any) error {
	out, _ := value.(string)
	if filepath.Clean(out) == filepath.Clean(c.input) {
		return errors.New("must differ from the input path")
	}
	return nil
}

// Convert performs the full run. The error, if any, wraps one of
// apperr.ErrMalformedInput or apperr.ErrIO, or is the context error. Files
// written before a failure stay on disk.
func (c *Converter) Convert(ctx context.Context) (Result, error) {
	var res Result
	start := time.Now()

	if err := c.Validate(); err != nil {
		return res, fmt.Errorf("%w: %w", apperr.ErrMalformedInput, err)
	}

	bundle, err := dayone.Open(c.input)
	if err != nil {
		return res, err
	}
	defer func() { _ = bundle.Close() }()

	journal, err := bundle.Load()
	if err != nil {
		return res, err
	}
	for _, p := range journal.Problems {
		c.logger.Warn("journal document skipped", slog.String("error", p.Error()))
	}
	res.Problems = journal.Problems

	store, err := storage.NewFS(c.output)
	if err != nil {
		return res, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	if err := store.MkdirAll(EntriesDir); err != nil {
		return res, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}

	stats, err := media.NewMaterializer(store, c.logger).Materialize(bundle.FS(), journal.Roots)
	res.Attachments, res.AttachmentsSkipped = stats.Copied, stats.Skipped
	if err != nil {
		return res, err
	}

	registry := naming.NewRegistry()
	seen := dedup.New(c.dedup)
	for i := range journal.Entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e := &journal.Entries[i]
		if seen.Duplicate(e.UUID, e.Body()) {
			res.Skipped++
			c.logger.Debug("duplicate entry skipped", slog.String("uuid", e.UUID))
			continue
		}

		conv := normalize.Normalize(e)
		name := path.Join(EntriesDir, naming.Derive(e, registry))
		data, err := parser.Render(conv.Frontmatter, conv.Body)
		if err != nil {
			return res, fmt.Errorf("render %s: %w", e.UUID, err)
		}
		if err := store.Write(name, data); err != nil {
			return res, fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}

		res.Converted++
		res.Files = append(res.Files, name)
		res.MissingMedia += len(conv.Missing)
		for _, id := range conv.Missing {
			c.logger.Debug("missing media", slog.String("uuid", e.UUID), slog.String("identifier", id))
		}
	}

	c.logger.Info("conversion finished",
		slog.String("input", c.input),
		slog.String("output", c.output),
		slog.Int("converted", res.Converted),
		slog.Int("skipped", res.Skipped),
		slog.Int("attachments", res.Attachments),
		slog.Int("missing_media", res.MissingMedia),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}
