package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/starford/dayvault/internal/converter"
	"github.com/starford/dayvault/internal/history"
	"github.com/starford/dayvault/internal/models"
)

// Service runs uploaded conversions, each in its own workspace, and records
// them in the ledger.
type Service struct {
	ledger  history.Ledger
	workDir string
	logger  *slog.Logger
}

// NewService creates a new API service. Workspaces are created under
// workDir, or the system temp dir when it is empty.
func NewService(ledger history.Ledger, workDir string, logger *slog.Logger) *Service {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: ledger, workDir: workDir, logger: logger}
}

// Conversion is a finished run whose vault is still on disk.
type Conversion struct {
	Run       models.Run
	VaultDir  string
	workspace string
}

// Cleanup removes the run's workspace.
func (c *Conversion) Cleanup() error {
	return os.RemoveAll(c.workspace)
}

// Convert stores the uploaded archive in a fresh workspace and converts it.
// On success the caller owns the returned Conversion and must clean it up;
// on failure the workspace is already gone.
func (s *Service) Convert(ctx context.Context, archive io.Reader, name string, dedup bool) (*Conversion, error) {
	id := uuid.NewString()
	ws := filepath.Join(s.workDir, "dayvault-"+id)
	if err := os.MkdirAll(ws, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	c := &Conversion{
		Run: models.Run{
			ID:        id,
			Source:    name,
			Output:    "vault.zip",
			Dedup:     dedup,
			StartedAt: time.Now().UTC(),
		},
		VaultDir:  filepath.Join(ws, "vault"),
		workspace: ws,
	}

	input := filepath.Join(ws, "export.zip")
	res, err := s.saveAndConvert(ctx, archive, input, c.VaultDir, dedup)
	c.Run.Converted = res.Converted
	c.Run.Skipped = res.Skipped
	c.Run.Attachments = res.Attachments
	c.Run.MissingMedia = res.MissingMedia
	c.Run.Finish(err)

	if recErr := s.ledger.Record(c.Run); recErr != nil {
		s.logger.Warn("record conversion failed", slog.String("id", id), slog.String("error", recErr.Error()))
	}
	if err != nil {
		_ = c.Cleanup()
		return nil, err
	}
	return c, nil
}

func (s *Service) saveAndConvert(ctx context.Context, archive io.Reader, input, output string, dedup bool) (converter.Result, error) {
	f, err := os.Create(input)
	if err != nil {
		return converter.Result{}, fmt.Errorf("save upload: %w", err)
	}
	_, err = io.Copy(f, archive)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return converter.Result{}, fmt.Errorf("save upload: %w", err)
	}
	return converter.New(input, output, dedup, converter.WithLogger(s.logger)).Convert(ctx)
}

// ListRuns returns the most recent conversions.
func (s *Service) ListRuns(limit int) ([]models.Run, error) {
	return s.ledger.List(limit)
}

// GetRun returns one conversion.
func (s *Service) GetRun(id string) (*models.Run, error) {
	return s.ledger.Get(id)
}
