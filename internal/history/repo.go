package history

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/dayvault/internal/apperr"
	"github.com/starford/dayvault/internal/models"
)

// DefaultLimit caps List when no positive limit is given.
const DefaultLimit = 50

const runColumns = `id, source, output, dedup, converted, skipped, attachments,
	missing_media, status, error, started_at, finished_at`

// Record inserts run, replacing any earlier row with the same ID.
func (db *DB) Record(run models.Run) error {
	_, err := db.conn.Exec(`
		INSERT INTO conversions (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			converted     = excluded.converted,
			skipped       = excluded.skipped,
			attachments   = excluded.attachments,
			missing_media = excluded.missing_media,
			status        = excluded.status,
			error         = excluded.error,
			finished_at   = excluded.finished_at
	`, run.ID, run.Source, run.Output, run.Dedup, run.Converted, run.Skipped, run.Attachments,
		run.MissingMedia, run.Status, run.Error, run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("history: record run: %w", err)
	}
	return nil
}

// Get returns one run by ID.
func (db *DB) Get(id string) (*models.Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM conversions WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("history: get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first.
func (db *DB) List(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.Query(`SELECT `+runColumns+` FROM conversions
		ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	out := []models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var r models.Run
	err := s.Scan(&r.ID, &r.Source, &r.Output, &r.Dedup, &r.Converted, &r.Skipped, &r.Attachments,
		&r.MissingMedia, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
