// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite record of conversion runs and the records
// each run wrote, with their byte ranges in the TFRecord output.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdm2tfrecord/internal/convert"
	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

// Run states stored in runs.status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const defaultMaxResults = 50

// Store manages the catalog database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the catalog database at path and creates the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db, maxResults: defaultMaxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			manifest_path TEXT NOT NULL,
			images_dir TEXT NOT NULL,
			output_path TEXT NOT NULL,
			normalized INTEGER NOT NULL DEFAULT 0,
			written INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			boxes INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			image_key TEXT NOT NULL,
			filename TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			boxes INTEGER NOT NULL,
			byte_offset INTEGER NOT NULL,
			byte_length INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_image_key ON records(image_key)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is an open catalog entry for one conversion. It records each written
// record as the conversion proceeds.
type Run struct {
	ID    string
	store *Store
}

var _ convert.Observer = (*Run)(nil)

// BeginRun inserts a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, cfg types.ConversionConfig) (*Run, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, manifest_path, images_dir, output_path, normalized, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, now(), cfg.ManifestPath, cfg.ImagesDir, cfg.OutputPath, cfg.Normalize, StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

// RecordWritten stores one written record.
func (r *Run) RecordWritten(ctx context.Context, e convert.Entry) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO records (run_id, seq, image_key, filename, width, height, boxes, byte_offset, byte_length)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, e.Seq, e.ImageKey, e.Filename, e.Width, e.Height, e.Boxes, e.Offset, e.Length,
	)
	if err != nil {
		return fmt.Errorf("inserting record %d: %w", e.Seq, err)
	}
	return nil
}

// Finish stores the run outcome. A non-nil runErr marks the run failed.
func (r *Run) Finish(ctx context.Context, summary convert.Summary, runErr error) error {
	status := StatusCompleted
	var errText sql.NullString
	if runErr != nil {
		status = StatusFailed
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, written = ?, skipped = ?, boxes = ?, status = ?, error = ?
		 WHERE id = ?`,
		now(), summary.Written, summary.Skipped, summary.Boxes, status, errText, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", r.ID, err)
	}
	return nil
}

// timeLayout has a fixed width so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func now() string {
	return time.Now().UTC().Format(timeLayout)
}
