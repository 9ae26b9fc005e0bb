// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNoRuns is returned when the latest run is requested from an empty catalog.
var ErrNoRuns = errors.New("catalog has no runs")

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID           string `json:"id" yaml:"id"`
	StartedAt    string `json:"started_at" yaml:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`
	ImagesDir    string `json:"images_dir" yaml:"images_dir"`
	OutputPath   string `json:"output_path" yaml:"output_path"`
	Normalized   bool   `json:"normalized" yaml:"normalized"`
	Written      int    `json:"written" yaml:"written"`
	Skipped      int    `json:"skipped" yaml:"skipped"`
	Boxes        int    `json:"boxes" yaml:"boxes"`
	Status       string `json:"status" yaml:"status"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordRow is one written record.
type RecordRow struct {
	RunID    string `json:"run_id" yaml:"run_id"`
	Seq      int    `json:"seq" yaml:"seq"`
	ImageKey string `json:"image_key" yaml:"image_key"`
	Filename string `json:"filename" yaml:"filename"`
	Width    int64  `json:"width" yaml:"width"`
	Height   int64  `json:"height" yaml:"height"`
	Boxes    int    `json:"boxes" yaml:"boxes"`
	Offset   int64  `json:"offset" yaml:"offset"`
	Length   int64  `json:"length" yaml:"length"`
}

// RecordQuery filters Records.
type RecordQuery struct {
	// RunID selects a run. Empty means the most recently started run.
	RunID string

	// ImageKey matches records whose key contains the string.
	ImageKey string

	// MinBoxes keeps records with at least this many boxes.
	MinBoxes int

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

const runColumns = `id, started_at, finished_at, manifest_path, images_dir, output_path,
	normalized, written, skipped, boxes, status, error`

// Runs lists runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// RunByID returns one run.
func (s *Store) RunByID(ctx context.Context, id string) (*RunInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return r, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*RunInfo, error) {
	var (
		r        RunInfo
		finished sql.NullString
		errText  sql.NullString
	)
	err := sc.Scan(&r.ID, &r.StartedAt, &finished, &r.ManifestPath, &r.ImagesDir,
		&r.OutputPath, &r.Normalized, &r.Written, &r.Skipped, &r.Boxes, &r.Status, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	r.FinishedAt = finished.String
	r.Error = errText.String
	return &r, nil
}

// LatestRunID returns the id of the most recently started run.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", fmt.Errorf("querying latest run: %w", err)
	}
	return id, nil
}

// Records returns the records of one run in write order.
func (s *Store) Records(ctx context.Context, q RecordQuery) ([]RecordRow, error) {
	runID := q.RunID
	if runID == "" {
		var err error
		if runID, err = s.LatestRunID(ctx); err != nil {
			return nil, err
		}
	}
	limit := q.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT run_id, seq, image_key, filename, width, height, boxes, byte_offset, byte_length
		 FROM records WHERE run_id = ?`)
	args = append(args, runID)

	if q.ImageKey != "" {
		qb.WriteString(` AND instr(image_key, ?) > 0`)
		args = append(args, q.ImageKey)
	}
	if q.MinBoxes > 0 {
		qb.WriteString(` AND boxes >= ?`)
		args = append(args, q.MinBoxes)
	}
	qb.WriteString(` ORDER BY seq LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var r RecordRow
		if err := rows.Scan(&r.RunID, &r.Seq, &r.ImageKey, &r.Filename, &r.Width, &r.Height,
			&r.Boxes, &r.Offset, &r.Length); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
