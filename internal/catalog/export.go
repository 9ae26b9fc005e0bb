// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Run     RunInfo     `json:"run" yaml:"run"`
	Records []RecordRow `json:"records" yaml:"records"`
}

const exportLimit = 10000000

// ExportYAML writes one run and its records to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, path string, q RecordQuery) error {
	doc, err := s.export(ctx, q)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes one run and its records to path as JSON.
func (s *Store) ExportJSON(ctx context.Context, path string, q RecordQuery) error {
	doc, err := s.export(ctx, q)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) export(ctx context.Context, q RecordQuery) (*Export, error) {
	if q.RunID == "" {
		id, err := s.LatestRunID(ctx)
		if err != nil {
			return nil, err
		}
		q.RunID = id
	}
	run, err := s.RunByID(ctx, q.RunID)
	if err != nil {
		return nil, err
	}

	q.MaxResults = exportLimit
	records, err := s.Records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if records == nil {
		records = []RecordRow{}
	}
	return &Export{Run: *run, Records: records}, nil
}
