// Package storage persists run bookkeeping: the ingest manifest and flattened
// conformance report summaries. It is optional, file-only runs configure no
// repository at all. Concrete backends live in subpackages (sqlite, postgres)
// so the pipeline depends only on the Repository interface.
package storage

import (
	"context"

	"odietl/internal/report"
	"odietl/internal/writer"
)

// Summary is the flattened, queryable form of one conformance report.
type Summary struct {
	RunID       string
	DatasetName string
	SchemaName  string
	MatchScore  float64
	Rows        int
	Columns     int
	Errors      int
	Warnings    int
}

// NewSummary flattens a report for persistence under the given run id.
func NewSummary(runID string, r *report.Report) Summary {
	return Summary{
		RunID:       runID,
		DatasetName: r.DatasetName,
		SchemaName:  r.SchemaName,
		MatchScore:  r.MatchScore,
		Rows:        r.Rows,
		Columns:     r.Columns,
		Errors:      len(r.Errors),
		Warnings:    len(r.Warnings),
	}
}

// Repository is the minimal sink interface for run bookkeeping.
type Repository interface {
	// SaveManifest appends the manifest rows for a run.
	SaveManifest(ctx context.Context, rows []writer.ManifestRow) error
	// SaveSummaries appends one summary per validated dataset.
	SaveSummaries(ctx context.Context, summaries []Summary) error
	// Close releases the underlying connection(s).
	Close() error
}
