// Package postgres implements a Postgres storage.Repository using pgx v5.
// Manifest rows go in via COPY; summaries are small enough for plain inserts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"odietl/internal/storage"
	"odietl/internal/writer"
)

const bootstrapDDL = `
CREATE TABLE IF NOT EXISTS ingest_manifest (
    run_id           text NOT NULL,
    source_zip       text NOT NULL,
    source_file      text NOT NULL,
    rows             integer NOT NULL,
    columns          integer NOT NULL,
    skipped_rows     integer NOT NULL,
    schema_name      text,
    report_errors    integer NOT NULL,
    report_warnings  integer NOT NULL,
    processed_output text,
    loaded_at        timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS report_summaries (
    run_id       text NOT NULL,
    dataset_name text NOT NULL,
    schema_name  text,
    match_score  double precision NOT NULL,
    rows         integer NOT NULL,
    columns      integer NOT NULL,
    errors       integer NOT NULL,
    warnings     integer NOT NULL,
    loaded_at    timestamptz NOT NULL DEFAULT now()
);`

var manifestColumns = []string{
	"run_id", "source_zip", "source_file", "rows", "columns", "skipped_rows",
	"schema_name", "report_errors", "report_warnings", "processed_output",
}

// Config holds Postgres repository configuration.
type Config struct {
	// DSN is the connection string for pgxpool, e.g. "postgresql://...".
	DSN string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository constructs a Repository and creates the bookkeeping tables if
// they do not exist.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if _, err := pool.Exec(ctx, bootstrapDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: bootstrap: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// SaveManifest streams the manifest rows via COPY.
func (r *Repository) SaveManifest(ctx context.Context, rows []writer.ManifestRow) error {
	if len(rows) == 0 {
		return nil
	}
	copyRows := make([][]any, 0, len(rows))
	for _, row := range rows {
		copyRows = append(copyRows, []any{
			row.RunID, row.SourceZip, row.SourceFile, row.Rows, row.Columns,
			row.SkippedRows, row.SchemaName, row.ReportErrors,
			row.ReportWarnings, row.ProcessedOutput,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"ingest_manifest"}, manifestColumns,
		pgx.CopyFromRows(copyRows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return fmt.Errorf("copy manifest: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return fmt.Errorf("copy manifest: %w", err)
	}
	return nil
}

// SaveSummaries inserts the report summaries one statement per row; a run
// produces at most a handful.
func (r *Repository) SaveSummaries(ctx context.Context, summaries []storage.Summary) error {
	for _, s := range summaries {
		_, err := r.pool.Exec(ctx, `INSERT INTO report_summaries
			(run_id, dataset_name, schema_name, match_score, rows, columns, errors, warnings)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.RunID, s.DatasetName, s.SchemaName, s.MatchScore,
			s.Rows, s.Columns, s.Errors, s.Warnings)
		if err != nil {
			return fmt.Errorf("insert summary for %s: %w", s.DatasetName, err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
