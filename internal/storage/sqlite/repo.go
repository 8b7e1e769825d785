// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Inserts are batched inside a transaction; SQLite has no bulk
// load API like Postgres COPY, but transactions keep performance acceptable
// for manifest-sized volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"odietl/internal/storage"
	"odietl/internal/writer"
)

const bootstrapDDL = `
CREATE TABLE IF NOT EXISTS ingest_manifest (
    run_id           TEXT NOT NULL,
    source_zip       TEXT NOT NULL,
    source_file      TEXT NOT NULL,
    rows             INTEGER NOT NULL,
    columns          INTEGER NOT NULL,
    skipped_rows     INTEGER NOT NULL,
    schema_name      TEXT,
    report_errors    INTEGER NOT NULL,
    report_warnings  INTEGER NOT NULL,
    processed_output TEXT,
    loaded_at        TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS report_summaries (
    run_id       TEXT NOT NULL,
    dataset_name TEXT NOT NULL,
    schema_name  TEXT,
    match_score  REAL NOT NULL,
    rows         INTEGER NOT NULL,
    columns      INTEGER NOT NULL,
    errors       INTEGER NOT NULL,
    warnings     INTEGER NOT NULL,
    loaded_at    TEXT NOT NULL DEFAULT (datetime('now'))
);`

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:odietl.db?cache=shared&_fk=1"
	//   "odietl.db" (interpreted by the driver)
	DSN string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens a SQLite connection using the provided DSN and creates
// the bookkeeping tables if they do not exist.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Ping with a short context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, bootstrapDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: bootstrap: %w", err)
	}
	return &Repository{db: db}, nil
}

// SaveManifest inserts the manifest rows inside one transaction.
func (r *Repository) SaveManifest(ctx context.Context, rows []writer.ManifestRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.inTx(ctx, `INSERT INTO ingest_manifest
		(run_id, source_zip, source_file, rows, columns, skipped_rows,
		 schema_name, report_errors, report_warnings, processed_output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			row := rows[i]
			_, err := stmt.ExecContext(ctx,
				row.RunID, row.SourceZip, row.SourceFile, row.Rows, row.Columns,
				row.SkippedRows, row.SchemaName, row.ReportErrors,
				row.ReportWarnings, row.ProcessedOutput)
			return err
		})
}

// SaveSummaries inserts the report summaries inside one transaction.
func (r *Repository) SaveSummaries(ctx context.Context, summaries []storage.Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	return r.inTx(ctx, `INSERT INTO report_summaries
		(run_id, dataset_name, schema_name, match_score, rows, columns, errors, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(summaries), func(stmt *sql.Stmt, i int) error {
			s := summaries[i]
			_, err := stmt.ExecContext(ctx,
				s.RunID, s.DatasetName, s.SchemaName, s.MatchScore,
				s.Rows, s.Columns, s.Errors, s.Warnings)
			return err
		})
}

// inTx runs n prepared-statement executions inside a single transaction.
func (r *Repository) inTx(ctx context.Context, stmtSQL string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *Repository) Close() error { return r.db.Close() }
