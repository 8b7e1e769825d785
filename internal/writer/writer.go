// Package writer persists processed datasets and the ingest manifest to
// disk. Output is plain CSV; the manifest records one row per processed file
// so downstream jobs can track provenance.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	nonWordRuns    = regexp.MustCompile(`[^\w\-]+`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// SanitizeName converts an arbitrary label into a filesystem-safe stem.
func SanitizeName(value string) string {
	text := nonWordRuns.ReplaceAllString(value, "_")
	text = underscoreRuns.ReplaceAllString(text, "_")
	for len(text) > 0 && (text[0] == '_') {
		text = text[1:]
	}
	for len(text) > 0 && (text[len(text)-1] == '_') {
		text = text[:len(text)-1]
	}
	if text == "" {
		return "dataset"
	}
	return text
}

// Tabular is the minimal dataset view the writer needs; satisfied by
// records.Dataset.
type Tabular interface {
	ColumnNames() []string
	Rows() int
	Row(i int) []string
}

// WriteCSV writes ds to path, creating parent directories as needed.
func WriteCSV(ds Tabular, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < ds.Rows(); i++ {
		if err := w.Write(ds.Row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// ManifestRow records the provenance and disposition of one processed file.
type ManifestRow struct {
	RunID           string
	SourceZip       string
	SourceFile      string
	Rows            int
	Columns         int
	SkippedRows     int
	SchemaName      string
	ReportErrors    int
	ReportWarnings  int
	ProcessedOutput string
}

// WriteManifest writes the manifest rows as CSV at path.
func WriteManifest(rows []ManifestRow, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"run_id", "source_zip", "source_file", "rows", "columns",
		"skipped_rows", "schema_name", "report_errors", "report_warnings",
		"processed_output",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.RunID,
			row.SourceZip,
			row.SourceFile,
			strconv.Itoa(row.Rows),
			strconv.Itoa(row.Columns),
			strconv.Itoa(row.SkippedRows),
			row.SchemaName,
			strconv.Itoa(row.ReportErrors),
			strconv.Itoa(row.ReportWarnings),
			row.ProcessedOutput,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
