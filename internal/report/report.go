// Package report builds the conformance report for one dataset: structural
// diagnostics, schema matching, per-field validation, and severity-sorted
// findings. Field-level anomalies never abort a run; they are recorded inside
// the report and the report is always returned.
package report

import (
	"odietl/internal/catalog"
	"odietl/internal/check"
	"odietl/pkg/records"
)

const (
	// duplicateRowLimit disables the whole-row duplicate scan above this row
	// count; the report marks the check as skipped instead.
	duplicateRowLimit = 500_000
	// idDuplicateLimit disables the id-column duplicate scan above this row
	// count.
	idDuplicateLimit = 1_000_000

	// Model years are sane in [modelYearMin, modelYearMax]; modelYearSentinel
	// is the documented "unknown year" value.
	modelYearMin      = 1900
	modelYearMax      = 2100
	modelYearSentinel = 9999
)

// idColumnCandidates is the priority-ordered list of known identifier
// columns; the first present wins.
var idColumnCandidates = []string{"odi_number", "odino", "cmplid", "complaint_number", "record_id"}

// modelYearCandidates is the priority-ordered list of model-year columns.
var modelYearCandidates = []string{"yeartxt", "model_year", "modelyear", "veh_year", "year"}

// defaultAllowedExtraColumns are provenance columns the pipeline itself
// appends; their presence is never flagged.
var defaultAllowedExtraColumns = []string{"source_zip", "source_file"}

// FieldCheck groups the validator outcomes attached to one expected column.
type FieldCheck struct {
	Type string // declared type as documented, "NUMBER" or "CHAR"
	Size int

	Numeric    *check.NumericResult
	Date       *check.DateResult
	CharLength *check.CharLengthResult
	Enum       *check.EnumResult
}

// IssueTotals aggregates violation counts across all checked fields.
type IssueTotals struct {
	DateInvalid     int
	DatePlaceholder int
	NonNumeric      int
	NonInteger      int
	DigitsOverflow  int
	LengthOverflow  int
	EnumInvalid     int
}

// Report is the immutable conformance report for one dataset. Pointer-typed
// counters are nil when the corresponding check was skipped or not
// applicable.
type Report struct {
	DatasetName string
	Rows        int
	Columns     int

	// DuplicateRows is nil when the dataset exceeded duplicateRowLimit.
	DuplicateRows *int

	IDColumn         string // empty when no candidate column was found
	IDNullCount      *int
	IDDuplicateCount *int

	ModelYearColumn     string
	ModelYearOutOfRange *int

	SchemaName    string // empty when nothing matched
	SchemaDocPath string
	MatchScore    float64
	MatchOverlap  int

	ExpectedColumns        *int
	PresentExpected        *int
	MissingColumns         []string
	MissingOptionalColumns []string
	ExtraColumns           []string
	UnexpectedExtraColumns []string
	ColumnOrderMatches     *bool

	FieldOrder  []string // checked columns in schema declaration order
	FieldChecks map[string]*FieldCheck
	IssueTotals IssueTotals

	Warnings []string
	Errors   []string
}

// Builder wires the catalog into report collection. The zero AllowedExtra
// means the default provenance allow-list.
type Builder struct {
	Catalog      *catalog.Catalog
	AllowedExtra []string
}

// Collect builds the conformance report for ds. schemaName selects an
// explicit target schema; empty means auto-detect against the catalog.
// Schema-independent structural diagnostics run regardless of match outcome.
func (b *Builder) Collect(ds *records.Dataset, datasetName, schemaName string) *Report {
	r := &Report{
		DatasetName: datasetName,
		Rows:        ds.Rows(),
		Columns:     ds.Cols(),
		FieldChecks: map[string]*FieldCheck{},
	}

	for _, failure := range b.Catalog.Failures() {
		r.warnf("Could not parse schema doc for %s: %v", failure.Schema, failure.Err)
	}

	var match catalog.Match
	if schemaName == "" {
		match = b.Catalog.Detect(ds.ColumnNames())
	} else {
		match = b.Catalog.ScoreAgainst(schemaName, ds.ColumnNames())
	}
	r.SchemaName = match.Schema
	r.MatchScore = match.Score
	r.MatchOverlap = match.Overlap

	if match.Schema != "" {
		if spec, err := b.Catalog.Spec(match.Schema); err == nil {
			b.checkAgainstSchema(r, ds, match.Schema, spec)
		} else {
			r.warnf("Schema '%s' requested but not available", match.Schema)
		}
	} else {
		r.Warnings = append(r.Warnings, "Could not confidently match dataset columns to a configured schema")
	}

	b.duplicateRows(r, ds)
	b.idColumn(r, ds)
	b.modelYear(r, ds)

	return r
}
