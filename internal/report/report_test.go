package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"odietl/internal/catalog"
	"odietl/pkg/records"
)

const complaintsDoc = `FIELDS:
1  CMPLID    CHAR(9)    COMPLAINT ID
2  ODINO     NUMBER(9)  ODI NUMBER
3  FAILDATE  CHAR(8)    FAILURE DATE (YYYYMMDD)
4  CRASH     CHAR(1)    CRASHED 'Y' OR 'N'
5  YEARTXT   NUMBER(4)  MODEL YEAR
`

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "CMPL.txt")
	if err := os.WriteFile(path, []byte(complaintsDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	cat := catalog.New([]catalog.Registration{
		{Name: "complaints", DocPath: path},
	})
	return &Builder{Catalog: cat}
}

// cleanDataset builds a dataset matching the complaints schema exactly, plus
// the provenance columns the pipeline appends.
func cleanDataset() *records.Dataset {
	ds := records.New()
	ds.AddTextColumn("cmplid", []string{"C1", "C2"})
	ds.AddTextColumn("odino", []string{"100001", "100002"})
	ds.AddTextColumn("faildate", []string{"20230101", "00000000"})
	ds.AddTextColumn("crash", []string{"Y", "N"})
	ds.AddTextColumn("yeartxt", []string{"2020", "9999"})
	ds.AddTextColumn("source_zip", []string{"FLAT_CMPL.zip", "FLAT_CMPL.zip"})
	ds.AddTextColumn("source_file", []string{"CMPL.txt", "CMPL.txt"})
	return ds
}

/*
TestCollect_CleanDataset verifies the happy path: exact schema columns plus
the provenance allow-list produce no missing or unexpected columns, a matching
order, and no errors.
*/
func TestCollect_CleanDataset(t *testing.T) {
	b := testBuilder(t)
	r := b.Collect(cleanDataset(), "cmpl", "")

	if r.SchemaName != "complaints" {
		t.Fatalf("SchemaName = %q, want complaints (score %v)", r.SchemaName, r.MatchScore)
	}
	if r.MatchScore != 1.0 {
		t.Errorf("MatchScore = %v, want 1.0", r.MatchScore)
	}
	if len(r.MissingColumns) != 0 || len(r.UnexpectedExtraColumns) != 0 {
		t.Errorf("missing=%v unexpected=%v, want none", r.MissingColumns, r.UnexpectedExtraColumns)
	}
	if len(r.ExtraColumns) != 2 {
		t.Errorf("ExtraColumns = %v, want the two provenance columns", r.ExtraColumns)
	}
	if r.ColumnOrderMatches == nil || !*r.ColumnOrderMatches {
		t.Error("ColumnOrderMatches: want true")
	}
	if len(r.Errors) != 0 {
		t.Errorf("Errors = %v, want none", r.Errors)
	}
	// The placeholder date is a warning, not an error.
	if !hasMessage(r.Warnings, "placeholder zero date") {
		t.Errorf("Warnings = %v, want a placeholder date warning", r.Warnings)
	}

	if r.IDColumn != "cmplid" {
		t.Errorf("IDColumn = %q, want cmplid", r.IDColumn)
	}
	if r.IDNullCount == nil || *r.IDNullCount != 0 {
		t.Error("IDNullCount: want 0")
	}
	if r.DuplicateRows == nil || *r.DuplicateRows != 0 {
		t.Error("DuplicateRows: want 0")
	}
	if r.ModelYearColumn != "yeartxt" {
		t.Errorf("ModelYearColumn = %q, want yeartxt", r.ModelYearColumn)
	}
	if r.ModelYearOutOfRange == nil || *r.ModelYearOutOfRange != 0 {
		t.Error("ModelYearOutOfRange: want 0 (9999 is the unknown-year sentinel)")
	}
}

/*
TestCollect_MissingRequired verifies the missing-required error and the
present-expected accounting.
*/
func TestCollect_MissingRequired(t *testing.T) {
	b := testBuilder(t)
	ds := records.New()
	ds.AddTextColumn("cmplid", []string{"C1"})
	ds.AddTextColumn("odino", []string{"1"})
	ds.AddTextColumn("faildate", []string{"20230101"})
	ds.AddTextColumn("crash", []string{"Y"})
	// yeartxt missing

	r := b.Collect(ds, "cmpl", "complaints")
	if len(r.MissingColumns) != 1 || r.MissingColumns[0] != "yeartxt" {
		t.Fatalf("MissingColumns = %v, want [yeartxt]", r.MissingColumns)
	}
	if !hasMessage(r.Errors, "Missing required columns for complaints") {
		t.Errorf("Errors = %v, want missing-required error", r.Errors)
	}
	if *r.ExpectedColumns != 5 || *r.PresentExpected != 4 {
		t.Errorf("expected/present = %d/%d, want 5/4", *r.ExpectedColumns, *r.PresentExpected)
	}
}

/*
TestCollect_FieldFindings verifies severity translation: non-numeric and
invalid dates are errors; unexpected extras, order drift, and enum violations
are warnings.
*/
func TestCollect_FieldFindings(t *testing.T) {
	b := testBuilder(t)
	ds := records.New()
	// Order deliberately differs: odino before cmplid.
	ds.AddTextColumn("odino", []string{"abc", "2"})
	ds.AddTextColumn("cmplid", []string{"C1", "C2"})
	ds.AddTextColumn("faildate", []string{"99999999", "20230101"})
	ds.AddTextColumn("crash", []string{"X", "N"})
	ds.AddTextColumn("yeartxt", []string{"1492", "2020"})
	ds.AddTextColumn("mystery", []string{"1", "2"})

	r := b.Collect(ds, "cmpl", "")

	if !hasMessage(r.Errors, "odino: 1 non-numeric values") {
		t.Errorf("Errors = %v, want odino non-numeric error", r.Errors)
	}
	if !hasMessage(r.Errors, "faildate: 1 invalid YYYYMMDD date values") {
		t.Errorf("Errors = %v, want faildate invalid date error", r.Errors)
	}
	if !hasMessage(r.Warnings, "Unexpected extra columns") {
		t.Errorf("Warnings = %v, want unexpected-extra warning", r.Warnings)
	}
	if !hasMessage(r.Warnings, "column order differs") {
		t.Errorf("Warnings = %v, want order warning", r.Warnings)
	}
	if !hasMessage(r.Warnings, "crash: 1 values outside documented codes") {
		t.Errorf("Warnings = %v, want enum warning", r.Warnings)
	}
	if !hasMessage(r.Warnings, "yeartxt: 1 values outside expected range") {
		t.Errorf("Warnings = %v, want model-year warning", r.Warnings)
	}

	if r.IssueTotals.NonNumeric != 1 || r.IssueTotals.DateInvalid != 1 || r.IssueTotals.EnumInvalid != 1 {
		t.Errorf("IssueTotals = %+v", r.IssueTotals)
	}
}

/*
TestCollect_NoMatch verifies the unmatched outcome: empty schema name, a
warning, and structural diagnostics still present.
*/
func TestCollect_NoMatch(t *testing.T) {
	b := testBuilder(t)
	ds := records.New()
	ds.AddTextColumn("alpha", []string{"1", "1"})
	ds.AddTextColumn("beta", []string{"x", "x"})

	r := b.Collect(ds, "mystery", "")
	if r.SchemaName != "" {
		t.Fatalf("SchemaName = %q, want empty", r.SchemaName)
	}
	if !hasMessage(r.Warnings, "Could not confidently match") {
		t.Errorf("Warnings = %v, want no-match warning", r.Warnings)
	}
	if r.DuplicateRows == nil || *r.DuplicateRows != 1 {
		t.Error("DuplicateRows: want 1 for the repeated row")
	}
	if r.ExpectedColumns != nil {
		t.Error("ExpectedColumns: want nil when no schema applied")
	}
}

/*
TestCollect_UnavailableExplicit verifies that explicitly requesting a schema
the catalog cannot serve records a warning instead of running field checks.
*/
func TestCollect_UnavailableExplicit(t *testing.T) {
	b := testBuilder(t)
	ds := records.New()
	ds.AddTextColumn("cmplid", []string{"C1"})

	r := b.Collect(ds, "cmpl", "investigations")
	if !hasMessage(r.Warnings, "Schema 'investigations' requested but not available") {
		t.Errorf("Warnings = %v, want unavailable warning", r.Warnings)
	}
	if len(r.FieldChecks) != 0 {
		t.Errorf("FieldChecks = %v, want none", r.FieldChecks)
	}
}

/*
TestCollect_LengthOverride verifies the legacy length override: overflow
against the documented size downgrades to a warning when the override allows
longer values.
*/
func TestCollect_LengthOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RCL.txt")
	doc := "FIELDS:\n1  FMVSS  CHAR(3)  STANDARD NUMBER\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cat := catalog.New([]catalog.Registration{
		{
			Name:            "recalls",
			DocPath:         path,
			LengthOverrides: map[string]int{"fmvss": 6},
		},
	})
	b := &Builder{Catalog: cat}

	ds := records.New()
	ds.AddTextColumn("fmvss", []string{"1234", "1234567"})

	r := b.Collect(ds, "rcl", "recalls")
	if len(r.Errors) != 0 {
		t.Errorf("Errors = %v, want none (override downgrades)", r.Errors)
	}
	if !hasMessage(r.Warnings, "allowed legacy max 6") {
		t.Errorf("Warnings = %v, want legacy-length warning", r.Warnings)
	}
	fc := r.FieldChecks["fmvss"]
	if fc == nil || fc.CharLength == nil || fc.CharLength.TooLongCount != 1 {
		t.Fatalf("FieldChecks[fmvss] = %+v, want one overflow against the override", fc)
	}
}

func hasMessage(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
