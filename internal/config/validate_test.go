package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

/*
TestValidate_MissingJob verifies that a missing or empty Job field produces a
SeverityError with path "job".
*/
func TestValidate_MissingJob(t *testing.T) {
	cfg := Default()
	cfg.Job = ""

	issues := Validate(cfg)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
}

/*
TestValidate_Schemas verifies the schema-list rules: non-empty list, unique
names, doc_file present, and a warning for undiscoverable schemas.
*/
func TestValidate_Schemas(t *testing.T) {
	cfg := Default()
	cfg.Schemas = nil
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityError, "schemas", "no schemas configured") {
		t.Errorf("empty list: issues = %+v", issues)
	}

	cfg = Default()
	cfg.Schemas = append(cfg.Schemas, SchemaConfig{
		Name:         "complaints",
		DocFile:      "CMPL.txt",
		ExpectedZips: []string{"x.zip"},
	})
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityError, "schemas[2].name", "duplicate schema name") {
		t.Errorf("duplicate name: issues = %+v", issues)
	}

	cfg = Default()
	cfg.Schemas[0].DocFile = ""
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityError, "schemas[0].doc_file", "doc_file must not be empty") {
		t.Errorf("missing doc_file: issues = %+v", issues)
	}

	cfg = Default()
	cfg.Schemas[0].ExpectedZips = nil
	cfg.Schemas[0].IncludeTerms = nil
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityWarning, "schemas[0]", "no bundles will be discovered") {
		t.Errorf("undiscoverable schema: issues = %+v", issues)
	}

	cfg = Default()
	cfg.Schemas[1].LengthOverrides = map[string]int{"fmvss": 0}
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityError, "schemas[1].length_overrides.fmvss", "must be positive") {
		t.Errorf("bad length override: issues = %+v", issues)
	}
}

/*
TestValidate_Storage verifies that a file-only run passes while a configured
backend requires a DSN and a known kind.
*/
func TestValidate_Storage(t *testing.T) {
	cfg := Default()
	if issues := Validate(cfg); len(issues) != 0 {
		t.Errorf("file-only run: issues = %+v", issues)
	}

	cfg.Storage = Storage{Kind: "postgres"}
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityError, "storage.db.dsn", "must not be empty") {
		t.Errorf("missing DSN: issues = %+v", issues)
	}

	cfg.Storage = Storage{Kind: "oracle", DB: DBConfig{DSN: "x"}}
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityWarning, "storage.kind", "unknown storage kind") {
		t.Errorf("unknown kind: issues = %+v", issues)
	}
}

func TestValidate_Runtime(t *testing.T) {
	cfg := Default()
	cfg.Runtime.ZipWorkers = -1
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityError, "runtime.zip_workers", "must not be negative") {
		t.Errorf("negative workers: issues = %+v", issues)
	}
}

func TestValidate_OutputFormat(t *testing.T) {
	cfg := Default()
	cfg.OutputFormat = "parquet"
	if issues := Validate(cfg); !hasIssue(t, issues, SeverityError, "output_format", "unknown output format") {
		t.Errorf("unknown format: issues = %+v", issues)
	}
}
