// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a decoded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Config.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "schemas[1].doc_file"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation / linting of a Config.
//
// It does not mutate the config. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	if strings.TrimSpace(c.DataDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "data_dir",
			Message:  "data_dir must not be empty",
		})
	}
	if strings.TrimSpace(c.DocsDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "docs_dir",
			Message:  "docs_dir must not be empty; schema documents cannot be located",
		})
	}

	switch c.OutputFormat {
	case "", "csv":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output_format",
			Message:  fmt.Sprintf("unknown output format %q; supported: csv", c.OutputFormat),
		})
	}

	issues = append(issues, validateSchemas(c.Schemas)...)
	issues = append(issues, validateStorage(c.Storage)...)
	issues = append(issues, validateRuntime(c.Runtime)...)

	return issues
}

// validateSchemas validates the schema registration list.
func validateSchemas(schemas []SchemaConfig) []Issue {
	var issues []Issue

	if len(schemas) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schemas",
			Message:  "no schemas configured; nothing to ingest",
		})
		return issues
	}

	seen := map[string]struct{}{}
	for i, s := range schemas {
		path := fmt.Sprintf("schemas[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  "schema name must not be empty",
			})
			continue
		}
		if _, dup := seen[s.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("duplicate schema name %q; registration order is the detection tie-break and must be unambiguous", s.Name),
			})
		}
		seen[s.Name] = struct{}{}

		if strings.TrimSpace(s.DocFile) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".doc_file",
				Message:  "doc_file must not be empty; the schema document drives all field checks",
			})
		}
		if len(s.ExpectedZips) == 0 && len(s.IncludeTerms) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  "neither expected_zips nor include_terms set; no bundles will be discovered for this schema",
			})
		}
		for field, max := range s.LengthOverrides {
			if max <= 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("%s.length_overrides.%s", path, field),
					Message:  fmt.Sprintf("length override must be positive, got %d", max),
				})
			}
		}
	}

	return issues
}

// validateStorage validates storage configuration and DB settings.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		// File-only run; nothing to check.
		return issues
	}

	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty when a storage kind is set",
		})
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ZipWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.zip_workers",
			Message:  "zip_workers must not be negative",
		})
	}

	return issues
}
