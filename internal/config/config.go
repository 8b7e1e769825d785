// Package config defines the canonical, JSON-serializable configuration model
// for the ingest application. It is intentionally small, explicit, and
// decodable by the standard library so that runs can be loaded from disk and
// passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in config
//     files.
//  3. Defaults: a zero config file still describes the two built-in datasets
//     (complaints, recalls); a config file only overrides what it names.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"odietl/internal/catalog"
	"odietl/internal/schemadoc"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job names the run for metrics labeling and manifest rows.
	Job string `json:"job"`

	// DataDir holds the downloaded zip bundles and receives extracted and
	// processed output under raw/, extracted/ and processed/.
	DataDir string `json:"data_dir"`

	// DocsDir holds the schema documents (CMPL.txt, RCL.txt, ...).
	DocsDir string `json:"docs_dir"`

	// OutputFormat selects the processed-output writer. Current value: "csv".
	OutputFormat string `json:"output_format"`

	// OverwriteExtracted re-extracts zip members that already exist on disk.
	OverwriteExtracted bool `json:"overwrite_extracted"`

	// CombineOutputs concatenates the per-file datasets of a schema into one
	// combined output per schema.
	CombineOutputs bool `json:"combine_outputs"`

	// Schemas lists the datasets to ingest, in registration order. The order
	// is meaningful: schema detection breaks score ties toward the earlier
	// entry. Empty means the built-in defaults.
	Schemas []SchemaConfig `json:"schemas"`

	// Storage optionally configures a database sink for the manifest and
	// report summaries. Empty kind means file-only output.
	Storage Storage `json:"storage"`

	Runtime RuntimeConfig `json:"runtime"`
}

// SchemaConfig describes one dataset: where its bundles and schema document
// live and how the document parser and validators should be adjusted.
type SchemaConfig struct {
	// Name is the schema key, e.g. "complaints".
	Name string `json:"name"`

	// DocFile is the schema document file name under DocsDir.
	DocFile string `json:"doc_file"`

	// ExpectedZips are exact bundle file names looked up first under
	// DataDir/raw; IncludeTerms is the substring fallback match.
	ExpectedZips []string `json:"expected_zips"`
	IncludeTerms []string `json:"include_terms"`

	// OptionalColumns may be absent from data files without an error.
	OptionalColumns []string `json:"optional_columns"`

	// DateColumns force is_date on fields whose description does not mention
	// the YYYYMMDD format.
	DateColumns []string `json:"date_columns"`

	// EnumOverrides replace a field's harvested codes wholesale.
	EnumOverrides map[string][]string `json:"enum_overrides"`

	// LengthOverrides permit legacy values longer than the documented field
	// size without a hard error.
	LengthOverrides map[string]int `json:"length_overrides"`
}

// Storage selects the sink used to persist run bookkeeping.
type Storage struct {
	// Kind selects the storage implementation: "sqlite", "postgres", or empty
	// for none.
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the DB sink shared across backends.
type DBConfig struct {
	// DSN is the connection string for the selected driver.
	DSN string `json:"dsn"`
}

// RuntimeConfig controls concurrency.
type RuntimeConfig struct {
	// ZipWorkers bounds how many zip bundles are processed concurrently.
	// Zero means one worker per zip.
	ZipWorkers int `json:"zip_workers"`
}

// Default returns the built-in configuration covering the two published ODI
// datasets. Callers typically layer a config file on top via Load.
func Default() Config {
	return Config{
		Job:            "odietl",
		DataDir:        "data",
		DocsDir:        "docs",
		OutputFormat:   "csv",
		CombineOutputs: true,
		Schemas: []SchemaConfig{
			{
				Name:         "complaints",
				DocFile:      "CMPL.txt",
				ExpectedZips: []string{"FLAT_CMPL.zip"},
				IncludeTerms: []string{"cmpl", "complaint"},
				DateColumns:  []string{"faildate", "datea", "ldate", "purch_dt", "manuf_dt"},
			},
			{
				Name:            "recalls",
				DocFile:         "RCL.txt",
				ExpectedZips:    []string{"FLAT_RCL.zip"},
				IncludeTerms:    []string{"rcl", "recall"},
				OptionalColumns: []string{"do_not_drive", "park_outside"},
				DateColumns:     []string{"bgman", "endman", "odate", "rcdate", "datea"},
				EnumOverrides: map[string][]string{
					"influenced_by": {"MFR", "OVSC", "ODI"},
				},
				LengthOverrides: map[string]int{"fmvss": 6},
			},
		},
	}
}

// Load decodes the config file at path over the defaults. Fields absent from
// the file keep their default values; a non-empty schemas list replaces the
// default list wholesale.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if len(cfg.Schemas) == 0 {
		cfg.Schemas = Default().Schemas
	}
	return cfg, nil
}

// Registrations converts the configured schemas into catalog registrations,
// resolving document paths against DocsDir. Order is preserved.
func (c Config) Registrations() []catalog.Registration {
	regs := make([]catalog.Registration, 0, len(c.Schemas))
	for _, s := range c.Schemas {
		regs = append(regs, catalog.Registration{
			Name:    s.Name,
			DocPath: filepath.Join(c.DocsDir, s.DocFile),
			Overrides: schemadoc.Overrides{
				OptionalColumns: s.OptionalColumns,
				DateColumns:     s.DateColumns,
			},
			EnumOverrides:   s.EnumOverrides,
			LengthOverrides: s.LengthOverrides,
		})
	}
	return regs
}

// Schema returns the schema config with the given name.
func (c Config) Schema(name string) (SchemaConfig, bool) {
	for _, s := range c.Schemas {
		if s.Name == name {
			return s, true
		}
	}
	return SchemaConfig{}, false
}

// RawDir is where input zip bundles are discovered.
func (c Config) RawDir() string { return filepath.Join(c.DataDir, "raw") }

// ExtractedDir receives unpacked zip members, one subdirectory per bundle.
func (c Config) ExtractedDir() string { return filepath.Join(c.DataDir, "extracted") }

// ProcessedDir receives processed outputs and the run manifest.
func (c Config) ProcessedDir() string { return filepath.Join(c.DataDir, "processed") }
