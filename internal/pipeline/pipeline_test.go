package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"odietl/internal/catalog"
	"odietl/internal/config"
)

const complaintsDoc = `FIELDS:
1  CMPLID    CHAR(9)    COMPLAINT ID
2  ODINO     NUMBER(9)  ODI NUMBER
3  FAILDATE  CHAR(8)    FAILURE DATE (YYYYMMDD)
`

// setupRun builds a root with one zipped complaints bundle and its schema
// document, mirroring the on-disk layout a real run sees.
func setupRun(t *testing.T) (config.Config, *catalog.Catalog) {
	t.Helper()
	root := t.TempDir()

	docsDir := filepath.Join(root, "docs")
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docsDir, "CMPL.txt"), []byte(complaintsDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	rawDir := filepath.Join(root, "data", "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeBundle(t, filepath.Join(rawDir, "FLAT_CMPL.zip"), "CMPL.txt",
		"C1\t100001\t20230101\n"+
			"C2\t100002\t00000000\n"+
			"C3\tbroken row\n"+ // short: skipped by the reader
			"C3\t100003\t20230215\n")

	cfg := config.Config{
		Job:            "test",
		DataDir:        filepath.Join(root, "data"),
		DocsDir:        docsDir,
		OutputFormat:   "csv",
		CombineOutputs: true,
		Schemas: []config.SchemaConfig{
			{
				Name:         "complaints",
				DocFile:      "CMPL.txt",
				ExpectedZips: []string{"FLAT_CMPL.zip"},
			},
		},
	}
	return cfg, catalog.New(cfg.Registrations())
}

func writeBundle(t *testing.T, zipPath, member, content string) {
	t.Helper()
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	mw, err := w.Create(member)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

/*
TestRun verifies a full file-only run: extraction, reading with schema
columns, validation, processed + combined outputs, and the manifest.
*/
func TestRun(t *testing.T) {
	cfg, cat := setupRun(t)

	var out bytes.Buffer
	res, err := Run(context.Background(), Options{
		Config:  cfg,
		Catalog: cat,
		Out:     &out,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID: want non-empty")
	}

	if len(res.Manifest) != 1 {
		t.Fatalf("manifest rows = %d, want 1", len(res.Manifest))
	}
	m := res.Manifest[0]
	if m.SourceZip != "FLAT_CMPL.zip" || m.SourceFile != "CMPL.txt" {
		t.Errorf("manifest provenance = %s/%s", m.SourceZip, m.SourceFile)
	}
	if m.Rows != 3 || m.SkippedRows != 1 {
		t.Errorf("manifest rows/skipped = %d/%d, want 3/1", m.Rows, m.SkippedRows)
	}
	if m.SchemaName != "complaints" || m.ReportErrors != 0 {
		t.Errorf("manifest schema=%q errors=%d", m.SchemaName, m.ReportErrors)
	}

	if len(res.Summaries) != 1 || res.Summaries[0].SchemaName != "complaints" {
		t.Errorf("summaries = %+v", res.Summaries)
	}

	report := out.String()
	if !strings.Contains(report, "[schema] FLAT_CMPL/CMPL.txt") {
		t.Errorf("report output missing dataset header:\n%s", report)
	}
	if !strings.Contains(report, "schema: complaints") {
		t.Errorf("report output missing schema line:\n%s", report)
	}

	processed := filepath.Join(cfg.ProcessedDir(), "complaints", "CMPL.csv")
	if _, err := os.Stat(processed); err != nil {
		t.Errorf("processed output missing: %v", err)
	}
	combined := filepath.Join(cfg.ProcessedDir(), "complaints", "complaints_combined.csv")
	if _, err := os.Stat(combined); err != nil {
		t.Errorf("combined output missing: %v", err)
	}

	b, err := os.ReadFile(processed)
	if err != nil {
		t.Fatal(err)
	}
	head := strings.SplitN(string(b), "\n", 2)[0]
	if head != "cmplid,odino,faildate,source_zip,source_file" {
		t.Errorf("processed header = %q", head)
	}

	manifests, _ := filepath.Glob(filepath.Join(cfg.ProcessedDir(), "manifest_*.csv"))
	if len(manifests) != 1 {
		t.Errorf("manifest files = %v, want exactly one", manifests)
	}
}

/*
TestRun_SchemaFilter verifies that the Schemas option restricts the run.
*/
func TestRun_SchemaFilter(t *testing.T) {
	cfg, cat := setupRun(t)

	var out bytes.Buffer
	res, err := Run(context.Background(), Options{
		Config:  cfg,
		Catalog: cat,
		Out:     &out,
		Schemas: []string{"recalls"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Manifest) != 0 {
		t.Errorf("manifest rows = %d, want 0 for a filtered-out schema", len(res.Manifest))
	}
}
