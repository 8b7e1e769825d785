// Package pipeline orchestrates a full ingest run: discover zip bundles,
// extract, read the flat files, preprocess, validate against the schema
// catalog, and write processed output plus the run manifest. Zip bundles are
// processed concurrently; the catalog guards its own first build, so sharing
// it across workers is safe.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"odietl/internal/archive"
	"odietl/internal/catalog"
	"odietl/internal/config"
	"odietl/internal/metrics"
	"odietl/internal/parser/tabular"
	"odietl/internal/report"
	"odietl/internal/storage"
	"odietl/internal/writer"
	"odietl/pkg/records"
)

// Options configures a run.
type Options struct {
	Config  config.Config
	Catalog *catalog.Catalog

	// Repository is the optional bookkeeping sink; nil means file-only.
	Repository storage.Repository

	// Out receives rendered conformance reports. Defaults to os.Stdout.
	Out io.Writer

	// Schemas restricts the run to the named schemas. Empty means all
	// configured schemas.
	Schemas []string
}

// Result summarizes a completed run.
type Result struct {
	RunID     string
	Manifest  []writer.ManifestRow
	Summaries []storage.Summary
}

// Run executes the ingest for every selected schema and returns the run
// summary. Per-file validation findings never fail the run; only I/O and
// configuration problems do.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	runID := uuid.NewString()
	res := &Result{RunID: runID}
	builder := &report.Builder{Catalog: opts.Catalog}

	for _, sc := range cfg.Schemas {
		if !selected(sc.Name, opts.Schemas) {
			continue
		}
		if err := runSchema(ctx, opts, builder, sc, runID, out, res); err != nil {
			return res, err
		}
	}

	if err := writeManifest(cfg, runID, res.Manifest); err != nil {
		return res, err
	}

	if opts.Repository != nil {
		if err := opts.Repository.SaveManifest(ctx, res.Manifest); err != nil {
			return res, fmt.Errorf("save manifest: %w", err)
		}
		if err := opts.Repository.SaveSummaries(ctx, res.Summaries); err != nil {
			return res, fmt.Errorf("save summaries: %w", err)
		}
	}
	return res, nil
}

// runSchema processes every discovered bundle of one schema, fanning out over
// zips. Per-zip results land in a fixed slot each, so the merge after Wait
// needs no locking and keeps discovery order.
func runSchema(ctx context.Context, opts Options, builder *report.Builder, sc config.SchemaConfig, runID string, out io.Writer, res *Result) error {
	cfg := opts.Config

	zips, err := archive.DiscoverZips(cfg.RawDir(), sc.ExpectedZips, sc.IncludeTerms)
	if err != nil {
		return fmt.Errorf("discover bundles for %s: %w", sc.Name, err)
	}
	if len(zips) == 0 {
		log.Printf("[discover] %s: no bundles found under %s", sc.Name, cfg.RawDir())
		return nil
	}
	log.Printf("[discover] %s: %d bundle(s)", sc.Name, len(zips))

	outputs := make([]*zipResult, len(zips))

	g, gctx := errgroup.WithContext(ctx)
	if w := cfg.Runtime.ZipWorkers; w > 0 {
		g.SetLimit(w)
	}
	for i, zipPath := range zips {
		g.Go(func() error {
			start := time.Now()
			o, err := processZip(gctx, opts, builder, sc, runID, zipPath)
			metrics.RecordStep(cfg.Job, "process_zip", err, time.Since(start))
			if err != nil {
				return err
			}
			outputs[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var combined *records.Dataset
	for _, o := range outputs {
		if o == nil {
			continue
		}
		for _, text := range o.reports {
			io.WriteString(out, text)
		}
		res.Manifest = append(res.Manifest, o.manifest...)
		res.Summaries = append(res.Summaries, o.summaries...)
		if cfg.CombineOutputs {
			for _, ds := range o.datasets {
				if combined == nil {
					combined = ds
				} else {
					combined.Append(ds)
				}
			}
		}
	}

	if cfg.CombineOutputs && combined != nil {
		combined.Fill()
		path := filepath.Join(cfg.ProcessedDir(), sc.Name, writer.SanitizeName(sc.Name)+"_combined.csv")
		if err := writer.WriteCSV(combined, path); err != nil {
			return fmt.Errorf("write combined output for %s: %w", sc.Name, err)
		}
		log.Printf("[write] %s: combined output %s (%d rows)", sc.Name, path, combined.Rows())
	}
	return nil
}

func processZip(ctx context.Context, opts Options, builder *report.Builder, sc config.SchemaConfig, runID, zipPath string) (o *zipResult, err error) {
	cfg := opts.Config
	zipBase := filepath.Base(zipPath)
	targetDir := filepath.Join(cfg.ExtractedDir(), stem(zipBase))

	extracted, err := archive.Extract(zipPath, targetDir, cfg.OverwriteExtracted)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", zipBase, err)
	}
	files := archive.TabularCandidates(extracted)
	log.Printf("[extract] %s: %d file(s), %d tabular", zipBase, len(extracted), len(files))

	columns, err := opts.Catalog.Columns(sc.Name)
	if err != nil {
		return nil, fmt.Errorf("schema columns for %s: %w", sc.Name, err)
	}

	o = &zipResult{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := processFile(opts, builder, sc, runID, zipBase, file, columns, o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

type zipResult struct {
	manifest  []writer.ManifestRow
	summaries []storage.Summary
	datasets  []*records.Dataset
	reports   []string
}

// processFile reads, preprocesses, validates, and writes one extracted file.
func processFile(opts Options, builder *report.Builder, sc config.SchemaConfig, runID, zipBase, file string, columns []string, o *zipResult) error {
	cfg := opts.Config
	fileBase := filepath.Base(file)
	datasetName := stem(zipBase) + "/" + fileBase

	ds, skipped, err := tabular.ReadFile(file, tabular.Options{ColumnNames: columns})
	if err != nil {
		return fmt.Errorf("read %s: %w", fileBase, err)
	}
	metrics.RecordRow(cfg.Job, "rows_read", int64(ds.Rows()))
	metrics.RecordRow(cfg.Job, "rows_skipped", int64(skipped))
	if skipped > 0 {
		log.Printf("[read] %s: %d row(s) skipped", datasetName, skipped)
	}

	tabular.Preprocess(ds)
	addProvenance(ds, zipBase, fileBase)

	r := builder.Collect(ds, datasetName, sc.Name)
	o.reports = append(o.reports, report.RenderString(r))
	metrics.RecordRow(cfg.Job, "report_errors", int64(len(r.Errors)))
	metrics.RecordRow(cfg.Job, "report_warnings", int64(len(r.Warnings)))
	metrics.RecordDataset(cfg.Job, 1)

	outPath := filepath.Join(cfg.ProcessedDir(), sc.Name, writer.SanitizeName(stem(fileBase))+".csv")
	if err := writer.WriteCSV(ds, outPath); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	metrics.RecordRow(cfg.Job, "rows_written", int64(ds.Rows()))

	o.manifest = append(o.manifest, writer.ManifestRow{
		RunID:           runID,
		SourceZip:       zipBase,
		SourceFile:      fileBase,
		Rows:            ds.Rows(),
		Columns:         ds.Cols(),
		SkippedRows:     skipped,
		SchemaName:      r.SchemaName,
		ReportErrors:    len(r.Errors),
		ReportWarnings:  len(r.Warnings),
		ProcessedOutput: outPath,
	})
	o.summaries = append(o.summaries, storage.NewSummary(runID, r))
	if cfg.CombineOutputs {
		o.datasets = append(o.datasets, ds)
	}
	return nil
}

// addProvenance appends the source_zip and source_file columns.
func addProvenance(ds *records.Dataset, zipBase, fileBase string) {
	n := ds.Rows()
	zipCol := make([]string, n)
	fileCol := make([]string, n)
	for i := range zipCol {
		zipCol[i] = zipBase
		fileCol[i] = fileBase
	}
	ds.AddTextColumn("source_zip", zipCol)
	ds.AddTextColumn("source_file", fileCol)
}

func writeManifest(cfg config.Config, runID string, rows []writer.ManifestRow) error {
	if len(rows) == 0 {
		return nil
	}
	path := filepath.Join(cfg.ProcessedDir(), "manifest_"+runID+".csv")
	if err := writer.WriteManifest(rows, path); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	log.Printf("[manifest] %d row(s) -> %s", len(rows), path)
	return nil
}

func selected(name string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, s := range only {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

func stem(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}
