package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"odietl/internal/catalog"
	"odietl/internal/config"
	"odietl/internal/metrics"
	"odietl/internal/metrics/datadog"
	"odietl/internal/metrics/prompush"
	"odietl/internal/pipeline"
	"odietl/internal/storage"
	"odietl/internal/storage/postgres"
	"odietl/internal/storage/sqlite"
)

// main is the entry point for the ingest binary. It loads the configuration,
// optionally initializes a metrics backend and a storage sink, and executes
// the run.
func main() {
	var (
		cfgPath           string
		dataDir           string
		docsDir           string
		outputFormat      string
		schemaFlg         string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		overwrite         bool
		noCombine         bool
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "config JSON path (empty = built-in defaults)")
	flag.StringVar(&dataDir, "data-dir", "", "override data directory (zip bundles under <data-dir>/raw)")
	flag.StringVar(&docsDir, "docs-dir", "", "override schema documents directory")
	flag.StringVar(&outputFormat, "output-format", "", "processed output format (csv)")
	flag.StringVar(&schemaFlg, "schema", "", "restrict the run to one schema (e.g. complaints)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&overwrite, "overwrite-extracted", false, "re-extract zip members that already exist")
	flag.BoolVar(&noCombine, "no-combine", false, "skip the combined per-schema output")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	// Flags override the file.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if docsDir != "" {
		cfg.DocsDir = docsDir
	}
	if outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}
	if overwrite {
		cfg.OverwriteExtracted = true
	}
	if noCombine {
		cfg.CombineOutputs = false
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(cfg.Job, metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()

	repo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		fatalf("storage: %v", err)
	}
	if repo != nil {
		defer repo.Close()
	}

	var only []string
	if schemaFlg != "" {
		only = strings.Split(schemaFlg, ",")
	}

	start := time.Now()
	cat := catalog.New(cfg.Registrations())
	res, err := pipeline.Run(ctx, pipeline.Options{
		Config:     cfg,
		Catalog:    cat,
		Repository: repo,
		Schemas:    only,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("run %s: %d file(s) processed in %s",
			res.RunID, len(res.Manifest), time.Since(start).Truncate(time.Millisecond))
	}
}

// setupMetrics decides the metrics backend: flag → env → default.
func setupMetrics(job, backendName, gwURL, ddAddr string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	if job == "" {
		job = "odietl"
	}

	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, job)
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DOGSTATSD_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: ddAddr, Namespace: "odietl."})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", ddAddr, backendName, job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// openRepository builds the configured storage sink; nil means file-only.
func openRepository(ctx context.Context, s config.Storage) (storage.Repository, error) {
	switch s.Kind {
	case "":
		return nil, nil
	case "sqlite":
		return sqlite.NewRepository(ctx, sqlite.Config{DSN: s.DB.DSN})
	case "postgres":
		return postgres.NewRepository(ctx, postgres.Config{DSN: s.DB.DSN})
	default:
		return nil, fmt.Errorf("unknown storage kind %q", s.Kind)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
