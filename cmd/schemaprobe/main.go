package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"odietl/internal/catalog"
	"odietl/internal/config"
	"odietl/internal/parser/tabular"
	"odietl/internal/report"
	"odietl/internal/schemadoc"
)

// main is the entrypoint for the schema probing CLI. With only -doc it parses
// a single schema document and prints the derived field table. With -file it
// additionally reads the data file, runs the conformance report against the
// configured catalog, and prints it.
//
// Intended for eyeballing a new or changed schema document before wiring it
// into an ingest run.
func main() {
	var (
		flagDoc = flag.String(
			"doc",
			"",
			"Path to a schema document (e.g. docs/CMPL.txt); parsed and printed standalone",
		)
		flagFile = flag.String(
			"file",
			"",
			"Path to a data file to validate; requires -config or the built-in defaults",
		)
		flagSchema = flag.String(
			"schema",
			"",
			"Explicit schema name for -file validation; empty auto-detects",
		)
		flagConfig = flag.String(
			"config",
			"",
			"Config JSON path (empty = built-in defaults)",
		)
		flagDocsDir = flag.String(
			"docs-dir",
			"",
			"Override schema documents directory",
		)
		flagDelim = flag.String(
			"delimiter",
			"",
			"Data file delimiter override (tab, pipe, comma); empty sniffs",
		)
		flagHeader = flag.Bool(
			"header",
			false,
			"Data file carries a header row (the published flat files do not)",
		)
	)
	flag.Parse()

	if *flagDoc == "" && *flagFile == "" {
		fmt.Fprintln(os.Stderr, "one of -doc or -file is required")
		flag.Usage()
		os.Exit(2)
	}

	if *flagDoc != "" {
		if err := probeDoc(*flagDoc); err != nil {
			fatalf("%v", err)
		}
	}

	if *flagFile != "" {
		if err := probeFile(*flagFile, *flagSchema, *flagConfig, *flagDocsDir, *flagDelim, *flagHeader); err != nil {
			fatalf("%v", err)
		}
	}
}

// probeDoc parses one schema document standalone and prints the field table.
func probeDoc(path string) error {
	spec, err := schemadoc.ParseFile(path, "probe", schemadoc.Overrides{})
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d field(s)\n", path, len(spec.Fields))
	for _, f := range spec.Fields {
		flags := make([]string, 0, 2)
		if f.IsDate {
			flags = append(flags, "date")
		}
		if f.IsYesNo {
			flags = append(flags, "y/n")
		}
		extra := ""
		if len(flags) > 0 {
			extra = " [" + strings.Join(flags, ",") + "]"
		}
		fmt.Printf("  %3d  %-22s %s(%d)%s", f.Index, f.Name, f.Kind, f.Size, extra)
		if len(f.AllowedCodes) > 0 {
			fmt.Printf("  codes=%d", len(f.AllowedCodes))
		}
		fmt.Println()
	}
	return nil
}

// probeFile validates one data file against the configured catalog and prints
// the conformance report.
func probeFile(path, schema, cfgPath, docsDir, delim string, hasHeader bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if docsDir != "" {
		cfg.DocsDir = docsDir
	}

	cat := catalog.New(cfg.Registrations())

	opt := tabular.Options{HasHeader: hasHeader}
	switch delim {
	case "":
	case "tab":
		opt.Delimiter = '\t'
	case "pipe":
		opt.Delimiter = '|'
	case "comma":
		opt.Delimiter = ','
	default:
		return fmt.Errorf("unknown delimiter %q (tab, pipe, comma)", delim)
	}

	// Headerless files take their column names from the schema doc; that
	// needs an explicit or detectable schema, so try the explicit one first.
	if !hasHeader && schema != "" {
		cols, err := cat.Columns(schema)
		if err != nil {
			return err
		}
		opt.ColumnNames = cols
	}

	ds, skipped, err := tabular.ReadFile(path, opt)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "%s: %d row(s) skipped\n", path, skipped)
	}
	tabular.Preprocess(ds)

	builder := &report.Builder{Catalog: cat}
	r := builder.Collect(ds, path, schema)
	report.Render(os.Stdout, r)
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
