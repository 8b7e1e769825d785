// Package tabular reads the flat files extracted from dataset bundles into a
// records.Dataset. It sniffs the delimiter from a small sample, tolerates
// Latin-1 and stray bytes via lossy decoding, and soft-fails malformed rows
// (they are skipped and counted, never fatal).
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"odietl/internal/schemadoc"
	"odietl/pkg/records"
)

// sniffSampleSize is how many bytes of the file feed delimiter detection.
const sniffSampleSize = 8000

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// candidateDelimiters in preference order for tie-breaks; tab is the default
// when nothing scores.
var candidateDelimiters = []rune{'\t', '|', ','}

// Options configures a read. All fields are optional.
type Options struct {
	// HasHeader indicates the first row carries column names, which are then
	// normalized to the canonical slug form.
	HasHeader bool

	// ColumnNames supplies names for headerless files (the published data
	// files carry no header row; names come from the schema doc).
	ColumnNames []string

	// Delimiter overrides sniffing when non-zero.
	Delimiter rune
}

// DetectDelimiter guesses the field delimiter from the first sniffSampleSize
// bytes. The first non-blank line (usually the least chaotic place to look)
// is scored first; the whole sample is the fallback, then tab.
func DetectDelimiter(path string) rune {
	f, err := os.Open(path)
	if err != nil {
		return '\t'
	}
	defer f.Close()

	buf := make([]byte, sniffSampleSize)
	n, _ := io.ReadFull(f, buf)
	sample := schemadoc.DecodeLossy(buf[:n])

	var header string
	for _, line := range strings.Split(sample, "\n") {
		if strings.TrimSpace(line) != "" {
			header = line
			break
		}
	}
	if header == "" {
		header = sample
	}

	if d, ok := bestDelimiter(header); ok {
		return d
	}
	if d, ok := bestDelimiter(sample); ok {
		return d
	}
	return '\t'
}

func bestDelimiter(text string) (rune, bool) {
	best, bestCount := '\t', 0
	for _, d := range candidateDelimiters {
		if c := strings.Count(text, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best, bestCount > 0
}

// ReadFile reads the file at path into a Dataset. The delimiter is sniffed
// unless opt.Delimiter is set. Returns the dataset and the number of rows
// skipped for parse errors or width mismatches.
func ReadFile(path string, opt Options) (*records.Dataset, int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = DetectDelimiter(path)
	}
	return Read(strings.NewReader(schemadoc.DecodeLossy(b)), opt)
}

// Read parses delimiter-separated text into a column-major Dataset. Rows
// whose field count differs from the header (or ColumnNames) width are
// skipped and counted; extra columns beyond the known names get synthetic
// col_N names.
func Read(r io.Reader, opt Options) (*records.Dataset, int, error) {
	cr := csv.NewReader(r)
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var names []string
	if opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("read header: %w", err)
		}
		names = normalizeHeaders(h)
	} else {
		names = append(names, opt.ColumnNames...)
	}

	columns := make([][]string, len(names))
	var skipped int

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(names) > 0 && len(row) != len(names) {
			skipped++
			continue
		}
		// Headerless file with no supplied names: first row fixes the width.
		if len(names) == 0 {
			names = make([]string, len(row))
			columns = make([][]string, len(row))
			for i := range names {
				names[i] = fmt.Sprintf("col_%d", i)
			}
		}
		for i, val := range row {
			columns[i] = append(columns[i], strings.TrimSpace(val))
		}
	}

	ds := records.New()
	for i, name := range names {
		ds.AddTextColumn(name, columns[i])
	}
	return ds, skipped, nil
}

// normalizeHeaders converts raw header cells to canonical column slugs and
// strips a UTF-8 BOM from the first cell.
func normalizeHeaders(h []string) []string {
	out := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		out[i] = schemadoc.NormalizeIdentifier(c)
	}
	return out
}
