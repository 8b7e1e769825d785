package tabular

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

/*
TestDetectDelimiter verifies sniffing against the three candidate delimiters
and the tab default for hopeless input.
*/
func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    rune
	}{
		{"tab", "a\tb\tc\n1\t2\t3\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"blank first line", "\n\na|b|c\n", '|'},
		{"no delimiter at all", "singlecolumn\nvalue\n", '\t'},
	}
	for _, tt := range tests {
		path := writeTemp(t, "sample.txt", tt.content)
		if got := DetectDelimiter(path); got != tt.want {
			t.Errorf("%s: DetectDelimiter = %q, want %q", tt.name, got, tt.want)
		}
	}
}

/*
TestRead_Headerless verifies the published-file shape: no header row, caller
supplies column names from the schema doc, misaligned rows are skipped and
counted.
*/
func TestRead_Headerless(t *testing.T) {
	input := "C1\t100\t20230101\n" +
		"C2\t200\n" + // short row: skipped
		"C3\t300\t20230102\n"

	ds, skipped, err := Read(strings.NewReader(input), Options{
		ColumnNames: []string{"cmplid", "odino", "faildate"},
		Delimiter:   '\t',
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if ds.Rows() != 2 || ds.Cols() != 3 {
		t.Errorf("shape = %dx%d, want 2x3", ds.Rows(), ds.Cols())
	}
	if got := ds.Row(1); !reflect.DeepEqual(got, []string{"C3", "300", "20230102"}) {
		t.Errorf("Row(1) = %v", got)
	}
}

/*
TestRead_Header verifies header normalization (slug form, BOM stripped) and
cell trimming.
*/
func TestRead_Header(t *testing.T) {
	input := "\ufeffComplaint ID|ODI Number\n C1 |100\n"

	ds, skipped, err := Read(strings.NewReader(input), Options{
		HasHeader: true,
		Delimiter: '|',
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if want := []string{"complaint_id", "odi_number"}; !reflect.DeepEqual(ds.ColumnNames(), want) {
		t.Errorf("columns = %v, want %v", ds.ColumnNames(), want)
	}
	if got := ds.Column("complaint_id").Value(0); got != "C1" {
		t.Errorf("cell = %q, want trimmed C1", got)
	}
}

/*
TestRead_SyntheticNames verifies that a headerless read without supplied
names takes its width from the first row and synthesizes col_N names.
*/
func TestRead_SyntheticNames(t *testing.T) {
	ds, _, err := Read(strings.NewReader("a\tb\nc\td\n"), Options{Delimiter: '\t'})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := []string{"col_0", "col_1"}; !reflect.DeepEqual(ds.ColumnNames(), want) {
		t.Errorf("columns = %v, want %v", ds.ColumnNames(), want)
	}
}

/*
TestReadFile_Latin1 verifies that non-UTF-8 bytes survive the lossy decode
instead of failing the read.
*/
func TestReadFile_Latin1(t *testing.T) {
	path := writeTemp(t, "latin1.txt", "caf\xe9\t1\n")

	ds, _, err := ReadFile(path, Options{ColumnNames: []string{"name", "n"}})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := ds.Column("name").Value(0); got != "café" {
		t.Errorf("cell = %q, want café", got)
	}
}
