// Package records defines the in-memory tabular representation shared by the
// ingest pipeline: an ordered, column-major Dataset whose columns carry an
// explicit representation tag (raw text vs parsed dates). Downstream checks
// dispatch on the tag instead of inspecting runtime types.
package records

import (
	"strings"
	"time"
)

// Kind tags a column's value representation.
type Kind int

const (
	// RawText columns hold unparsed string cells straight from the source
	// file. Empty and whitespace-only cells are treated as null.
	RawText Kind = iota
	// ParsedDate columns hold calendar dates produced by preprocessing; a nil
	// entry is null.
	ParsedDate
)

// DateLayout is the rendering layout for ParsedDate cells.
const DateLayout = "2006-01-02"

// Column is one column of a Dataset. Exactly one of Text or Dates is
// populated, selected by Kind.
type Column struct {
	Kind  Kind
	Text  []string
	Dates []*time.Time
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == ParsedDate {
		return len(c.Dates)
	}
	return len(c.Text)
}

// IsNull reports whether cell i is null: nil for ParsedDate columns, empty or
// whitespace-only for RawText columns.
func (c *Column) IsNull(i int) bool {
	if c.Kind == ParsedDate {
		return c.Dates[i] == nil
	}
	return strings.TrimSpace(c.Text[i]) == ""
}

// Value renders cell i as a trimmed string; null cells render as "".
func (c *Column) Value(i int) string {
	if c.Kind == ParsedDate {
		if c.Dates[i] == nil {
			return ""
		}
		return c.Dates[i].Format(DateLayout)
	}
	return strings.TrimSpace(c.Text[i])
}

// NonNullCount counts non-null cells.
func (c *Column) NonNullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if !c.IsNull(i) {
			n++
		}
	}
	return n
}

// Dataset is an ordered mapping of column name to column values. Column order
// is the declaration order of AddColumn calls; all columns must share the same
// length. The zero value is not usable; construct with New.
type Dataset struct {
	names []string
	cols  map[string]*Column
	rows  int
}

// New returns an empty Dataset.
func New() *Dataset {
	return &Dataset{cols: map[string]*Column{}}
}

// AddColumn appends (or replaces) a column. Adding an existing name replaces
// its values in place without changing the column order.
func (d *Dataset) AddColumn(name string, col *Column) {
	if _, ok := d.cols[name]; !ok {
		d.names = append(d.names, name)
	}
	d.cols[name] = col
	if col.Len() > d.rows {
		d.rows = col.Len()
	}
}

// AddTextColumn is a convenience wrapper for raw string columns.
func (d *Dataset) AddTextColumn(name string, values []string) {
	d.AddColumn(name, &Column{Kind: RawText, Text: values})
}

// ColumnNames returns the column names in declaration order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Column returns the named column, or nil when absent.
func (d *Dataset) Column(name string) *Column {
	return d.cols[name]
}

// HasColumn reports whether the dataset contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.cols[name]
	return ok
}

// Rows returns the row count (the length of the longest column).
func (d *Dataset) Rows() int { return d.rows }

// Cols returns the number of columns.
func (d *Dataset) Cols() int { return len(d.names) }

// Row renders row i across all columns in declaration order. Null cells
// render as "". Columns shorter than the dataset (should not happen after a
// well-formed read) yield "" as well.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.names))
	for j, name := range d.names {
		col := d.cols[name]
		if i < col.Len() {
			out[j] = col.Value(i)
		}
	}
	return out
}

// Fill pads every column with nulls up to the dataset row count. Used after
// appending datasets with differing column sets.
func (d *Dataset) Fill() {
	for _, name := range d.names {
		col := d.cols[name]
		for col.Len() < d.rows {
			if col.Kind == ParsedDate {
				col.Dates = append(col.Dates, nil)
			} else {
				col.Text = append(col.Text, "")
			}
		}
	}
}

// Append concatenates other below d. Columns are unioned in first-seen order;
// cells missing on either side become nulls. ParsedDate columns are appended
// as dates when both sides agree on the kind, otherwise the appended values
// are rendered to text.
func (d *Dataset) Append(other *Dataset) {
	base := d.rows
	for _, name := range other.names {
		src := other.cols[name]
		dst, ok := d.cols[name]
		if !ok {
			kind := src.Kind
			dst = &Column{Kind: kind}
			d.names = append(d.names, name)
			d.cols[name] = dst
			// Backfill nulls for rows that predate this column.
			for dst.Len() < base {
				if kind == ParsedDate {
					dst.Dates = append(dst.Dates, nil)
				} else {
					dst.Text = append(dst.Text, "")
				}
			}
		}
		if dst.Kind == ParsedDate && src.Kind == ParsedDate {
			dst.Dates = append(dst.Dates, src.Dates...)
		} else if dst.Kind == ParsedDate {
			// Mixed kinds: demote destination to text.
			text := make([]string, 0, dst.Len()+src.Len())
			for i := 0; i < dst.Len(); i++ {
				text = append(text, dst.Value(i))
			}
			dst.Kind = RawText
			dst.Dates = nil
			dst.Text = text
			for i := 0; i < src.Len(); i++ {
				dst.Text = append(dst.Text, src.Value(i))
			}
		} else {
			for i := 0; i < src.Len(); i++ {
				dst.Text = append(dst.Text, src.Value(i))
			}
		}
	}
	d.rows = base + other.rows
	d.Fill()
}
