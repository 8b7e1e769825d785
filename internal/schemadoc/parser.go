// Package schemadoc derives machine-usable schema specs from the free-form
// text documents that ship with government tabular datasets.
//
// The documents have an ignored preamble, a line containing the literal
// marker "FIELDS:" that opens the field section, and then one row per column:
//
//	1  ODINO     NUMBER(9)    ODI NUMBER
//	2  MFR_NAME  CHAR(40)     MANUFACTURER'S NAME
//
// Non-matching, non-blank lines after a field row are continuations of that
// field's description. Descriptions are also mined for documented value codes
// (lines like "V = Vehicle" and bracketed lists like "[MFR, OVSC, ODI]").
//
// Parsing is implemented as an explicit two-state machine (awaiting the field
// section / inside it) with a pure per-line classifier, so ambiguity
// resolution stays unit-testable.
package schemadoc

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// FieldKind is the declared storage type of a field.
type FieldKind int

const (
	// KindNumeric corresponds to NUMBER(n) declarations.
	KindNumeric FieldKind = iota
	// KindCharacter corresponds to CHAR(n) and any other textual declaration.
	KindCharacter
)

// String renders the kind the way the documents spell it.
func (k FieldKind) String() string {
	if k == KindNumeric {
		return "NUMBER"
	}
	return "CHAR"
}

// Field is one parsed column definition.
type Field struct {
	Index        int
	RawName      string
	Name         string // normalized slug, unique within a schema
	Kind         FieldKind
	Size         int // declared digit/character capacity
	Description  string
	IsDate       bool
	IsYesNo      bool
	AllowedCodes []string // deduplicated, sorted, uppercase
}

// Spec is an immutable parsed schema document.
type Spec struct {
	Name            string
	DocPath         string
	Fields          []Field
	ExpectedColumns []string // normalized names in declaration order
	RequiredColumns []string // expected minus optional, order preserved
	OptionalColumns []string // sorted

	byName map[string]*Field
}

// Field returns the field definition for a normalized column name.
func (s *Spec) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Overrides carries the hand-maintained per-schema knowledge that the
// documents themselves do not state.
type Overrides struct {
	// OptionalColumns are expected columns a dataset may legitimately omit.
	OptionalColumns []string
	// DateColumns force is_date on fields whose description does not mention
	// the YYYYMMDD convention.
	DateColumns []string
}

var (
	fieldRowPattern     = regexp.MustCompile(`^\s*(\d+)\s+([A-Z0-9_]+)\s+([A-Z]+)\((\d+)\)\s*(.*)$`)
	codeLinePattern     = regexp.MustCompile(`^\s*([A-Z0-9]{1,10})\s*=`)
	bracketCodesPattern = regexp.MustCompile(`\[([A-Z0-9,\s/]+)\]`)
	nonIdentifierRuns   = regexp.MustCompile(`[^a-z0-9]+`)
)

// sectionMarker opens the field section of a document.
const sectionMarker = "FIELDS:"

// NormalizeIdentifier produces the deterministic column slug used everywhere
// in the pipeline: lowercase, runs of non-alphanumerics collapsed to "_",
// leading/trailing underscores trimmed.
func NormalizeIdentifier(value string) string {
	text := strings.ToLower(strings.TrimSpace(value))
	text = nonIdentifierRuns.ReplaceAllString(text, "_")
	text = strings.Trim(text, "_")
	if text == "" {
		return "column"
	}
	return text
}

// lineClass is the classifier verdict for one document line.
type lineClass int

const (
	lineIgnore lineClass = iota
	lineSectionStart
	lineBlank
	lineFieldRow
	lineContinuation
)

// fieldRow holds the captures of a matched field-definition row.
type fieldRow struct {
	index   int
	rawName string
	rawType string
	size    int
	desc    string
}

// classify is the pure per-line classifier. inSection selects between the
// two parser states: before the FIELDS: marker everything except the marker
// itself is ignored.
func classify(line string, inSection bool) (lineClass, fieldRow) {
	if strings.Contains(line, sectionMarker) {
		return lineSectionStart, fieldRow{}
	}
	if !inSection {
		return lineIgnore, fieldRow{}
	}
	if isSeparatorOrBlank(line) {
		return lineBlank, fieldRow{}
	}
	if m := fieldRowPattern.FindStringSubmatch(line); m != nil {
		index, _ := strconv.Atoi(m[1])
		size, _ := strconv.Atoi(m[4])
		return lineFieldRow, fieldRow{
			index:   index,
			rawName: strings.TrimSpace(m[2]),
			rawType: strings.ToUpper(strings.TrimSpace(m[3])),
			size:    size,
			desc:    strings.TrimSpace(m[5]),
		}
	}
	return lineContinuation, fieldRow{}
}

// isSeparatorOrBlank reports lines that are empty or consist solely of the
// '=' / '-' ruling characters used to underline section headers.
func isSeparatorOrBlank(line string) bool {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return true
	}
	for _, r := range stripped {
		if r != '=' && r != '-' {
			return false
		}
	}
	return true
}

// extractCodes harvests documented value codes from a description line using
// two independent rules: a short "TOKEN =" prefix, and bracketed
// comma-separated lists. Both contribute uppercased tokens.
func extractCodes(line string) []string {
	var codes []string
	if m := codeLinePattern.FindStringSubmatch(line); m != nil {
		codes = append(codes, strings.ToUpper(m[1]))
	}
	for _, m := range bracketCodesPattern.FindAllStringSubmatch(strings.ToUpper(line), -1) {
		for _, item := range strings.Split(m[1], ",") {
			if cleaned := strings.TrimSpace(item); cleaned != "" {
				codes = append(codes, cleaned)
			}
		}
	}
	return codes
}

// rawField accumulates one field while its continuation lines arrive.
type rawField struct {
	row       fieldRow
	descLines []string
	codes     []string
}

// ParseFile reads and parses the schema document at path. A missing file
// yields *NotFoundError; a document with zero recognizable field rows yields
// *ParseError. Byte content is decoded lossily and never aborts the parse.
func ParseFile(path, name string, ov Overrides) (*Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Schema: name, Path: path, Err: err}
	}
	return Parse(DecodeLossy(b), name, path, ov)
}

// Parse parses schema document text. See ParseFile for the failure taxonomy.
func Parse(text, name, docPath string, ov Overrides) (*Spec, error) {
	var (
		fields    []*rawField
		current   *rawField
		inSection bool
	)

	for _, line := range strings.Split(text, "\n") {
		class, row := classify(line, inSection)
		switch class {
		case lineSectionStart:
			inSection = true
		case lineIgnore, lineBlank:
			// skip
		case lineFieldRow:
			current = &rawField{row: row}
			if row.desc != "" {
				current.descLines = append(current.descLines, row.desc)
				current.codes = append(current.codes, extractCodes(row.desc)...)
			}
			fields = append(fields, current)
		case lineContinuation:
			if current == nil {
				continue
			}
			cont := strings.TrimSpace(line)
			if cont != "" {
				current.descLines = append(current.descLines, cont)
				current.codes = append(current.codes, extractCodes(cont)...)
			}
		}
	}

	if len(fields) == 0 {
		return nil, &ParseError{Schema: name, Path: docPath}
	}

	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].row.index < fields[j].row.index
	})

	dateOverride := toSet(ov.DateColumns)
	optionalSet := toSet(ov.OptionalColumns)

	spec := &Spec{
		Name:    name,
		DocPath: docPath,
		byName:  make(map[string]*Field, len(fields)),
	}
	for _, rf := range fields {
		desc := strings.TrimSpace(strings.Join(rf.descLines, " "))
		upperDesc := strings.ToUpper(desc)
		normalized := NormalizeIdentifier(rf.row.rawName)

		_, isDate := dateOverride[normalized]
		if strings.Contains(upperDesc, "YYYYMMDD") {
			isDate = true
		}
		isYesNo := strings.Contains(upperDesc, "'Y' OR 'N'") || strings.Contains(upperDesc, "Y/N")

		f := Field{
			Index:        rf.row.index,
			RawName:      rf.row.rawName,
			Name:         normalized,
			Kind:         kindOf(rf.row.rawType),
			Size:         rf.row.size,
			Description:  desc,
			IsDate:       isDate,
			IsYesNo:      isYesNo,
			AllowedCodes: dedupSort(rf.codes),
		}
		spec.Fields = append(spec.Fields, f)
	}

	var optional []string
	for i := range spec.Fields {
		f := &spec.Fields[i]
		spec.byName[f.Name] = f
		spec.ExpectedColumns = append(spec.ExpectedColumns, f.Name)
		if _, ok := optionalSet[f.Name]; ok {
			optional = append(optional, f.Name)
		} else {
			spec.RequiredColumns = append(spec.RequiredColumns, f.Name)
		}
	}
	// Only columns the document actually declares count as optional, so that
	// required and optional always partition the expected set.
	spec.OptionalColumns = dedupSort(optional)

	return spec, nil
}

// kindOf maps the declared type token onto the two supported kinds. NUMBER is
// numeric; everything else (CHAR in practice) is textual.
func kindOf(rawType string) FieldKind {
	if rawType == "NUMBER" {
		return KindNumeric
	}
	return KindCharacter
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// SortedUnique returns the distinct non-empty values, sorted.
func SortedUnique(values []string) []string { return dedupSort(values) }

func dedupSort(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
