// Package check implements the per-column field validators. Every validator
// is a pure, total function over one column: anomalies are reported as data,
// never as errors, so a validation run always completes.
//
// Null semantics are shared: a cell is null when it is missing, or empty /
// whitespace-only after trimming (records.Column.IsNull). Example lists are
// deduplicated, sorted, and capped so reports stay readable on multi-million
// row inputs.
package check

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"odietl/pkg/records"
)

const (
	// integerTolerance is the fractional magnitude below which a parsed
	// numeric value still counts as an integer (absorbs float formatting
	// noise like "12.0").
	integerTolerance = 1e-9

	// maxNumericExamples and maxDateExamples cap the offending-value examples
	// kept by the numeric and date validators; maxEnumExamples does the same
	// for the enum validator.
	maxNumericExamples = 5
	maxDateExamples    = 5
	maxEnumExamples    = 8
)

var eightDigits = regexp.MustCompile(`^\d{8}$`)

// placeholderDates are the documented all-zero sentinels meaning "no date".
var placeholderDates = map[string]struct{}{
	"0":          {},
	"00000000":   {},
	"0000-00-00": {},
}

// NumericResult reports the Numeric validator's findings.
type NumericResult struct {
	Checked             bool
	NullCount           int
	NonNullCount        int
	NonNumericCount     int
	NonIntegerCount     int
	DigitsOverflowCount int
	InvalidExamples     []string // sorted distinct non-numeric / non-integer raw values
}

// Numeric classifies a declared NUMBER(maxDigits) column. Non-null values are
// partitioned into numeric and non-numeric by a lexical parse; numeric values
// are additionally flagged when they carry a fractional part or more digit
// characters than the declared capacity (sign and decimal punctuation are not
// counted as digits).
func Numeric(col *records.Column, maxDigits int) NumericResult {
	res := NumericResult{Checked: true}
	examples := map[string]struct{}{}

	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			res.NullCount++
			continue
		}
		res.NonNullCount++
		raw := col.Value(i)

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			res.NonNumericCount++
			examples[raw] = struct{}{}
			continue
		}

		if math.Abs(math.Mod(value, 1)) >= integerTolerance {
			res.NonIntegerCount++
			examples[raw] = struct{}{}
		}

		if digitCount(raw) > maxDigits {
			res.DigitsOverflowCount++
		}
	}

	if res.NonNumericCount > 0 || res.NonIntegerCount > 0 {
		res.InvalidExamples = sortedExamples(examples, maxNumericExamples)
	}
	return res
}

// DateResult reports the Date validator's findings.
type DateResult struct {
	Checked          bool
	NonNullCount     int
	PlaceholderCount int
	InvalidCount     int
	InvalidExamples  []string
}

// Date validates a column expected to hold YYYYMMDD dates. A column that has
// already been parsed into dates only reports its non-null count. For raw
// text, documented all-zero placeholders are counted separately and excluded
// from invalidity; the rest must be exactly eight digits naming a real
// calendar date.
func Date(col *records.Column) DateResult {
	res := DateResult{Checked: true}

	if col.Kind == records.ParsedDate {
		res.NonNullCount = col.NonNullCount()
		return res
	}

	examples := map[string]struct{}{}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		res.NonNullCount++
		raw := col.Value(i)

		if _, ok := placeholderDates[strings.ToUpper(raw)]; ok {
			res.PlaceholderCount++
			continue
		}
		if !validYYYYMMDD(raw) {
			res.InvalidCount++
			examples[raw] = struct{}{}
		}
	}

	if res.InvalidCount > 0 {
		res.InvalidExamples = sortedExamples(examples, maxDateExamples)
	}
	return res
}

func validYYYYMMDD(raw string) bool {
	if !eightDigits.MatchString(raw) {
		return false
	}
	_, err := time.Parse("20060102", raw)
	return err == nil
}

// CharLengthResult reports the CharLength validator's findings.
type CharLengthResult struct {
	Checked           bool
	NonNullCount      int
	TooLongCount      int
	MaxObservedLength int
}

// CharLength measures character lengths against a declared CHAR(maxLength)
// capacity. When allowDates is set and the column already holds parsed dates,
// the check is skipped entirely (Checked=false): the declared length applied
// to the raw text no longer means anything after parsing.
func CharLength(col *records.Column, maxLength int, allowDates bool) CharLengthResult {
	if allowDates && col.Kind == records.ParsedDate {
		return CharLengthResult{}
	}

	res := CharLengthResult{Checked: true}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		res.NonNullCount++
		n := utf8.RuneCountInString(col.Value(i))
		if n > res.MaxObservedLength {
			res.MaxObservedLength = n
		}
		if n > maxLength {
			res.TooLongCount++
		}
	}
	return res
}

// EnumResult reports the Enum validator's findings.
type EnumResult struct {
	Checked         bool
	NonNullCount    int
	InvalidCount    int
	InvalidExamples []string // sorted distinct uppercased offenders
}

// Enum compares each non-null value, uppercased, against the uppercased
// allowed set. With no allowed values the check is skipped (Checked=false).
func Enum(col *records.Column, allowed []string) EnumResult {
	if len(allowed) == 0 {
		return EnumResult{}
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		allowedSet[strings.ToUpper(v)] = struct{}{}
	}

	res := EnumResult{Checked: true}
	examples := map[string]struct{}{}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		res.NonNullCount++
		upper := strings.ToUpper(col.Value(i))
		if _, ok := allowedSet[upper]; !ok {
			res.InvalidCount++
			examples[upper] = struct{}{}
		}
	}

	if res.InvalidCount > 0 {
		res.InvalidExamples = sortedExamples(examples, maxEnumExamples)
	}
	return res
}

// digitCount counts decimal digit characters, ignoring sign and punctuation.
func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// sortedExamples returns the distinct offenders sorted, truncated to max.
func sortedExamples(set map[string]struct{}, max int) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > max {
		out = out[:max]
	}
	return out
}
