package tabular

import (
	"strconv"
	"strings"
	"time"

	"odietl/pkg/records"
)

// dateColumnHints mark columns worth attempting a date parse on by name.
var dateColumnHints = []string{"date", "received", "incident"}

// modelYearCandidates are numeric-coerced in place during preprocessing.
var modelYearCandidates = []string{"model_year", "modelyear", "veh_year", "year"}

// dateLayouts tried in order when parsing hinted columns.
var dateLayouts = []string{"20060102", "2006-01-02", "01/02/2006", "2006-01-02 15:04:05"}

// Preprocess applies the light cleanup the pipeline performs before
// validation: hinted columns with at least one parseable value become
// ParsedDate columns (unparseable cells turn null), and model-year candidate
// columns are coerced to canonical integer text. Cell trimming already
// happened at read time.
func Preprocess(ds *records.Dataset) {
	for _, name := range ds.ColumnNames() {
		if !hasDateHint(name) {
			continue
		}
		col := ds.Column(name)
		if col.Kind != records.RawText {
			continue
		}
		if parsed, ok := parseDateColumn(col); ok {
			ds.AddColumn(name, parsed)
		}
	}

	for _, name := range modelYearCandidates {
		if !ds.HasColumn(name) {
			continue
		}
		col := ds.Column(name)
		if col.Kind != records.RawText {
			continue
		}
		coerceIntegerText(col)
	}
}

func hasDateHint(name string) bool {
	for _, hint := range dateColumnHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// parseDateColumn attempts to parse every non-null cell; the conversion only
// sticks when at least one cell parses, so purely non-date columns that
// happen to mention "date" in their name stay textual.
func parseDateColumn(col *records.Column) (*records.Column, bool) {
	dates := make([]*time.Time, len(col.Text))
	parsedAny := false
	for i := range col.Text {
		if col.IsNull(i) {
			continue
		}
		if t, ok := parseAnyDate(col.Value(i)); ok {
			dates[i] = &t
			parsedAny = true
		}
	}
	if !parsedAny {
		return nil, false
	}
	return &records.Column{Kind: records.ParsedDate, Dates: dates}, true
}

func parseAnyDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// coerceIntegerText rewrites parseable numeric cells as plain integer text
// and blanks everything else, mirroring a nullable-integer cast.
func coerceIntegerText(col *records.Column) {
	for i, raw := range col.Text {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			col.Text[i] = ""
			continue
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			col.Text[i] = ""
			continue
		}
		col.Text[i] = strconv.FormatInt(int64(v), 10)
	}
}
