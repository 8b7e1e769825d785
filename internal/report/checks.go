package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"odietl/internal/check"
	"odietl/internal/schemadoc"
	"odietl/pkg/records"
)

// checkAgainstSchema fills in the schema-dependent part of the report:
// missing/extra column accounting, column-order comparison, and per-field
// validator runs with severity translation.
func (b *Builder) checkAgainstSchema(r *Report, ds *records.Dataset, schemaName string, spec *schemadoc.Spec) {
	r.SchemaDocPath = spec.DocPath

	expectedSet := toSet(spec.ExpectedColumns)
	allowedExtra := b.AllowedExtra
	if allowedExtra == nil {
		allowedExtra = defaultAllowedExtraColumns
	}
	allowedExtraSet := toSet(allowedExtra)

	var presentExpected []string
	for _, col := range spec.ExpectedColumns {
		if ds.HasColumn(col) {
			presentExpected = append(presentExpected, col)
		}
	}
	for _, col := range spec.RequiredColumns {
		if !ds.HasColumn(col) {
			r.MissingColumns = append(r.MissingColumns, col)
		}
	}
	for _, col := range spec.OptionalColumns {
		if !ds.HasColumn(col) {
			r.MissingOptionalColumns = append(r.MissingOptionalColumns, col)
		}
	}
	for _, col := range ds.ColumnNames() {
		if _, ok := expectedSet[col]; ok {
			continue
		}
		r.ExtraColumns = append(r.ExtraColumns, col)
		if _, ok := allowedExtraSet[col]; !ok {
			r.UnexpectedExtraColumns = append(r.UnexpectedExtraColumns, col)
		}
	}

	var actualOrder []string
	for _, col := range ds.ColumnNames() {
		if _, ok := expectedSet[col]; ok {
			actualOrder = append(actualOrder, col)
		}
	}
	orderMatches := equalStrings(actualOrder, presentExpected)

	r.ExpectedColumns = intPtr(len(spec.ExpectedColumns))
	r.PresentExpected = intPtr(len(presentExpected))
	r.ColumnOrderMatches = &orderMatches

	if len(r.MissingColumns) > 0 {
		r.errorf("Missing required columns for %s: %s", schemaName, previewList(r.MissingColumns))
	}
	if len(r.UnexpectedExtraColumns) > 0 {
		r.warnf("Unexpected extra columns: %s", previewList(r.UnexpectedExtraColumns))
	}
	if !orderMatches {
		r.Warnings = append(r.Warnings, "Expected columns are present but column order differs from schema doc")
	}

	for _, colName := range presentExpected {
		field, ok := spec.Field(colName)
		if !ok {
			continue
		}
		col := ds.Column(colName)
		fc := &FieldCheck{Type: field.Kind.String(), Size: field.Size}

		if field.Kind == schemadoc.KindNumeric {
			b.checkNumeric(r, fc, colName, col, field)
		}
		if field.IsDate {
			b.checkDate(r, fc, colName, col)
		}
		if field.Kind == schemadoc.KindCharacter {
			b.checkCharacter(r, fc, schemaName, colName, col, field)
		}

		r.FieldOrder = append(r.FieldOrder, colName)
		r.FieldChecks[colName] = fc
	}
}

func (b *Builder) checkNumeric(r *Report, fc *FieldCheck, colName string, col *records.Column, field *schemadoc.Field) {
	res := check.Numeric(col, field.Size)
	fc.Numeric = &res
	r.IssueTotals.NonNumeric += res.NonNumericCount
	r.IssueTotals.NonInteger += res.NonIntegerCount
	r.IssueTotals.DigitsOverflow += res.DigitsOverflowCount

	if res.NonNumericCount > 0 {
		r.errorf("%s: %s non-numeric values", colName, comma(res.NonNumericCount))
	}
	if res.NonIntegerCount > 0 {
		r.warnf("%s: %s non-integer numeric values", colName, comma(res.NonIntegerCount))
	}
	if res.DigitsOverflowCount > 0 {
		r.warnf("%s: %s values exceed NUMBER(%d) digit length", colName, comma(res.DigitsOverflowCount), field.Size)
	}
}

func (b *Builder) checkDate(r *Report, fc *FieldCheck, colName string, col *records.Column) {
	res := check.Date(col)
	fc.Date = &res
	r.IssueTotals.DateInvalid += res.InvalidCount
	r.IssueTotals.DatePlaceholder += res.PlaceholderCount

	if res.InvalidCount > 0 {
		r.errorf("%s: %s invalid YYYYMMDD date values", colName, comma(res.InvalidCount))
	}
	if res.PlaceholderCount > 0 {
		r.warnf("%s: %s placeholder zero date values", colName, comma(res.PlaceholderCount))
	}
}

func (b *Builder) checkCharacter(r *Report, fc *FieldCheck, schemaName, colName string, col *records.Column, field *schemadoc.Field) {
	maxLength := field.Size
	overridden := false
	if n, ok := b.Catalog.LengthOverride(schemaName, colName); ok {
		maxLength = n
		overridden = true
	}

	lenRes := check.CharLength(col, maxLength, field.IsDate)
	fc.CharLength = &lenRes
	r.IssueTotals.LengthOverflow += lenRes.TooLongCount

	if lenRes.TooLongCount > 0 {
		if overridden {
			r.warnf("%s: %s values exceed doc CHAR(%d) length (allowed legacy max %d)",
				colName, comma(lenRes.TooLongCount), field.Size, maxLength)
		} else {
			r.errorf("%s: %s values exceed CHAR(%d)", colName, comma(lenRes.TooLongCount), maxLength)
		}
	}

	enumRes := check.Enum(col, b.allowedValues(schemaName, field))
	fc.Enum = &enumRes
	r.IssueTotals.EnumInvalid += enumRes.InvalidCount

	if enumRes.InvalidCount > 0 {
		r.warnf("%s: %s values outside documented codes", colName, comma(enumRes.InvalidCount))
	}
}

// allowedValues resolves the enum domain for a field: a configured override
// wins, then the Y/N convention, then codes harvested from the document.
func (b *Builder) allowedValues(schemaName string, field *schemadoc.Field) []string {
	if override := b.Catalog.EnumOverride(schemaName, field.Name); len(override) > 0 {
		return schemadoc.SortedUnique(override)
	}
	if field.IsYesNo {
		return []string{"Y", "N"}
	}
	return field.AllowedCodes
}

// duplicateRows counts rows identical to an earlier row, hashing the rendered
// row to avoid retaining row copies. Skipped on very large datasets.
func (b *Builder) duplicateRows(r *Report, ds *records.Dataset) {
	if ds.Rows() > duplicateRowLimit {
		return
	}
	seen := make(map[uint64]struct{}, ds.Rows())
	dups := 0
	for i := 0; i < ds.Rows(); i++ {
		h := hashRow(ds.Row(i))
		if _, ok := seen[h]; ok {
			dups++
			continue
		}
		seen[h] = struct{}{}
	}
	r.DuplicateRows = intPtr(dups)
}

func (b *Builder) idColumn(r *Report, ds *records.Dataset) {
	var col *records.Column
	for _, candidate := range idColumnCandidates {
		if ds.HasColumn(candidate) {
			r.IDColumn = candidate
			col = ds.Column(candidate)
			break
		}
	}
	if col == nil {
		return
	}

	nulls := col.Len() - col.NonNullCount()
	r.IDNullCount = intPtr(nulls)

	if ds.Rows() > idDuplicateLimit {
		return
	}
	seen := make(map[string]struct{}, col.Len())
	dups := 0
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if _, ok := seen[v]; ok {
			dups++
			continue
		}
		seen[v] = struct{}{}
	}
	r.IDDuplicateCount = intPtr(dups)
}

func (b *Builder) modelYear(r *Report, ds *records.Dataset) {
	var col *records.Column
	for _, candidate := range modelYearCandidates {
		if ds.HasColumn(candidate) {
			r.ModelYearColumn = candidate
			col = ds.Column(candidate)
			break
		}
	}
	if col == nil {
		return
	}

	outOfRange := 0
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v, err := strconv.ParseFloat(col.Value(i), 64)
		if err != nil {
			continue
		}
		if v == modelYearSentinel || (v >= modelYearMin && v <= modelYearMax) {
			continue
		}
		outOfRange++
	}
	r.ModelYearOutOfRange = intPtr(outOfRange)
	if outOfRange > 0 {
		r.warnf("%s: %s values outside expected range (%d-%d or %d)",
			r.ModelYearColumn, comma(outOfRange), modelYearMin, modelYearMax, modelYearSentinel)
	}
}

// hashRow hashes a rendered row with a field separator that cannot occur in
// trimmed cell values.
func hashRow(cells []string) uint64 {
	var sb strings.Builder
	for i, c := range cells {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		sb.WriteString(c)
	}
	return xxh3.HashString(sb.String())
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intPtr(n int) *int { return &n }
