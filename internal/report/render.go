package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	// renderExampleCap limits warning/error example lines in the rendered
	// report.
	renderExampleCap = 5
	// previewCap limits inline column-name previews.
	previewCap = 8
)

// Render writes the deterministic text form of the report. Counts are always
// printed, including zeroes, so reports diff cleanly across runs.
func Render(w io.Writer, r *Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "[schema] %s\n", r.DatasetName)

	if r.SchemaName != "" {
		fmt.Fprintf(w, "  schema: %s (match=%.2f)\n", r.SchemaName, r.MatchScore)
	} else {
		fmt.Fprintln(w, "  schema: unknown")
	}

	fmt.Fprintf(w, "  rows: %s\n", comma(r.Rows))
	fmt.Fprintf(w, "  columns: %s\n", comma(r.Columns))

	if r.ExpectedColumns != nil {
		present := 0
		if r.PresentExpected != nil {
			present = *r.PresentExpected
		}
		fmt.Fprintf(w, "  expected_columns: %s/%s\n", comma(present), comma(*r.ExpectedColumns))

		if len(r.MissingColumns) > 0 {
			fmt.Fprintf(w, "  missing_required: %s %s\n", comma(len(r.MissingColumns)), previewList(r.MissingColumns))
		} else {
			fmt.Fprintln(w, "  missing_required: 0")
		}
		if len(r.MissingOptionalColumns) > 0 {
			fmt.Fprintf(w, "  missing_optional: %s %s\n", comma(len(r.MissingOptionalColumns)), previewList(r.MissingOptionalColumns))
		}
		if len(r.UnexpectedExtraColumns) > 0 {
			fmt.Fprintf(w, "  unexpected_extra: %s %s\n", comma(len(r.UnexpectedExtraColumns)), previewList(r.UnexpectedExtraColumns))
		}
		if r.ColumnOrderMatches != nil {
			fmt.Fprintf(w, "  column_order_matches_expected: %v\n", *r.ColumnOrderMatches)
		}
	}

	if r.DuplicateRows == nil {
		fmt.Fprintln(w, "  duplicate_rows: skipped (dataset too large for quick check)")
	} else {
		fmt.Fprintf(w, "  duplicate_rows: %s\n", comma(*r.DuplicateRows))
	}

	if r.IDColumn != "" {
		line := fmt.Sprintf("  id_column: %s (nulls=%s", r.IDColumn, comma(*r.IDNullCount))
		if r.IDDuplicateCount != nil {
			line += fmt.Sprintf(", duplicates=%s", comma(*r.IDDuplicateCount))
		}
		fmt.Fprintln(w, line+")")
	} else {
		fmt.Fprintln(w, "  id_column: not found")
	}

	if r.ModelYearOutOfRange == nil {
		fmt.Fprintln(w, "  model_year_range_check: skipped (no model year column found)")
	} else {
		fmt.Fprintf(w, "  %s_out_of_range_count: %s\n", r.ModelYearColumn, comma(*r.ModelYearOutOfRange))
	}

	t := r.IssueTotals
	fmt.Fprintf(w, "  field_issue_totals: date_invalid=%s, date_zero=%s, non_numeric=%s, length_overflow=%s, enum_invalid=%s\n",
		comma(t.DateInvalid), comma(t.DatePlaceholder), comma(t.NonNumeric), comma(t.LengthOverflow), comma(t.EnumInvalid))

	fmt.Fprintf(w, "  warnings: %s\n", comma(len(r.Warnings)))
	fmt.Fprintf(w, "  errors: %s\n", comma(len(r.Errors)))

	renderMessages(w, "error_examples", r.Errors)
	renderMessages(w, "warning_examples", r.Warnings)
}

// RenderString renders the report into a string.
func RenderString(r *Report) string {
	var sb strings.Builder
	Render(&sb, r)
	return sb.String()
}

func renderMessages(w io.Writer, label string, messages []string) {
	if len(messages) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", label)
	for i, msg := range messages {
		if i == renderExampleCap {
			break
		}
		fmt.Fprintf(w, "    - %s\n", msg)
	}
	if len(messages) > renderExampleCap {
		fmt.Fprintf(w, "    - ... +%d more\n", len(messages)-renderExampleCap)
	}
}

// previewList renders "[a, b, c]" capped at previewCap entries with a
// "+N more" suffix.
func previewList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	if len(values) <= previewCap {
		return "[" + strings.Join(values, ", ") + "]"
	}
	shown := strings.Join(values[:previewCap], ", ")
	return fmt.Sprintf("[%s, ... +%d more]", shown, len(values)-previewCap)
}

func comma(n int) string { return humanize.Comma(int64(n)) }
