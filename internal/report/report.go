// =============================================================================
// Pipeline Dashboard - Workbook Export
// =============================================================================
//
// This module writes a pipeline Report to an XLSX workbook.
//
// WORKBOOK LAYOUT:
//   Summary   - refresh metadata, bucket counts and the source attempts
//   <bucket>  - one sheet per bucket, one row per Opportunity
//   Warnings  - data-quality warnings (only when there are any)
//
// Sheet names are limited to 31 characters and may not contain : \ / ? * [ ]
// so bucket names are sanitized and de-duplicated.
//
// =============================================================================

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pipeline-dashboard/internal/classifier"
	"github.com/ginjaninja78/pipeline-dashboard/internal/pipeline"
	"github.com/ginjaninja78/pipeline-dashboard/internal/types"
)

// Fixed sheet names.
const (
	SummarySheet  = "Summary"
	WarningsSheet = "Warnings"
)

const maxSheetName = 31

// OpportunityHeaders are the column headers of every bucket sheet.
var OpportunityHeaders = []string{
	"ID", "Name", "Account", "Stage", "Access Method", "Amount",
	"Close Date", "Owner", "Probability", "Created", "Modified", "URL", "Synthetic ID",
}

// WriteWorkbook builds the workbook for report and saves it to path.
func WriteWorkbook(path string, report *pipeline.Report) error {
	f, err := Build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Build creates the workbook in memory. The caller must Close it.
func Build(report *pipeline.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	w := &writer{f: f, used: map[string]bool{}}
	if err := w.build(report); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// =============================================================================
// SHEET WRITERS
// =============================================================================

type writer struct {
	f    *excelize.File
	bold int
	used map[string]bool
}

func (w *writer) build(report *pipeline.Report) error {
	// Rename the default sheet so the summary comes first.
	if err := w.f.SetSheetName(w.f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	w.used[strings.ToLower(SummarySheet)] = true
	w.used[strings.ToLower(WarningsSheet)] = true

	bold, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	w.bold = bold

	if err := w.writeSummary(report); err != nil {
		return err
	}

	for _, bucket := range report.Buckets {
		if err := w.writeBucket(bucket); err != nil {
			return err
		}
	}

	if len(report.Warnings) > 0 {
		if err := w.writeWarnings(report); err != nil {
			return err
		}
	}

	w.f.SetActiveSheet(0)
	return nil
}

func (w *writer) writeSummary(report *pipeline.Report) error {
	sheet := SummarySheet
	row := 1

	meta := [][]interface{}{
		{"Resolution ID", report.ResolutionID},
		{"Generated At", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Source", string(report.Source)},
		{"Status", report.Status},
		{"Cause", string(report.Cause)},
		{"Message", report.Message},
		{"Total", report.Total},
	}
	for _, values := range meta {
		if err := w.row(sheet, row, values, false); err != nil {
			return err
		}
		if err := w.style(sheet, row, 1, 1); err != nil {
			return err
		}
		row++
	}

	row++
	if err := w.row(sheet, row, []interface{}{"Bucket", "Stage Keyword", "Count"}, true); err != nil {
		return err
	}
	row++
	for _, b := range report.Buckets {
		if err := w.row(sheet, row, []interface{}{b.Name, b.Keyword, b.Count}, false); err != nil {
			return err
		}
		row++
	}

	row++
	if err := w.row(sheet, row, []interface{}{"Strategy", "Outcome", "Kind", "Reason", "Rows", "Duration (ms)"}, true); err != nil {
		return err
	}
	row++
	for _, a := range report.Attempts {
		values := []interface{}{string(a.Strategy), string(a.Outcome), string(a.Kind), a.Reason, a.Rows, a.Duration.Milliseconds()}
		if err := w.row(sheet, row, values, false); err != nil {
			return err
		}
		row++
	}

	return w.f.SetColWidth(sheet, "A", "B", 24)
}

func (w *writer) writeBucket(bucket classifier.Bucket) error {
	sheet := w.sheetName(bucket.Name)
	if _, err := w.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	headers := make([]interface{}, len(OpportunityHeaders))
	for i, h := range OpportunityHeaders {
		headers[i] = h
	}
	if err := w.row(sheet, 1, headers, true); err != nil {
		return err
	}

	for i, opp := range bucket.Opportunities {
		if err := w.row(sheet, i+2, opportunityRow(opp), false); err != nil {
			return err
		}
	}

	return w.f.SetColWidth(sheet, "A", "C", 22)
}

func (w *writer) writeWarnings(report *pipeline.Report) error {
	sheet := WarningsSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	if err := w.row(sheet, 1, []interface{}{"Severity", "Row", "Field", "Rule", "Value", "Message"}, true); err != nil {
		return err
	}
	for i, v := range report.Warnings {
		var rowNumber interface{} = ""
		if v.RowNumber > 0 {
			rowNumber = v.RowNumber
		}
		values := []interface{}{v.Severity, rowNumber, v.Field, v.Rule, v.Value, v.Message}
		if err := w.row(sheet, i+2, values, false); err != nil {
			return err
		}
	}
	return nil
}

// opportunityRow renders an Opportunity in OpportunityHeaders order. Amounts
// and probabilities are written as numbers; unparseable ones stay blank.
func opportunityRow(opp types.Opportunity) []interface{} {
	var amount, probability interface{} = "", ""
	if opp.Amount.Valid {
		amount = opp.Amount.Decimal.InexactFloat64()
	}
	if opp.Probability.Valid {
		probability = opp.Probability.Decimal.InexactFloat64()
	}

	synthetic := "no"
	if opp.SyntheticID {
		synthetic = "yes"
	}

	return []interface{}{
		opp.ID, opp.Name, opp.AccountName, opp.Stage, opp.AccessMethod, amount,
		opp.CloseDate, opp.OwnerName, probability, opp.CreatedDate, opp.ModifiedDate, opp.URL, synthetic,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (w *writer) row(sheet string, row int, values []interface{}, header bool) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	if header {
		return w.style(sheet, row, 1, len(values))
	}
	return nil
}

func (w *writer) style(sheet string, row, fromCol, toCol int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, from, to, w.bold)
}

// sheetName returns a unique, valid sheet name for a bucket.
func (w *writer) sheetName(name string) string {
	base := SanitizeSheetName(name)

	candidate := base
	for n := 2; w.used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}

	w.used[strings.ToLower(candidate)] = true
	return candidate
}

// SanitizeSheetName replaces characters Excel rejects in sheet names and
// truncates to 31 characters. An empty result becomes "Bucket".
func SanitizeSheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))

	// Leading or trailing apostrophes are not allowed either.
	cleaned = strings.Trim(cleaned, "'")
	if strings.TrimSpace(cleaned) == "" {
		cleaned = "Bucket"
	}
	return strings.TrimSpace(truncateRunes(cleaned, maxSheetName))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
