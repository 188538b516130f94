// =============================================================================
// Pipeline Dashboard - Record Mapper
// =============================================================================
//
// This module converts a row grid (first row = header) into records keyed by
// header label. The header layout is not assumed stable: every fetch may
// return different labels, in a different order.
//
// =============================================================================

package csvparser

import "strings"

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// Record maps a column header to a cell value for one data row.
type Record map[string]string

// CSVData represents one fetched grid after mapping.
type CSVData struct {
	// Headers contains the cleaned header labels, including empty ones so that
	// column positions line up with RawRows.
	Headers []string

	// Rows contains the data rows as records (header -> value).
	Rows []Record

	// RawRows contains the raw data rows (header excluded).
	// This is useful for debugging and error reporting.
	RawRows [][]string

	// Source identifies where the grid came from (e.g. the strategy tag).
	Source string

	// RowCount is the number of mapped data rows.
	RowCount int

	// ColumnCount is the number of columns in the header.
	ColumnCount int
}

// =============================================================================
// MAPPER FUNCTIONS
// =============================================================================

// FromGrid maps a row grid and keeps the bookkeeping fields alongside.
func FromGrid(rows [][]string, source string) *CSVData {
	data := &CSVData{
		Rows:   ToRecords(rows),
		Source: source,
	}
	if len(rows) > 0 {
		data.Headers = cleanHeaders(rows[0])
		data.ColumnCount = len(data.Headers)
		data.RawRows = rows[1:]
	}
	data.RowCount = len(data.Rows)
	return data
}

// ToRecords zips each data row with the header row.
//
// RULES:
//   - Fewer than two rows (header only, or nothing) yields no records
//   - Missing trailing values default to ""
//   - Empty header cells are skipped, never mapped to an empty key
//   - Rows whose cells are all blank are skipped
func ToRecords(rows [][]string) []Record {
	if len(rows) < 2 {
		return []Record{}
	}

	headers := cleanHeaders(rows[0])
	records := make([]Record, 0, len(rows)-1)

	for _, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}

		record := make(Record, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			record[header] = value
		}
		records = append(records, record)
	}

	return records
}

// DataRowCount returns the number of non-blank rows after the header. A
// grid is usable data only when this is at least one.
func DataRowCount(rows [][]string) int {
	if len(rows) < 2 {
		return 0
	}
	n := 0
	for _, row := range rows[1:] {
		if !isRowEmpty(row) {
			n++
		}
	}
	return n
}

// cleanHeaders trims header labels and strips a BOM from the first one.
// Grids from the Sheets API never pass through Parse, so the BOM can still be
// present here.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}
