// =============================================================================
// Pipeline Dashboard - Tabular Text Parser
// =============================================================================
//
// This module turns raw delimited text (typically a spreadsheet CSV export)
// into rows of trimmed field strings. It handles:
//   - A leading UTF-8 byte-order mark
//   - \r\n and bare \r line endings
//   - Quoted fields with embedded commas and newlines
//   - Doubled quotes ("") as an escaped quote inside a quoted field
//
// The parser never fails. Malformed quoting degrades gracefully: an
// unterminated quote keeps absorbing delimiters and newlines as literal
// content until the next quote character.
//
// encoding/csv is not used here because it rejects or reinterprets exactly the
// inputs this parser must accept (bare quotes in unquoted fields, unbalanced
// quotes at end of input) and does not drop blank lines the same way.
//
// =============================================================================

package csvparser

import "strings"

const utf8BOM = "\uFEFF"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse splits text into rows of fields.
//
// PARSING PROCESS:
//  1. Strip a leading BOM and normalize line endings to \n
//  2. Scan left to right, tracking whether we are inside quotes
//  3. Emit a trimmed field on each delimiter outside quotes
//  4. Emit the row on each newline outside quotes, dropping blank rows
//  5. Flush any pending field or row at end of input
func Parse(text string) [][]string {
	text = strings.TrimPrefix(text, utf8BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		rows         [][]string
		row          []string
		field        strings.Builder
		insideQuotes bool
	)

	endField := func() {
		row = append(row, strings.TrimSpace(field.String()))
		field.Reset()
	}
	endRow := func() {
		endField()
		if !isBlankRow(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch {
		case c == '"':
			if insideQuotes && i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			insideQuotes = !insideQuotes
		case c == ',' && !insideQuotes:
			endField()
		case c == '\n' && !insideQuotes:
			endRow()
		default:
			field.WriteByte(c)
		}
	}

	// A trailing row without a final newline still counts.
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}

// isBlankRow reports whether a row is a blank line (a single empty field).
func isBlankRow(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && row[0] == "")
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
