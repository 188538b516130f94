// =============================================================================
// Pipeline Dashboard - Amount Normalizer
// =============================================================================
//
// This module parses free-form monetary and numeric strings that may use
// either US (1,234.56) or European (1.234,56) separators.
//
// RULES:
//   1. Keep only digits, '.', ',' and '-'
//   2. A single comma followed by one or two digits at the end marks the
//      European form: dots are dropped and the comma becomes the point
//   3. Otherwise commas are thousands separators and are dropped
//
// =============================================================================

package amount

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Everything that is not part of a number.
	nonNumeric = regexp.MustCompile(`[^0-9.,\-]`)

	// Digits and dots, a comma, then one or two digits: 1.234.567,89
	europeanDecimal = regexp.MustCompile(`^-?[0-9.]*[0-9],[0-9]{1,2}$`)
)

// Parse converts s into a decimal. The boolean is false when s is empty or
// does not contain a valid number.
func Parse(s string) (decimal.Decimal, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, false
	}

	if europeanDecimal.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseNull is Parse for nullable entity fields.
func ParseNull(s string) decimal.NullDecimal {
	d, ok := Parse(s)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}
