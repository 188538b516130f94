// =============================================================================
// Pipeline Dashboard - Record Identifiers
// =============================================================================
//
// This module validates CRM record identifiers and extends the 15-character
// case-sensitive form into the 18-character case-insensitive form.
//
// SUFFIX ALGORITHM:
//   The 15 characters are split into three 5-character chunks. In each chunk
//   bit j is set when character j is an upper-case letter; the 5-bit value
//   selects one character of ABCDEFGHIJKLMNOPQRSTUVWXYZ012345.
//
// =============================================================================

package recordid

import "strings"

// Prefix is the key prefix carried by every opportunity identifier.
const Prefix = "006"

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"

// IsValid reports whether s, trimmed, is a 15 or 18 character alphanumeric
// identifier starting with Prefix.
func IsValid(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 15 && len(s) != 18 {
		return false
	}
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlphanumeric(s[i]) {
			return false
		}
	}
	return true
}

// To18 returns the 18-character form of a 15-character identifier. Inputs of
// any other length are returned unchanged.
func To18(s string) string {
	if len(s) != 15 {
		return s
	}

	var suffix [3]byte
	for chunk := 0; chunk < 3; chunk++ {
		flags := 0
		for j := 0; j < 5; j++ {
			c := s[chunk*5+j]
			if c >= 'A' && c <= 'Z' {
				flags |= 1 << j
			}
		}
		suffix[chunk] = suffixAlphabet[flags]
	}

	return s + string(suffix[:])
}

// Canonical trims s and returns its 18-character form when s is valid.
func Canonical(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !IsValid(s) {
		return "", false
	}
	return To18(s), true
}

func isAlphanumeric(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
