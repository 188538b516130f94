// =============================================================================
// Pipeline Dashboard - Column Resolver
// =============================================================================
//
// Source headers drift: the same field shows up as "Access Method (L)",
// "Access_Method_L__c" or "Access Method" depending on how the grid was
// fetched and when the sheet was last edited. Resolve finds the value for a
// field given an ordered list of candidate header names.
//
// MATCHING PRECEDENCE (fixed):
//   1. exact       - normalized key equals normalized candidate
//   2. starts-with - normalized key starts with normalized candidate
//   3. contains    - normalized key contains normalized candidate
//
// Each tier walks the candidates in caller order before moving on, so an
// exact hit on a narrow label always beats a substring hit on a broad one.
// Strict lookups stop after tier 1.
//
// Substring tiers can still pick the wrong column when several headers share
// a substring ("Owner" in both "Account Owner" and "Opportunity Owner").
// Candidate lists must be ordered most specific first. When several keys
// match one candidate in the same tier, the shortest key wins, then the
// lexicographically smallest, so results never depend on map order.
//
// =============================================================================

package resolver

import (
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tier identifies which precedence tier produced a match.
type Tier int

const (
	NoMatch Tier = iota
	Exact
	StartsWith
	Contains
)

func (t Tier) String() string {
	switch t {
	case Exact:
		return "exact"
	case StartsWith:
		return "starts-with"
	case Contains:
		return "contains"
	default:
		return "none"
	}
}

// Match describes a resolved column.
type Match struct {
	Key   string
	Value string
	Tier  Tier
}

// Resolve returns the value of the first matching column, or "" when no
// column matches.
func Resolve(record map[string]string, candidates []string, strict bool) string {
	return Lookup(record, candidates, strict).Value
}

// Lookup is Resolve with the matched key and tier reported.
func Lookup(record map[string]string, candidates []string, strict bool) Match {
	keys := sortedKeys(record)
	normalized := make([]string, len(keys))
	for i, k := range keys {
		normalized[i] = Normalize(k)
	}

	tiers := []Tier{Exact}
	if !strict {
		tiers = append(tiers, StartsWith, Contains)
	}

	for _, tier := range tiers {
		for _, candidate := range candidates {
			want := Normalize(candidate)
			if want == "" {
				continue
			}
			for i, key := range normalized {
				if matches(tier, key, want) {
					return Match{Key: keys[i], Value: record[keys[i]], Tier: tier}
				}
			}
		}
	}

	return Match{}
}

// HasColumn reports whether any header resolves for the candidates.
func HasColumn(headers []string, candidates []string, strict bool) bool {
	record := make(map[string]string, len(headers))
	for _, h := range headers {
		if h != "" {
			record[h] = h
		}
	}
	return Lookup(record, candidates, strict).Tier != NoMatch
}

func matches(tier Tier, key, want string) bool {
	switch tier {
	case Exact:
		return key == want
	case StartsWith:
		return strings.HasPrefix(key, want)
	case Contains:
		return strings.Contains(key, want)
	}
	return false
}

// sortedKeys orders keys shortest first, then lexicographically.
func sortedKeys(record map[string]string) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Normalize lower-cases, trims and strips accents from a header label.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Closest returns the header with the smallest edit distance to any of the
// candidates, for diagnostics when a column cannot be resolved. It returns ""
// when headers is empty.
func Closest(headers []string, candidates []string) string {
	best := ""
	bestDistance := -1

	sorted := append([]string(nil), headers...)
	sort.Strings(sorted)

	for _, header := range sorted {
		h := []rune(Normalize(header))
		if len(h) == 0 {
			continue
		}
		for _, candidate := range candidates {
			d := levenshtein.DistanceForStrings(h, []rune(Normalize(candidate)), levenshtein.DefaultOptions)
			if bestDistance < 0 || d < bestDistance {
				best = header
				bestDistance = d
			}
		}
	}

	return best
}
