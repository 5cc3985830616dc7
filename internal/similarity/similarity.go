// Package similarity implements trigram-based fuzzy string matching used by
// the suggestion sources. Scores are deterministic and symmetric except for
// the prefix bonus, which favors the query being a prefix of the candidate.
package similarity

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum score for a candidate to be considered a
// match. Tuned so one transposition or a dropped trailing character in a
// short query still matches.
const DefaultThreshold = 0.3

// Score returns a similarity score in [0, 1] between query and candidate.
// Comparison is case-insensitive. Equal strings score 1.0; a query that is a
// strict prefix of the candidate scores at least 0.75 scaled by coverage, so
// short prefixes of long titles clear DefaultThreshold.
func Score(query, candidate string) float64 {
	q := Normalize(query)
	c := Normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 1.0
	}

	dice := diceCoefficient(trigrams(q), trigrams(c))

	if strings.HasPrefix(c, q) {
		coverage := float64(len(q)) / float64(len(c))
		prefix := 0.75 + 0.25*coverage
		if prefix > dice {
			return prefix
		}
	}
	return dice
}

// Normalize lowercases s, collapses runs of whitespace to single spaces and
// trims the result. All similarity comparisons and dedup keys use this form.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// trigrams returns the multiset of rune trigrams of s, with the string padded
// so that single- and two-rune inputs still produce at least one gram.
func trigrams(s string) map[string]int {
	runes := []rune("  " + s + " ")
	grams := make(map[string]int, len(runes))
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])]++
	}
	return grams
}

func diceCoefficient(a, b map[string]int) float64 {
	totalA, totalB := 0, 0
	for _, n := range a {
		totalA += n
	}
	for _, n := range b {
		totalB += n
	}
	if totalA+totalB == 0 {
		return 0
	}
	shared := 0
	for g, n := range a {
		if m, ok := b[g]; ok {
			shared += min(n, m)
		}
	}
	return 2 * float64(shared) / float64(totalA+totalB)
}
