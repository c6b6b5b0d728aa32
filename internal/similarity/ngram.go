package similarity

import "strings"

// DefaultNGramSize is the n used for header names and alphanumeric values.
const DefaultNGramSize = 2

// NGramRatio returns the Jaccard similarity of the character n-gram sets of
// both strings. n is clamped to the length of the shorter string.
func NGramRatio(s1, s2 string, n int) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 1
	}

	r1 := []rune(strings.ToLower(strings.TrimSpace(s1)))
	r2 := []rune(strings.ToLower(strings.TrimSpace(s2)))
	n = min(n, len(r1), len(r2))
	if n < 1 {
		return 0
	}

	set1 := generateNGrams(r1, n)
	set2 := generateNGrams(r2, n)

	intersection := 0
	for g := range set1 {
		if _, ok := set2[g]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// generateNGrams creates the set of contiguous rune n-grams
func generateNGrams(r []rune, n int) map[string]struct{} {
	grams := make(map[string]struct{}, len(r))
	for i := 0; i+n <= len(r); i++ {
		grams[string(r[i:i+n])] = struct{}{}
	}
	return grams
}
