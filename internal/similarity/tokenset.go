package similarity

import (
	"strings"
	"unicode"
)

// TokenSetRatio compares two strings as sets of words. Tokens of the shorter
// string are paired greedily with tokens of the longer one by a cheap
// token-shape cosine (length + first character), and the final score is the
// mean edit-distance ratio of the paired tokens.
func TokenSetRatio(s1, s2 string) float64 {
	return TokenSetRatioCost(s1, s2, DefaultSubstitutionCost)
}

// TokenSetRatioCost is TokenSetRatio with the given substitution cost for
// the token edit distance.
func TokenSetRatioCost(s1, s2 string, substitutionCost int) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 1
	}

	query, candidates := tokenize(s1), tokenize(s2)
	if len(query) > len(candidates) {
		query, candidates = candidates, query
	}
	if len(query) == 0 {
		return 0
	}

	vq, vc := tokenVectors(query, candidates)
	sims := make([][]float64, len(vq))
	for i := range vq {
		sims[i] = make([]float64, len(vc))
		for j := range vc {
			sims[i][j] = Cosine(vq[i], vc[j])
		}
	}

	pairs := pairTokens(sims)
	total := 0.0
	for _, p := range pairs {
		total += LevenshteinRatioCost(query[p[0]], candidates[p[1]], substitutionCost)
	}
	return total / float64(len(pairs))
}

// tokenize splits on whitespace and commas and upper-cases the tokens.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// tokenVectors maps each token to [length, one-hot(first rune)], where the
// one-hot part spans the range of first runes seen in both token lists.
func tokenVectors(query, candidates []string) ([][]float64, [][]float64) {
	lo, hi := rune(unicode.MaxRune), rune(0)
	for _, list := range [][]string{query, candidates} {
		for _, tok := range list {
			first := []rune(tok)[0]
			lo = min(lo, first)
			hi = max(hi, first)
		}
	}
	width := int(hi-lo) + 1

	build := func(list []string) [][]float64 {
		out := make([][]float64, len(list))
		for i, tok := range list {
			r := []rune(tok)
			v := make([]float64, width+1)
			v[0] = float64(len(r))
			v[1+int(r[0]-lo)] = 1
			out[i] = v
		}
		return out
	}
	return build(query), build(candidates)
}

// pairTokens repeatedly takes the unpaired query token with the highest
// similarity to any remaining candidate and pairs the two. Ties go to the
// lowest query index, then the lowest candidate index.
func pairTokens(sims [][]float64) [][2]int {
	if len(sims) == 0 {
		return nil
	}
	queryDone := make([]bool, len(sims))
	candDone := make([]bool, len(sims[0]))
	var pairs [][2]int

	for len(pairs) < len(sims) && len(pairs) < len(candDone) {
		bi, bj, best := -1, -1, -1.0
		for i, row := range sims {
			if queryDone[i] {
				continue
			}
			for j, s := range row {
				if candDone[j] {
					continue
				}
				if s > best {
					bi, bj, best = i, j, s
				}
			}
		}
		if bi < 0 {
			break
		}
		queryDone[bi], candDone[bj] = true, true
		pairs = append(pairs, [2]int{bi, bj})
	}
	return pairs
}
