package similarity

// DefaultSubstitutionCost makes a substitution cost as much as one
// insertion plus one deletion.
const DefaultSubstitutionCost = 2

// LevenshteinRatio calculates the similarity ratio (0-1) of two strings
// using substitution cost 2.
func LevenshteinRatio(s1, s2 string) float64 {
	return LevenshteinRatioCost(s1, s2, DefaultSubstitutionCost)
}

// LevenshteinRatioCost is LevenshteinRatio with an explicit substitution cost.
func LevenshteinRatioCost(s1, s2 string, substitutionCost int) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 1
	}
	r1, r2 := []rune(s1), []rune(s2)
	total := len(r1) + len(r2)
	d := levenshtein(r1, r2, substitutionCost)
	ratio := float64(total-d) / float64(total)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// LevenshteinDistance returns the edit distance with insertion and
// deletion cost 1 and the given substitution cost.
func LevenshteinDistance(s1, s2 string, substitutionCost int) int {
	return levenshtein([]rune(s1), []rune(s2), substitutionCost)
}

// levenshtein fills the memo table cache[i][j] = distance between the
// first i runes of r1 and the first j runes of r2.
func levenshtein(r1, r2 []rune, substitutionCost int) int {
	len1, len2 := len(r1), len(r2)

	cache := make([][]int, len1+1)
	for i := range cache {
		cache[i] = make([]int, len2+1)
		cache[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		cache[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			if r1[i-1] == r2[j-1] {
				cache[i][j] = cache[i-1][j-1]
				continue
			}
			sub := cache[i-1][j-1] + substitutionCost
			ins := cache[i-1][j] + 1
			del := cache[i][j-1] + 1
			cache[i][j] = min(sub, ins, del)
		}
	}
	return cache[len1][len2]
}
