package similarity

import "fuzzysheets/internal/models"

// Scorer applies the metric selected by a column type.
type Scorer struct {
	SubstitutionCost int
	NGramSize        int
}

// DefaultScorer uses substitution cost 2 and bigrams.
func DefaultScorer() Scorer {
	return Scorer{SubstitutionCost: DefaultSubstitutionCost, NGramSize: DefaultNGramSize}
}

// Score compares two values of a column of type t.
func (s Scorer) Score(t models.ColumnType, v1, v2 string) float64 {
	switch t {
	case models.Word:
		return LevenshteinRatioCost(v1, v2, s.SubstitutionCost)
	case models.AlphaNumeric:
		return NGramRatio(v1, v2, s.NGramSize)
	default:
		return TokenSetRatioCost(v1, v2, s.SubstitutionCost)
	}
}
