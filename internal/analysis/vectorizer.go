package analysis

import (
	"unicode"
	"unicode/utf8"

	"fuzzysheets/internal/models"
)

// Character window of the column histogram: printable ASCII from space to 'Z'.
const (
	vectorLow  = 32
	vectorHigh = 90
)

// VectorLength is the length of a column vector: one bin per code in the
// window plus the mean value length.
const VectorLength = vectorHigh - vectorLow + 2

// VectorizeColumns builds a character-distribution signature for each
// non-id column of a prepared table: counts of the upper-cased character
// codes 32..90 followed by the mean value length in characters.
func VectorizeColumns(t *models.Table) [][]float64 {
	n := t.NumColumns()
	vectors := make([][]float64, n)
	for i := range vectors {
		vectors[i] = make([]float64, VectorLength)
	}
	if len(t.Rows) == 0 {
		return vectors
	}

	lengths := make([]int, n)
	for _, row := range t.Rows {
		for i := 0; i < n && i+1 < len(row); i++ {
			v := row[i+1]
			lengths[i] += utf8.RuneCountInString(v)
			for _, r := range v {
				r = unicode.ToUpper(r)
				if r >= vectorLow && r <= vectorHigh {
					vectors[i][r-vectorLow]++
				}
			}
		}
	}

	for i := range vectors {
		vectors[i][VectorLength-1] = float64(lengths[i]) / float64(len(t.Rows))
	}
	return vectors
}
