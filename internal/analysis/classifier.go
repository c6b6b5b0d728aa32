package analysis

import (
	"strings"
	"unicode"

	"fuzzysheets/internal/models"
)

// ClassifyValue infers the column type a single value suggests.
func ClassifyValue(v string) models.ColumnType {
	v = strings.ToLower(strings.TrimSpace(v))

	digits, letters := 0, 0
	for _, r := range v {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if digits > letters {
		return models.AlphaNumeric
	}
	if strings.ContainsAny(v, " ,") {
		return models.Set
	}
	return models.Word
}

// ClassifyColumns infers one type per non-id column of a prepared table:
// the mode of the per-value types, ties resolved in enumeration order.
func ClassifyColumns(t *models.Table) []models.ColumnType {
	n := t.NumColumns()
	counts := make([][models.NumColumnTypes]int, n)

	for _, row := range t.Rows {
		for i := 0; i < n && i+1 < len(row); i++ {
			counts[i][ClassifyValue(row[i+1])]++
		}
	}

	types := make([]models.ColumnType, n)
	for i, c := range counts {
		best := models.Word
		for _, ct := range models.ColumnTypes {
			if c[ct] > c[best] {
				best = ct
			}
		}
		types[i] = best
	}
	return types
}
