package analysis

import (
	"math"
	"strings"
	"unicode"

	"fuzzysheets/internal/models"
)

// ProfileColumn computes value statistics for one column (absolute index,
// id column included).
func ProfileColumn(t *models.Table, colIdx int) models.ColumnProfile {
	profile := models.ColumnProfile{
		TotalRows:  len(t.Rows),
		IsIDColumn: len(t.Rows) > 0,
	}
	if colIdx < len(t.Header) {
		profile.ColumnName = t.Header[colIdx]
	}

	// Track unique values and empty count
	uniqueValues := make(map[string]int)
	ids := make(map[string]struct{}, len(t.Rows))
	nonEmpty, numeric := 0, 0

	for _, row := range t.Rows {
		if colIdx >= len(row) {
			profile.IsIDColumn = false
			continue
		}
		value := strings.TrimSpace(row[colIdx])

		if isDigits(value) {
			numeric++
			id := strings.TrimLeft(value, "0")
			if _, dup := ids[id]; dup {
				profile.IsIDColumn = false
			}
			ids[id] = struct{}{}
		} else {
			profile.IsIDColumn = false
		}

		if value == "" {
			continue
		}
		nonEmpty++
		uniqueValues[value]++
	}

	profile.NonEmptyRows = nonEmpty
	profile.DistinctCount = len(uniqueValues)
	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-nonEmpty) / float64(profile.TotalRows)
		profile.NumericRatio = float64(numeric) / float64(profile.TotalRows)
	}
	if nonEmpty > 0 {
		profile.UniquenessRatio = float64(profile.DistinctCount) / float64(nonEmpty)
	}
	profile.Entropy = entropy(uniqueValues, nonEmpty)
	return profile
}

// entropy computes Shannon entropy in bits
func entropy(valueCounts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, count := range valueCounts {
		if count > 0 {
			p := float64(count) / float64(total)
			e -= p * math.Log2(p)
		}
	}
	return e
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
