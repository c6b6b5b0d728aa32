package similarity

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics and upper-cases s: NFD decomposition, removal of
// nonspacing marks, full Unicode upper-casing ("Müller" -> "MULLER",
// "Straße" -> "STRASSE").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Upper(language.Und))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldAll folds every value of row.
func FoldAll(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = Fold(v)
	}
	return out
}
