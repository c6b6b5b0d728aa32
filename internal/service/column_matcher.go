package service

import (
	"sort"

	"fuzzysheets/internal/analysis"
	"fuzzysheets/internal/models"
	"fuzzysheets/internal/similarity"
)

// ColumnAlignment is the result of matching the columns of two prepared
// tables. Left is the table with fewer rows; Pairs index non-id columns of
// Left and Right; Types holds one type per complete pair in pair order.
type ColumnAlignment struct {
	Left    *models.Table       `json:"-"`
	Right   *models.Table       `json:"-"`
	Pairs   []models.Pair       `json:"pairs"`
	Types   []models.ColumnType `json:"types"`
	Scores  []float64           `json:"scores"`
	Swapped bool                `json:"swapped"`
}

// Complete returns the pairs with both sides present.
func (a *ColumnAlignment) Complete() []models.Pair {
	out := make([]models.Pair, 0, len(a.Types))
	for _, p := range a.Pairs {
		if p.Complete() {
			out = append(out, p)
		}
	}
	return out
}

// MatchColumns aligns the columns of two prepared tables. The table with
// fewer non-id columns claims columns of the other: left columns are visited
// in descending order of their best blended score and take the best
// unclaimed right column, skipping candidates of a different type when
// opts.TypeConstrained is set. The result is then oriented so that Left is
// the table with fewer rows.
func MatchColumns(a, b *models.Table, opts Options) *ColumnAlignment {
	left, right := a, b
	swapped := false
	if b.NumColumns() < a.NumColumns() {
		left, right = b, a
		swapped = true
	}

	typesL := analysis.ClassifyColumns(left)
	typesR := analysis.ClassifyColumns(right)
	blend := blendScores(left, right, opts.ColumnNameWeight)

	nl, nr := left.NumColumns(), right.NumColumns()
	best := make([]float64, nl)
	order := make([]int, nl)
	for i := range order {
		order[i] = i
		for _, s := range blend[i] {
			if s > best[i] {
				best[i] = s
			}
		}
	}
	sort.SliceStable(order, func(x, y int) bool { return best[order[x]] > best[order[y]] })

	claimed := make([]bool, nr)
	partner := make([]int, nl)
	for _, i := range order {
		partner[i] = pickColumn(blend[i], claimed, typesL[i], typesR, opts.TypeConstrained)
		if partner[i] != models.None {
			claimed[partner[i]] = true
		}
	}

	out := &ColumnAlignment{Left: left, Right: right, Swapped: swapped}
	for i := 0; i < nl; i++ {
		p := models.Pair{Left: i, Right: partner[i]}
		score := 0.0
		if p.HasRight() {
			score = blend[i][p.Right]
			out.Types = append(out.Types, typesL[i])
		}
		out.Pairs = append(out.Pairs, p)
		out.Scores = append(out.Scores, score)
	}
	for j := 0; j < nr; j++ {
		if !claimed[j] {
			out.Pairs = append(out.Pairs, models.Pair{Left: models.None, Right: j})
			out.Scores = append(out.Scores, 0)
		}
	}

	if right.NumRows() < left.NumRows() {
		out.Left, out.Right = right, left
		out.Swapped = !out.Swapped
		for k, p := range out.Pairs {
			out.Pairs[k] = p.Swap()
		}
	}
	return out
}

// pickColumn returns the best unclaimed right column with a positive score,
// or None. Lowest index wins ties.
func pickColumn(scores []float64, claimed []bool, t models.ColumnType, typesR []models.ColumnType, typed bool) int {
	l := append([]float64(nil), scores...)
	for {
		j, s := models.None, 0.0
		for k, v := range l {
			if !claimed[k] && v > s {
				j, s = k, v
			}
		}
		if j == models.None {
			return models.None
		}
		if typed && typesR[j] != t {
			l[j] = 0
			continue
		}
		return j
	}
}

// blendScores averages the character-histogram cosine and the header bigram
// ratio of every column pair, weighting the header by p.
func blendScores(left, right *models.Table, p float64) models.SimilarityMatrix {
	vl := analysis.VectorizeColumns(left)
	vr := analysis.VectorizeColumns(right)
	mx := models.NewSimilarityMatrix(len(vl), len(vr))
	for i := range vl {
		for j := range vr {
			cos := similarity.Cosine(vl[i], vr[j])
			names := similarity.NGramRatio(left.Header[i+1], right.Header[j+1], similarity.DefaultNGramSize)
			mx[i][j] = ((1-p)*cos + p*names) / 2
		}
	}
	return mx
}
