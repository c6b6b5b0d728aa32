package service

import (
	"sort"

	"fuzzysheets/internal/models"
)

const (
	leftSuffix  = " (left)"
	rightSuffix = " (right)"
)

// MergeTables writes one row per row pair with the columns of both prepared
// tables side by side. The header starts with both id columns followed by
// the column pairs ordered matched, then left only, then right only; names
// carry a (left) or (right) suffix. Cells of the side absent from a row
// pair are nil.
func MergeTables(left, right *models.Table, columnPairs, rowPairs []models.Pair) *models.MergedTable {
	pairs := append([]models.Pair(nil), columnPairs...)
	sort.SliceStable(pairs, func(a, b int) bool {
		ga, gb := pairGroup(pairs[a]), pairGroup(pairs[b])
		if ga != gb {
			return ga < gb
		}
		if pairs[a].Left != pairs[b].Left {
			return pairs[a].Left < pairs[b].Left
		}
		return pairs[a].Right < pairs[b].Right
	})

	header := []string{left.Header[0] + leftSuffix, right.Header[0] + rightSuffix}
	// positions of left and right source columns in the output row
	colsL, colsR := []int{0}, []int{0}
	posL, posR := []int{0}, []int{1}
	for _, p := range pairs {
		if p.HasLeft() {
			colsL = append(colsL, p.Left+1)
			posL = append(posL, len(header))
			header = append(header, left.Header[p.Left+1]+leftSuffix)
		}
		if p.HasRight() {
			colsR = append(colsR, p.Right+1)
			posR = append(posR, len(header))
			header = append(header, right.Header[p.Right+1]+rightSuffix)
		}
	}

	out := &models.MergedTable{Header: header, Rows: make([][]*string, 0, len(rowPairs))}
	for _, rp := range rowPairs {
		row := make([]*string, len(header))
		if rp.HasLeft() {
			fill(row, left.Rows[rp.Left], colsL, posL)
		}
		if rp.HasRight() {
			fill(row, right.Rows[rp.Right], colsR, posR)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func fill(dst []*string, src []string, cols, pos []int) {
	for k, c := range cols {
		v := src[c]
		dst[pos[k]] = &v
	}
}

// pairGroup orders column pairs: matched, left only, right only.
func pairGroup(p models.Pair) int {
	switch {
	case p.Complete():
		return 0
	case p.HasLeft():
		return 1
	default:
		return 2
	}
}
