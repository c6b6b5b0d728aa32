package service

import (
	"context"
	"sort"
	"strconv"

	"fuzzysheets/internal/analysis"
	"fuzzysheets/internal/models"
)

// GroupColumnName heads the group number column of a sorted duplicates table.
const GroupColumnName = "id(new)"

// DuplicateResult is the outcome of duplicate detection within one table.
type DuplicateResult struct {
	Pairs    []models.Pair           `json:"pairs"`
	Rankings []models.Ranking        `json:"rankings"`
	Types    []models.ColumnType     `json:"types"`
	Matrix   models.SimilarityMatrix `json:"-"`
}

// Duplicates counts the accepted pairs.
func (r *DuplicateResult) Duplicates() int {
	return countComplete(r.Pairs)
}

// DetectDuplicates compares every row of a prepared table with every other
// row over all non-id columns. Rows are visited by descending best score;
// a row claims its best partner when the score reaches
// opts.DuplicateThreshold, the partner was not claimed before and the row
// itself was not claimed before. Only the partner becomes claimed, so a
// claimant may still be claimed by a later row and pairs can chain into
// groups. Rows in no accepted pair are returned as (i, None).
func DetectDuplicates(ctx context.Context, t *models.Table, opts Options) (*DuplicateResult, error) {
	return detectDuplicates(ctx, t, opts, nil)
}

func detectDuplicates(ctx context.Context, t *models.Table, opts Options, progress progressFunc) (*DuplicateResult, error) {
	types := analysis.ClassifyColumns(t)
	pairs := make([]models.Pair, len(types))
	for i := range pairs {
		pairs[i] = models.Pair{Left: i, Right: i}
	}
	rs, err := newRowScorer(pairs, types, t.NumColumns(), t.NumColumns(), opts)
	if err != nil {
		return nil, err
	}

	n := t.NumRows()
	mx := models.NewSimilarityMatrix(n, n)
	rows := foldRows(t)
	err = fillMatrix(ctx, n, opts.workers(), func(i int) {
		for j := i + 1; j < n; j++ {
			s := rs.score(rows[i], rows[j])
			mx[i][j] = s
			mx[j][i] = s
		}
	}, progress)
	if err != nil {
		return nil, err
	}

	rankings := rankRows(mx)
	return &DuplicateResult{
		Pairs:    duplicatePartition(claimDuplicates(rankings, n, opts.DuplicateThreshold), n),
		Rankings: rankings,
		Types:    types,
		Matrix:   mx,
	}, nil
}

// claimDuplicates accepts (row, partner) when the score reaches threshold
// and neither side has been claimed as a partner yet. Only the partner is
// marked claimed.
func claimDuplicates(rankings []models.Ranking, n int, threshold float64) []models.Pair {
	claimed := make([]bool, n)
	var accepted []models.Pair
	for _, r := range rankings {
		if r.Partner == r.Row || claimed[r.Partner] || claimed[r.Row] {
			continue
		}
		if r.Score >= threshold {
			accepted = append(accepted, models.Pair{Left: r.Row, Right: r.Partner})
			claimed[r.Partner] = true
		}
	}
	return accepted
}

// duplicatePartition sorts accepted pairs by claimant and appends (i, None)
// for every row that takes part in no pair.
func duplicatePartition(accepted []models.Pair, n int) []models.Pair {
	sort.SliceStable(accepted, func(a, b int) bool { return accepted[a].Left < accepted[b].Left })

	out := make([]models.Pair, 0, n)
	seen := make([]bool, n)
	for _, p := range accepted {
		out = append(out, p)
		seen[p.Left] = true
		seen[p.Right] = true
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			out = append(out, models.Pair{Left: i, Right: models.None})
		}
	}
	return out
}

// SortDuplicates reorders the rows of a prepared table so that rows linked
// by duplicate pairs are adjacent, groups in pair order and rows without a
// duplicate last. A leading id(new) column holds the 1-based group number.
// Every row is emitted exactly once.
func SortDuplicates(t *models.Table, pairs []models.Pair) *models.Table {
	n := t.NumRows()
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, p := range pairs {
		if p.Complete() && p.Left < n && p.Right < n {
			if a, b := find(p.Left), find(p.Right); a != b {
				parent[b] = a
			}
		}
	}

	var roots []int
	members := make(map[int][]int)
	emitted := make([]bool, n)
	visit := func(i int) {
		if i == models.None || i >= n || emitted[i] {
			return
		}
		emitted[i] = true
		r := find(i)
		if _, ok := members[r]; !ok {
			roots = append(roots, r)
		}
		members[r] = append(members[r], i)
	}
	for _, p := range pairs {
		visit(p.Left)
		visit(p.Right)
	}
	for i := 0; i < n; i++ {
		visit(i)
	}

	out := &models.Table{
		Name:   t.Name,
		Header: append([]string{GroupColumnName}, t.Header...),
		Rows:   make([][]string, 0, n),
	}
	for g, r := range roots {
		for _, i := range members[r] {
			out.Rows = append(out.Rows, append([]string{strconv.Itoa(g + 1)}, t.Rows[i]...))
		}
	}
	return out
}
