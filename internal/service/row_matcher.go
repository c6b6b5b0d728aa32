package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/models"
	"fuzzysheets/internal/similarity"
)

// RowMatchResult is the outcome of a cross-table row matching.
type RowMatchResult struct {
	Pairs    []models.Pair           `json:"pairs"`
	Rankings []models.Ranking        `json:"rankings"`
	Matrix   models.SimilarityMatrix `json:"-"`
}

// progressFunc receives the number of finished matrix rows.
type progressFunc func(done, total int)

// rowScorer compares two folded rows (id column removed) over a fixed set
// of column pairs.
type rowScorer struct {
	pairs   []models.Pair
	types   []models.ColumnType
	weights []float64
	scorer  similarity.Scorer
}

func newRowScorer(pairs []models.Pair, types []models.ColumnType, widthL, widthR int, opts Options) (*rowScorer, error) {
	rs := &rowScorer{scorer: opts.scorer()}
	for _, p := range pairs {
		if !p.Complete() {
			continue
		}
		if p.Left < 0 || p.Left >= widthL || p.Right < 0 || p.Right >= widthR {
			return nil, errs.NewValidation("service.MatchRows", fmt.Sprintf("column pair %v out of range", p), nil)
		}
		rs.pairs = append(rs.pairs, p)
	}
	if len(types) != len(rs.pairs) {
		return nil, errs.NewValidation("service.MatchRows",
			fmt.Sprintf("%d column types for %d matched column pairs", len(types), len(rs.pairs)), nil)
	}
	rs.types = types

	total := 0.0
	for _, t := range types {
		total += t.Weight()
	}
	rs.weights = make([]float64, len(types))
	for k, t := range types {
		rs.weights[k] = t.Weight() / total
	}
	return rs, nil
}

func (rs *rowScorer) score(a, b []string) float64 {
	sum := 0.0
	for k, p := range rs.pairs {
		sum += rs.weights[k] * rs.scorer.Score(rs.types[k], a[p.Left], b[p.Right])
	}
	return sum
}

// foldRows drops the id column and folds every field.
func foldRows(t *models.Table) [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = similarity.FoldAll(row[1:])
	}
	return out
}

// MatchRows pairs the rows of two prepared tables over the given column
// pairs. types holds one column type per complete pair in pair order.
// Every row of both tables appears in exactly one returned pair.
func MatchRows(ctx context.Context, left, right *models.Table, pairs []models.Pair, types []models.ColumnType, opts Options) (*RowMatchResult, error) {
	return matchRows(ctx, left, right, pairs, types, opts, nil)
}

func matchRows(ctx context.Context, left, right *models.Table, pairs []models.Pair, types []models.ColumnType, opts Options, progress progressFunc) (*RowMatchResult, error) {
	rs, err := newRowScorer(pairs, types, left.NumColumns(), right.NumColumns(), opts)
	if err != nil {
		return nil, err
	}

	m, n := left.NumRows(), right.NumRows()
	mx := models.NewSimilarityMatrix(m, n)
	if m == 0 || n == 0 {
		return &RowMatchResult{Pairs: completePartition(nil, m, n), Rankings: []models.Ranking{}, Matrix: mx}, nil
	}

	rowsL, rowsR := foldRows(left), foldRows(right)
	err = fillMatrix(ctx, m, opts.workers(), func(i int) {
		for j := range rowsR {
			mx[i][j] = rs.score(rowsL[i], rowsR[j])
		}
	}, progress)
	if err != nil {
		return nil, err
	}

	rankings := rankRows(mx)
	accepted := claimRows(rankings, n, opts)
	return &RowMatchResult{Pairs: completePartition(accepted, m, n), Rankings: rankings, Matrix: mx}, nil
}

// claimRows walks the sorted rankings once. A row takes its best partner
// when the partner is unclaimed and the score either stands out from the
// rest of its row or reaches the match threshold. A row whose partner is
// taken stays unmatched.
func claimRows(rankings []models.Ranking, n int, opts Options) []models.Pair {
	claimed := make([]bool, n)
	var accepted []models.Pair
	for _, r := range rankings {
		ok := (r.Offset >= opts.OffsetRatioMin && r.Score >= opts.OffsetScoreMin) || r.Score >= opts.MatchThreshold
		if ok && !claimed[r.Partner] {
			accepted = append(accepted, models.Pair{Left: r.Row, Right: r.Partner})
			claimed[r.Partner] = true
		}
	}
	return accepted
}

// rankRows finds the best partner of every matrix row, lowest column on
// ties, and sorts the rankings by score, stable on row order.
func rankRows(mx models.SimilarityMatrix) []models.Ranking {
	rankings := make([]models.Ranking, 0, len(mx))
	for i, row := range mx {
		if len(row) == 0 {
			continue
		}
		best, partner, sum := row[0], 0, 0.0
		for j, v := range row {
			sum += v
			if v > best {
				best, partner = v, j
			}
		}
		rankings = append(rankings, models.Ranking{Row: i, Partner: partner, Score: best, Offset: offsetRatio(best, sum, len(row))})
	}
	sort.SliceStable(rankings, func(a, b int) bool { return rankings[a].Score > rankings[b].Score })
	return rankings
}

// offsetRatio measures how far the best score stands out from the mean of
// the other scores of its row. 1 when the row has a single cell, 0 when the
// best score is 0.
func offsetRatio(best, sum float64, width int) float64 {
	if best <= 0 {
		return 0
	}
	if width < 2 {
		return 1
	}
	return 1 - ((sum-best)/float64(width-1))/best
}

// completePartition sorts accepted pairs by left index and appends every
// row of either side that is not in an accepted pair, ascending.
func completePartition(accepted []models.Pair, m, n int) []models.Pair {
	sort.SliceStable(accepted, func(a, b int) bool { return accepted[a].Left < accepted[b].Left })

	seenL := make([]bool, m)
	seenR := make([]bool, n)
	out := make([]models.Pair, 0, m+n)
	for _, p := range accepted {
		out = append(out, p)
		seenL[p.Left] = true
		seenR[p.Right] = true
	}
	for i := 0; i < m; i++ {
		if !seenL[i] {
			out = append(out, models.Pair{Left: i, Right: models.None})
		}
	}
	for j := 0; j < n; j++ {
		if !seenR[j] {
			out = append(out, models.Pair{Left: models.None, Right: j})
		}
	}
	return out
}

// fillMatrix runs fillRow for rows 0..m-1 on a bounded pool of workers.
// Cells filled by different rows must not overlap. Returns ctx.Err() if the
// context ends before every row was handed out.
func fillMatrix(ctx context.Context, m, workers int, fillRow func(i int), progress progressFunc) error {
	if workers > m {
		workers = m
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var done int64
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fillRow(i)
				finished := atomic.AddInt64(&done, 1)
				if progress != nil {
					progress(int(finished), m)
				}
			}
		}()
	}

	var err error
feed:
	for i := 0; i < m; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return err
}
