package service

import (
	"context"
	"fmt"
	"time"

	"fuzzysheets/internal/analysis"
	"fuzzysheets/internal/logging"
	"fuzzysheets/internal/models"
)

// Engine runs the matching pipeline on raw tables: it prepares their id
// columns, then classifies, aligns, matches and merges.
type Engine struct {
	opts   Options
	logger *logging.ComponentLogger
}

// MergeResult bundles every stage of a merge.
type MergeResult struct {
	Alignment *ColumnAlignment    `json:"alignment"`
	Rows      *RowMatchResult     `json:"rows"`
	Table     *models.MergedTable `json:"table"`
}

// InputPairs returns the row pairs oriented as the tables were passed to
// Merge, undoing the swap of the alignment.
func (r *MergeResult) InputPairs() []models.Pair {
	out := make([]models.Pair, len(r.Rows.Pairs))
	for i, p := range r.Rows.Pairs {
		if r.Alignment.Swapped {
			p = p.Swap()
		}
		out[i] = p
	}
	return out
}

// DetectResult bundles duplicate detection with the sorted table.
type DetectResult struct {
	*DuplicateResult
	Table  *models.Table `json:"-"`
	Sorted *models.Table `json:"-"`
}

// NewEngine validates opts. A nil logger discards output.
func NewEngine(opts Options, logger *logging.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{opts: opts, logger: logger.WithComponent("engine")}, nil
}

// WithOptions returns an engine with opts that logs like e.
func (e *Engine) WithOptions(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, logger: e.logger}, nil
}

// Options returns a copy of the engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Prepare validates t and makes sure its first column is an id column.
func (e *Engine) Prepare(t *models.Table) (*models.Table, error) {
	prepared, synthesized, err := analysis.PrepareTable(t)
	if err != nil {
		return nil, err
	}
	if synthesized && t.ID == models.FlagYes {
		e.logger.Warn("declared id column is not a valid id column, synthesized one",
			logging.String("table", t.Name), logging.String("column", t.Header[0]))
	}
	return prepared, nil
}

// ClassifyColumns infers the type of every non-id column of t.
func (e *Engine) ClassifyColumns(t *models.Table) ([]models.ColumnType, error) {
	prepared, err := e.Prepare(t)
	if err != nil {
		return nil, err
	}
	return analysis.ClassifyColumns(prepared), nil
}

// MatchColumns prepares both tables and aligns their columns.
func (e *Engine) MatchColumns(a, b *models.Table) (*ColumnAlignment, error) {
	pa, err := e.Prepare(a)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", tableLabel(a, "first"), err)
	}
	pb, err := e.Prepare(b)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", tableLabel(b, "second"), err)
	}

	alignment := MatchColumns(pa, pb, e.opts)
	e.logger.Debug("columns matched",
		logging.String("left", alignment.Left.Name),
		logging.String("right", alignment.Right.Name),
		logging.Any("pairs", alignment.Pairs),
		logging.Any("types", alignment.Types),
		logging.Bool("swapped", alignment.Swapped))
	return alignment, nil
}

// MatchRows pairs the rows of two tables over the given column pairs.
func (e *Engine) MatchRows(ctx context.Context, left, right *models.Table, pairs []models.Pair, types []models.ColumnType) (*RowMatchResult, error) {
	pl, err := e.Prepare(left)
	if err != nil {
		return nil, err
	}
	pr, err := e.Prepare(right)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := matchRows(ctx, pl, pr, pairs, types, e.opts, e.progress("match rows"))
	if err != nil {
		return nil, err
	}
	e.logRankings(result.Rankings)
	e.logger.Info("rows matched",
		logging.Int("left_rows", pl.NumRows()),
		logging.Int("right_rows", pr.NumRows()),
		logging.Int("matched", countComplete(result.Pairs)),
		logging.Duration("elapsed", time.Since(start)))
	return result, nil
}

// DetectDuplicates finds duplicate rows of t and builds the sorted table.
func (e *Engine) DetectDuplicates(ctx context.Context, t *models.Table) (*DetectResult, error) {
	prepared, err := e.Prepare(t)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dup, err := detectDuplicates(ctx, prepared, e.opts, e.progress("detect duplicates"))
	if err != nil {
		return nil, err
	}
	e.logRankings(dup.Rankings)
	e.logger.Info("duplicates detected",
		logging.String("table", prepared.Name),
		logging.Int("rows", prepared.NumRows()),
		logging.Int("duplicates", dup.Duplicates()),
		logging.Float64("threshold", e.opts.DuplicateThreshold),
		logging.Duration("elapsed", time.Since(start)))

	return &DetectResult{
		DuplicateResult: dup,
		Table:           prepared,
		Sorted:          SortDuplicates(prepared, dup.Pairs),
	}, nil
}

// Merge aligns the columns of a and b, matches their rows and writes the
// merged table.
func (e *Engine) Merge(ctx context.Context, a, b *models.Table) (*MergeResult, error) {
	alignment, err := e.MatchColumns(a, b)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := matchRows(ctx, alignment.Left, alignment.Right, alignment.Pairs, alignment.Types, e.opts, e.progress("merge"))
	if err != nil {
		return nil, err
	}
	e.logRankings(rows.Rankings)

	merged := MergeTables(alignment.Left, alignment.Right, alignment.Pairs, rows.Pairs)
	e.logger.Info("tables merged",
		logging.String("left", alignment.Left.Name),
		logging.String("right", alignment.Right.Name),
		logging.Int("matched", countComplete(rows.Pairs)),
		logging.Int("output_rows", len(merged.Rows)),
		logging.Duration("elapsed", time.Since(start)))
	return &MergeResult{Alignment: alignment, Rows: rows, Table: merged}, nil
}

// progress logs matrix fill progress in steps of ten percent.
func (e *Engine) progress(stage string) progressFunc {
	if !e.logger.Enabled(logging.LevelDebug) {
		return nil
	}
	return func(done, total int) {
		step := total / 10
		if step == 0 {
			step = 1
		}
		if done%step == 0 || done == total {
			e.logger.Debug("similarity matrix progress",
				logging.String("stage", stage),
				logging.Int("done", done),
				logging.Int("total", total))
		}
	}
}

func (e *Engine) logRankings(rankings []models.Ranking) {
	if !e.logger.Enabled(logging.LevelDebug) {
		return
	}
	for _, r := range rankings {
		e.logger.Debug("ranking",
			logging.Int("row", r.Row),
			logging.Int("partner", r.Partner),
			logging.Float64("score", r.Score),
			logging.Float64("offset_ratio", r.Offset))
	}
}

func countComplete(pairs []models.Pair) int {
	n := 0
	for _, p := range pairs {
		if p.Complete() {
			n++
		}
	}
	return n
}

func tableLabel(t *models.Table, fallback string) string {
	if t != nil && t.Name != "" {
		return t.Name
	}
	return fallback + " table"
}
