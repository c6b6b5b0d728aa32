package service

import (
	"fmt"
	"runtime"
	"strings"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/similarity"
)

// Options tunes the matching engine.
type Options struct {
	// ColumnNameWeight is the share of the header n-gram score in the
	// column blend score; the character histogram gets the rest.
	ColumnNameWeight float64 `yaml:"column_name_weight"`
	// TypeConstrained only allows column pairs of equal inferred type.
	TypeConstrained bool `yaml:"type_constrained"`

	MatchThreshold     float64 `yaml:"match_threshold"`
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	OffsetRatioMin     float64 `yaml:"offset_ratio_min"`
	OffsetScoreMin     float64 `yaml:"offset_score_min"`

	SubstitutionCost int `yaml:"substitution_cost"`
	NGramSize        int `yaml:"ngram_size"`

	// Workers bounds the matrix fill goroutines; 0 means runtime.NumCPU().
	Workers int `yaml:"workers"`
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		ColumnNameWeight:   0.5,
		TypeConstrained:    true,
		MatchThreshold:     0.49,
		DuplicateThreshold: 0.45,
		OffsetRatioMin:     0.49,
		OffsetScoreMin:     0.25,
		SubstitutionCost:   similarity.DefaultSubstitutionCost,
		NGramSize:          similarity.DefaultNGramSize,
	}
}

// Validate checks ranges and reports every problem at once.
func (o Options) Validate() error {
	var problems []string
	unit := func(name string, v float64) {
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be in [0,1], got %v", name, v))
		}
	}
	unit("column_name_weight", o.ColumnNameWeight)
	unit("match_threshold", o.MatchThreshold)
	unit("duplicate_threshold", o.DuplicateThreshold)
	unit("offset_ratio_min", o.OffsetRatioMin)
	unit("offset_score_min", o.OffsetScoreMin)
	if o.SubstitutionCost < 1 {
		problems = append(problems, fmt.Sprintf("substitution_cost must be >= 1, got %d", o.SubstitutionCost))
	}
	if o.NGramSize < 1 {
		problems = append(problems, fmt.Sprintf("ngram_size must be >= 1, got %d", o.NGramSize))
	}
	if o.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must be >= 0, got %d", o.Workers))
	}
	if len(problems) > 0 {
		return errs.NewValidation("service.Options", strings.Join(problems, "; "), nil)
	}
	return nil
}

func (o Options) scorer() similarity.Scorer {
	return similarity.Scorer{SubstitutionCost: o.SubstitutionCost, NGramSize: o.NGramSize}
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}
