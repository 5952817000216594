// Package alignment provides the primer-anchored alignment scorer.
//
// Local alignment uses Gotoh's three-matrix recurrence so that gap opening
// and gap extension can be weighted separately; a linear gap model is the
// special case GapOpen == GapExtend. Global alignment is score-only and is
// used to verify inserts against a reference set.
package alignment

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateConfig is matched by every DegenerateConfigError.
var ErrDegenerateConfig = errors.New("degenerate scoring config")

// AlignmentError is the base error type for alignment operations.
type AlignmentError interface {
	error
	IsAlignmentError()
}

// DegenerateConfigError is returned for a ScoringConfig that cannot produce
// a meaningful local alignment.
type DegenerateConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *DegenerateConfigError) Error() string {
	return fmt.Sprintf("degenerate scoring config: %s = %g %s", e.Field, e.Value, e.Reason)
}

func (e *DegenerateConfigError) IsAlignmentError() {}

// Is lets callers test with errors.Is(err, ErrDegenerateConfig).
func (e *DegenerateConfigError) Is(target error) bool {
	return target == ErrDegenerateConfig
}

// ScoringConfig holds the alignment weights the optimizer tunes.
//
// Match > Mismatch is not enforced: it is a search variable, and objectives
// penalise the inverted region instead.
type ScoringConfig struct {
	Match     float64 `json:"match_score" mapstructure:"match_score"`
	Mismatch  float64 `json:"mismatch_score" mapstructure:"mismatch_score"`
	GapOpen   float64 `json:"open_gap_score" mapstructure:"open_gap_score"`
	GapExtend float64 `json:"extend_gap_score" mapstructure:"extend_gap_score"`
	// Threshold is an optional floor fraction; zero means "use the searcher's".
	Threshold float64 `json:"min_score_fraction,omitempty" mapstructure:"min_score_fraction"`
}

// DefaultScoring returns the tuned weights shipped with the tool.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Match:     4.254276492,
		Mismatch:  -3.515462288,
		GapOpen:   -4.032420994,
		GapExtend: -2.999836807,
	}
}

// Linear returns a config with a single cost per gap symbol.
func Linear(match, mismatch, gap float64) ScoringConfig {
	return ScoringConfig{Match: match, Mismatch: mismatch, GapOpen: gap, GapExtend: gap}
}

// IsLinear reports whether opening and extending a gap cost the same.
func (c ScoringConfig) IsLinear() bool {
	return c.GapOpen == c.GapExtend
}

// Validate returns a *DegenerateConfigError when the weights cannot yield a
// bounded, meaningful local alignment.
func (c ScoringConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"match_score", c.Match},
		{"mismatch_score", c.Mismatch},
		{"open_gap_score", c.GapOpen},
		{"extend_gap_score", c.GapExtend},
		{"min_score_fraction", c.Threshold},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &DegenerateConfigError{Field: f.name, Value: f.value, Reason: "is not finite"}
		}
	}

	if c.Match < 0 {
		return &DegenerateConfigError{Field: "match_score", Value: c.Match, Reason: "must not be negative"}
	}
	if c.GapOpen >= 0 {
		return &DegenerateConfigError{Field: "open_gap_score", Value: c.GapOpen, Reason: "must be negative"}
	}
	if c.GapExtend >= 0 {
		return &DegenerateConfigError{Field: "extend_gap_score", Value: c.GapExtend, Reason: "must be negative"}
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return &DegenerateConfigError{Field: "min_score_fraction", Value: c.Threshold, Reason: "must be within [0, 1]"}
	}
	return nil
}

// Monotonic reports whether match > mismatch > gap open and opening a gap
// costs at least as much as extending one.
func (c ScoringConfig) Monotonic() bool {
	return c.Mismatch < c.Match && c.GapOpen < c.Mismatch && c.GapOpen <= c.GapExtend
}

// Score returns the substitution score for two bases.
func (c ScoringConfig) Score(a, b byte) float64 {
	if a == b {
		return c.Match
	}
	return c.Mismatch
}

// GapCost returns the cost of a gap of length n.
func (c ScoringConfig) GapCost(n int) float64 {
	if n <= 0 {
		return 0
	}
	s := c.GapOpen
	for k := 1; k < n; k++ {
		s += c.GapExtend
	}
	return s
}

// ExactScore returns the score of n consecutive matches, summed in the same
// order the dynamic programme accumulates it.
func (c ScoringConfig) ExactScore(n int) float64 {
	s := 0.0
	for k := 0; k < n; k++ {
		s += c.Match
	}
	return s
}

// MinScore returns the score floor for an alignment of the given length:
// a fraction of the length scores as matches and the rest at the mean
// penalty.
func MinScore(c ScoringConfig, fraction float64, length int) float64 {
	l := float64(length)
	meanPenalty := (c.Mismatch + c.GapOpen + c.GapExtend) / 3
	return c.Match*l*fraction + meanPenalty*(1-fraction)*l
}

func (c ScoringConfig) String() string {
	return fmt.Sprintf("ScoringConfig { match: %.4f, mismatch: %.4f, gap_open: %.4f, gap_extend: %.4f }",
		c.Match, c.Mismatch, c.GapOpen, c.GapExtend)
}
