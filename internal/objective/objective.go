// Package objective turns one scoring configuration into a scalar loss by
// classifying the whole input set with it. Lower is better.
package objective

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/classify"
	"github.com/aria-lang/primerscan-go/internal/evaluate"
	"github.com/aria-lang/primerscan-go/internal/primer"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

const (
	// DefaultMonotonicPenalty is added when match > mismatch > gap does not hold.
	DefaultMonotonicPenalty = 100.0
	// DefaultBaselinePenalty is added when a reference-loss run filters out
	// more reads than the exact-match baseline.
	DefaultBaselinePenalty = 100.0
)

var (
	// ErrEmptyInput means the input groups held no reads at all.
	ErrEmptyInput = errors.New("no reads to evaluate")
	// ErrNoReferences means the reference loss was selected without a
	// reference set.
	ErrNoReferences = errors.New("reference loss requires a reference set")
)

// Kind selects the loss formulation.
type Kind int

const (
	// Acceptance scores 100 * (1 - accepted/total).
	Acceptance Kind = iota
	// Reference scores the percentage of unverified reads, plus a penalty
	// when more reads are filtered than by the naive baseline.
	Reference
)

func (k Kind) String() string {
	switch k {
	case Acceptance:
		return "acceptance"
	case Reference:
		return "reference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a loss kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "acceptance":
		return Acceptance, nil
	case "reference":
		return Reference, nil
	}
	return Acceptance, fmt.Errorf("unknown loss kind %q", s)
}

// Objective evaluates scoring configurations against a fixed input set.
// Everything but the scoring configuration is fixed at construction.
type Objective struct {
	Groups     []evaluate.Group
	Primers    sequence.PrimerSet
	Search     primer.Options
	Policy     classify.Policy
	Classify   classify.Options
	Kind       Kind
	Aggregator *evaluate.Aggregator

	MonotonicPenalty float64
	BaselinePenalty  float64

	mu       sync.Mutex
	baseline *evaluate.Counts
}

// New returns an Objective with default penalties and aggregator.
func New(groups []evaluate.Group, set sequence.PrimerSet, search primer.Options, policy classify.Policy, opts classify.Options, kind Kind) *Objective {
	return &Objective{
		Groups:           groups,
		Primers:          set,
		Search:           search,
		Policy:           policy,
		Classify:         opts,
		Kind:             kind,
		Aggregator:       &evaluate.Aggregator{},
		MonotonicPenalty: DefaultMonotonicPenalty,
		BaselinePenalty:  DefaultBaselinePenalty,
	}
}

// Evaluate classifies every read with cfg and returns the loss and summary.
// A degenerate configuration or an empty input set is an error.
func (o *Objective) Evaluate(ctx context.Context, cfg alignment.ScoringConfig) (float64, *evaluate.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return 0, nil, err
	}
	if o.Kind == Reference && (o.Classify.References == nil || o.Classify.References.Len() == 0) {
		return 0, nil, ErrNoReferences
	}

	searcher, err := primer.NewSearcher(cfg, o.Search)
	if err != nil {
		return 0, nil, err
	}
	classifier := classify.New(searcher, o.Primers, o.Policy, o.Classify)

	summary, err := o.aggregator().Evaluate(ctx, o.Groups, classifier)
	if err != nil {
		return 0, summary, err
	}
	if summary.Total.Total == 0 {
		return 0, summary, ErrEmptyInput
	}

	loss, err := o.Loss(ctx, cfg, summary.Total)
	return loss, summary, err
}

// Loss applies the configured formulation to aggregated counts.
func (o *Objective) Loss(ctx context.Context, cfg alignment.ScoringConfig, c evaluate.Counts) (float64, error) {
	if c.Total == 0 {
		return 0, ErrEmptyInput
	}

	var loss float64
	switch o.Kind {
	case Acceptance:
		loss = 100 * (1 - c.AcceptedFraction())
	case Reference:
		baseline, err := o.Baseline(ctx)
		if err != nil {
			return 0, fmt.Errorf("naive baseline: %w", err)
		}
		loss = c.Percent(c.ByReason[classify.ReasonUnverified])
		if filtered(c) > filtered(baseline) {
			loss += o.BaselinePenalty
		}
	default:
		return 0, fmt.Errorf("unknown loss kind %v", o.Kind)
	}

	if !cfg.Monotonic() {
		loss += o.MonotonicPenalty
	}
	return loss, nil
}

// Baseline returns the counts of the naive exact-match classifier over the
// input set. It is computed once and cached.
func (o *Objective) Baseline(ctx context.Context) (evaluate.Counts, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.baseline != nil {
		return *o.baseline, nil
	}

	naive := classify.Naive{Set: o.Primers, Policy: o.Policy, BothStrands: o.Classify.BothStrands}
	summary, err := o.aggregator().Evaluate(ctx, o.Groups, naive)
	if err != nil {
		return evaluate.Counts{}, err
	}
	o.baseline = &summary.Total
	return summary.Total, nil
}

func (o *Objective) aggregator() *evaluate.Aggregator {
	if o.Aggregator == nil {
		return &evaluate.Aggregator{}
	}
	return o.Aggregator
}

// filtered is the percentage of reads that were not accepted.
func filtered(c evaluate.Counts) float64 {
	return c.Percent(c.Total - c.Accepted)
}
