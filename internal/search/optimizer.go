package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/evaluate"
	"github.com/google/uuid"
)

const (
	DefaultBudget = 50
	DefaultWarmup = 10
)

var (
	// ErrSearchExhausted means every warmup trial failed, so there is
	// nothing to model.
	ErrSearchExhausted = errors.New("search exhausted: every warmup trial failed")
	// ErrTooManyFailures means more trials failed than MaxFailures allows.
	ErrTooManyFailures = errors.New("too many failed trials")
)

// Objective maps a scoring configuration to a loss.
type Objective interface {
	Evaluate(ctx context.Context, cfg alignment.ScoringConfig) (float64, *evaluate.Summary, error)
}

// ObjectiveFunc adapts a function to Objective.
type ObjectiveFunc func(ctx context.Context, cfg alignment.ScoringConfig) (float64, *evaluate.Summary, error)

// Evaluate implements Objective.
func (f ObjectiveFunc) Evaluate(ctx context.Context, cfg alignment.ScoringConfig) (float64, *evaluate.Summary, error) {
	return f(ctx, cfg)
}

// Optimizer runs Budget trials: the first Warmup drawn from the priors, the
// rest proposed by the Surrogate.
type Optimizer struct {
	Space Space
	// Base supplies the fields the space does not search.
	Base      alignment.ScoringConfig
	Surrogate Surrogate
	Budget    int
	Warmup    int
	// MaxFailures bounds failed trials; 0 means unlimited.
	MaxFailures int
	Seed        int64
	// OnTrial is called after every trial.
	OnTrial func(Trial)

	phase Phase
}

// NewOptimizer returns an optimizer over the default space with a TPE
// surrogate.
func NewOptimizer(seed int64) *Optimizer {
	return &Optimizer{
		Space:     DefaultSpace(),
		Base:      alignment.DefaultScoring(),
		Surrogate: NewTPE(),
		Budget:    DefaultBudget,
		Warmup:    DefaultWarmup,
		Seed:      seed,
	}
}

// Phase returns the current state.
func (o *Optimizer) Phase() Phase {
	return o.phase
}

// Validate checks the run settings.
func (o *Optimizer) Validate() error {
	if o.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %d", o.Budget)
	}
	if o.Warmup < 0 || o.Warmup > o.Budget {
		return fmt.Errorf("warmup %d must be within [0, %d]", o.Warmup, o.Budget)
	}
	if o.MaxFailures < 0 {
		return fmt.Errorf("max failures must not be negative, got %d", o.MaxFailures)
	}
	return o.Space.Validate()
}

func (o *Optimizer) warmup() int {
	if o.Warmup > 0 {
		return o.Warmup
	}
	return min(DefaultWarmup, o.Budget)
}

// Run evaluates exactly Budget trials unless it fails or ctx is cancelled
// between trials, in which case the trials so far are returned with the
// error.
func (o *Optimizer) Run(ctx context.Context, obj Objective) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	surrogate := o.Surrogate
	if surrogate == nil {
		surrogate = NewTPE()
	}
	rng := rand.New(rand.NewSource(o.Seed))
	warmup := o.warmup()
	res := newResult(uuid.New().String(), o.Budget)
	failures := 0

	o.phase = PhaseWarmup
	for i := 0; i < o.Budget; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if i >= warmup {
			o.phase = PhaseModelled
		}

		var pt Point
		if o.phase == PhaseWarmup {
			pt = o.Space.Sample(rng)
		} else {
			var err error
			if pt, err = surrogate.Propose(o.Space, rng); err != nil {
				return res, fmt.Errorf("propose trial %d: %w", i, err)
			}
		}

		trial := Trial{Iteration: i, Phase: o.phase, Params: pt}
		cfg, err := o.Space.Config(o.Base, pt)
		trial.Config = cfg
		if err == nil {
			trial.Loss, trial.Summary, err = obj.Evaluate(ctx, cfg)
		}
		if err != nil {
			// A trial cut short by cancellation is not a result.
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			trial.Loss = math.Inf(1)
			trial.Err = err.Error()
			failures++
		}

		res.add(trial)
		if o.OnTrial != nil {
			o.OnTrial(trial)
		}

		if i+1 == warmup && res.Best < 0 {
			return res, ErrSearchExhausted
		}
		if o.MaxFailures > 0 && failures > o.MaxFailures {
			return res, fmt.Errorf("%w: %d of %d", ErrTooManyFailures, failures, i+1)
		}
		if err := surrogate.Fit(res.Trials); err != nil {
			return res, fmt.Errorf("fit after trial %d: %w", i, err)
		}
	}
	o.phase = PhaseDone
	return res, nil
}
