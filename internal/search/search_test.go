package search

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/evaluate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bowl has its minimum at match 4, mismatch -3, gaps -4.
var bowl = ObjectiveFunc(func(ctx context.Context, cfg alignment.ScoringConfig) (float64, *evaluate.Summary, error) {
	sq := func(x float64) float64 { return x * x }
	return sq(cfg.Match-4) + sq(cfg.Mismatch+3) + sq(cfg.GapOpen+4) + sq(cfg.GapExtend+4), nil, nil
})

func newOptimizer(budget, warmup int) *Optimizer {
	o := NewOptimizer(42)
	o.Budget = budget
	o.Warmup = warmup
	return o
}

func TestDefaultSpace(t *testing.T) {
	s := DefaultSpace()
	require.NoError(t, s.Validate())
	require.Len(t, s.Params, 4)
	assert.Equal(t, Param{Name: ParamMatch, Kind: Uniform, Low: 1, High: 5}, s.Params[0])
	for _, p := range s.Params[1:] {
		assert.Equal(t, -5.0, p.Low, p.Name)
		assert.Equal(t, -1.0, p.High, p.Name)
	}
}

func TestSpaceValidate(t *testing.T) {
	tests := []struct {
		name  string
		space Space
	}{
		{"empty", Space{}},
		{"inverted", Space{Params: []Param{{Name: ParamMatch, Low: 5, High: 1}}}},
		{"log non-positive", Space{Params: []Param{{Name: ParamMatch, Kind: LogUniform, Low: 0, High: 1}}}},
		{"missing step", Space{Params: []Param{{Name: ParamMatch, Kind: QUniform, Low: 1, High: 5}}}},
		{"no choices", Space{Params: []Param{{Name: ParamMatch, Kind: Choice}}}},
		{"unknown", Space{Params: []Param{{Name: "bandwidth", Low: 1, High: 2}}}},
		{"duplicate", Space{Params: []Param{{Name: ParamMatch, Low: 1, High: 2}, {Name: ParamMatch, Low: 1, High: 2}}}},
		{"gap and open", Space{Params: []Param{{Name: ParamGap, Low: -5, High: -1}, {Name: ParamGapOpen, Low: -5, High: -1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.space.Validate())
		})
	}
}

func mixedSpace() Space {
	return Space{Params: []Param{
		{Name: ParamMatch, Kind: LogUniform, Low: 0.5, High: 8},
		{Name: ParamMismatch, Kind: QUniform, Low: -5, High: -1, Step: 0.5},
		{Name: ParamGap, Kind: Choice, Choices: []float64{-4, -3, -2}},
		{Name: ParamThreshold, Kind: Uniform, Low: 0.7, High: 0.95},
	}}
}

func TestSpaceSampleWithinBounds(t *testing.T) {
	s := mixedSpace()
	require.NoError(t, s.Validate())
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		pt := s.Sample(rng)
		require.True(t, s.Contains(pt), "%v", pt)
		mm := pt[ParamMismatch]
		assert.InDelta(t, 0, math.Remainder(mm+5, 0.5), 1e-9)
	}
}

func TestSpaceConfig(t *testing.T) {
	base := alignment.DefaultScoring()
	cfg, err := mixedSpace().Config(base, Point{ParamMatch: 2, ParamGap: -3, ParamThreshold: 0.8})
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Match)
	assert.Equal(t, base.Mismatch, cfg.Mismatch)
	assert.Equal(t, -3.0, cfg.GapOpen)
	assert.Equal(t, -3.0, cfg.GapExtend)
	assert.Equal(t, 0.8, cfg.Threshold)

	_, err = DefaultSpace().Config(base, Point{"bandwidth": 1})
	assert.Error(t, err)
}

func TestOptimizerRunsExactBudget(t *testing.T) {
	o := newOptimizer(30, 10)
	var seen []int
	o.OnTrial = func(tr Trial) { seen = append(seen, tr.Iteration) }

	res, err := o.Run(context.Background(), bowl)
	require.NoError(t, err)
	require.Len(t, res.Trials, 30)
	assert.Len(t, seen, 30)
	assert.Equal(t, PhaseDone, o.Phase())
	assert.NotEmpty(t, res.RunID)

	best, ok := res.BestTrial()
	require.True(t, ok)
	for i, tr := range res.Trials {
		assert.Equal(t, i, tr.Iteration)
		if i < 10 {
			assert.Equal(t, PhaseWarmup, tr.Phase)
		} else {
			assert.Equal(t, PhaseModelled, tr.Phase)
		}
		assert.True(t, DefaultSpace().Contains(tr.Params))
		assert.LessOrEqual(t, best.Loss, tr.Loss)
	}
}

func TestOptimizerReproducible(t *testing.T) {
	a, err := newOptimizer(20, 5).Run(context.Background(), bowl)
	require.NoError(t, err)
	b, err := newOptimizer(20, 5).Run(context.Background(), bowl)
	require.NoError(t, err)

	require.Len(t, b.Trials, len(a.Trials))
	for i := range a.Trials {
		assert.Equal(t, a.Trials[i].Params, b.Trials[i].Params, "trial %d", i)
		assert.Equal(t, a.Trials[i].Loss, b.Trials[i].Loss)
	}
	assert.Equal(t, a.Best, b.Best)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestOptimizerBestEarliestOnTies(t *testing.T) {
	flat := ObjectiveFunc(func(context.Context, alignment.ScoringConfig) (float64, *evaluate.Summary, error) {
		return 1, nil, nil
	})
	res, err := newOptimizer(8, 3).Run(context.Background(), flat)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Best)
}

func TestOptimizerExhausted(t *testing.T) {
	broken := ObjectiveFunc(func(context.Context, alignment.ScoringConfig) (float64, *evaluate.Summary, error) {
		return 0, nil, alignment.ErrDegenerateConfig
	})
	res, err := newOptimizer(20, 4).Run(context.Background(), broken)
	assert.ErrorIs(t, err, ErrSearchExhausted)
	require.Len(t, res.Trials, 4)
	for _, tr := range res.Trials {
		assert.True(t, math.IsInf(tr.Loss, 1))
		assert.NotEmpty(t, tr.Err)
	}
	_, ok := res.BestTrial()
	assert.False(t, ok)
}

func TestOptimizerToleratesFailures(t *testing.T) {
	calls := 0
	flaky := ObjectiveFunc(func(ctx context.Context, cfg alignment.ScoringConfig) (float64, *evaluate.Summary, error) {
		calls++
		if calls%2 == 0 {
			return 0, nil, errors.New("unscoreable")
		}
		return bowl(ctx, cfg)
	})
	res, err := newOptimizer(12, 4).Run(context.Background(), flaky)
	require.NoError(t, err)
	require.Len(t, res.Trials, 12)
	assert.Equal(t, 6, res.Failures())
	best, ok := res.BestTrial()
	require.True(t, ok)
	assert.False(t, best.Failed())
}

func TestOptimizerTooManyFailures(t *testing.T) {
	calls := 0
	decaying := ObjectiveFunc(func(ctx context.Context, cfg alignment.ScoringConfig) (float64, *evaluate.Summary, error) {
		calls++
		if calls > 1 {
			return 0, nil, errors.New("unscoreable")
		}
		return bowl(ctx, cfg)
	})
	o := newOptimizer(20, 2)
	o.MaxFailures = 2
	res, err := o.Run(context.Background(), decaying)
	assert.ErrorIs(t, err, ErrTooManyFailures)
	assert.Len(t, res.Trials, 4)
}

func TestOptimizerCancelKeepsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := newOptimizer(20, 5)
	o.OnTrial = func(tr Trial) {
		if tr.Iteration == 2 {
			cancel()
		}
	}
	res, err := o.Run(ctx, bowl)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Trials, 3)
	_, ok := res.BestTrial()
	assert.True(t, ok)
}

func TestOptimizerValidate(t *testing.T) {
	_, err := newOptimizer(0, 0).Run(context.Background(), bowl)
	assert.Error(t, err)
	_, err = newOptimizer(5, 6).Run(context.Background(), bowl)
	assert.Error(t, err)

	o := newOptimizer(5, 0)
	o.Surrogate = Random{}
	res, err := o.Run(context.Background(), bowl)
	require.NoError(t, err)
	assert.Len(t, res.Trials, 5)
}

func TestTPEProposalsWithinBounds(t *testing.T) {
	s := mixedSpace()
	rng := rand.New(rand.NewSource(7))
	history := make([]Trial, 0, 40)
	for i := 0; i < 40; i++ {
		pt := s.Sample(rng)
		history = append(history, Trial{Iteration: i, Params: pt, Loss: math.Abs(pt[ParamMatch] - 2)})
	}
	history = append(history, Trial{Iteration: 40, Loss: math.Inf(1)})

	tpe := NewTPE()
	require.NoError(t, tpe.Fit(history))
	for i := 0; i < 500; i++ {
		pt, err := tpe.Propose(s, rng)
		require.NoError(t, err)
		require.True(t, s.Contains(pt), "%v", pt)
	}
}

func TestTPEFallsBackToPrior(t *testing.T) {
	tpe := NewTPE()
	require.NoError(t, tpe.Fit([]Trial{{Loss: math.Inf(1)}}))
	pt, err := tpe.Propose(DefaultSpace(), rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.True(t, DefaultSpace().Contains(pt))
}

func TestTPEPrefersGoodRegion(t *testing.T) {
	s := Space{Params: []Param{{Name: ParamMatch, Kind: Uniform, Low: 0, High: 10}}}
	var history []Trial
	for i := 0; i <= 100; i++ {
		v := float64(i) / 10
		history = append(history, Trial{Iteration: i, Params: Point{ParamMatch: v}, Loss: v})
	}
	tpe := NewTPE()
	require.NoError(t, tpe.Fit(history))

	rng := rand.New(rand.NewSource(11))
	sum := 0.0
	const n = 200
	for i := 0; i < n; i++ {
		pt, err := tpe.Propose(s, rng)
		require.NoError(t, err)
		sum += pt[ParamMatch]
	}
	// The good quarter lies below 2.5; the prior mean is 5.
	assert.Less(t, sum/n, 4.0)
}

func TestTrialJSON(t *testing.T) {
	b, err := json.Marshal(Trial{Iteration: 1, Phase: PhaseModelled, Loss: math.Inf(1), Err: "boom"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"loss":null`)
	assert.Contains(t, string(b), `"phase":"modelled"`)

	b, err = json.Marshal(Trial{Loss: 12.5})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"loss":12.5`)
}

func TestNewSurrogate(t *testing.T) {
	s, err := NewSurrogate("TPE")
	require.NoError(t, err)
	assert.IsType(t, &TPE{}, s)
	s, err = NewSurrogate("random")
	require.NoError(t, err)
	assert.IsType(t, Random{}, s)
	_, err = NewSurrogate("gp")
	assert.Error(t, err)
}
