package search

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/evaluate"
)

// Phase is the optimizer state a trial was proposed in.
type Phase int

const (
	PhaseWarmup Phase = iota
	PhaseModelled
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseModelled:
		return "modelled"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Trial is one evaluated proposal. A failed evaluation has an infinite
// loss and Err set.
type Trial struct {
	Iteration int                     `json:"iteration"`
	Phase     Phase                   `json:"phase"`
	Params    Point                   `json:"params"`
	Config    alignment.ScoringConfig `json:"config"`
	Loss      float64                 `json:"loss"`
	Summary   *evaluate.Summary       `json:"summary,omitempty"`
	Err       string                  `json:"error,omitempty"`
}

// Failed reports whether the trial produced no usable loss.
func (t Trial) Failed() bool {
	return math.IsInf(t.Loss, 0) || math.IsNaN(t.Loss)
}

// MarshalJSON writes an infinite loss as null.
func (t Trial) MarshalJSON() ([]byte, error) {
	type plain Trial
	out := struct {
		plain
		Loss *float64 `json:"loss"`
	}{plain: plain(t)}
	if !t.Failed() {
		out.Loss = &t.Loss
	}
	return json.Marshal(out)
}

// Result is the trial history of one run.
type Result struct {
	RunID  string  `json:"run_id"`
	Trials []Trial `json:"trials"`
	// Best is the index into Trials of the lowest finite loss, earliest on
	// ties, or -1.
	Best int `json:"best"`
}

func newResult(runID string, budget int) *Result {
	return &Result{RunID: runID, Trials: make([]Trial, 0, budget), Best: -1}
}

func (r *Result) add(t Trial) {
	r.Trials = append(r.Trials, t)
	if t.Failed() {
		return
	}
	if r.Best < 0 || t.Loss < r.Trials[r.Best].Loss {
		r.Best = len(r.Trials) - 1
	}
}

// BestTrial returns the best trial, if any trial succeeded.
func (r *Result) BestTrial() (Trial, bool) {
	if r == nil || r.Best < 0 {
		return Trial{}, false
	}
	return r.Trials[r.Best], true
}

// Failures counts failed trials.
func (r *Result) Failures() int {
	n := 0
	for _, t := range r.Trials {
		if t.Failed() {
			n++
		}
	}
	return n
}
