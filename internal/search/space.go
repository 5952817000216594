// Package search tunes scoring weights with sequential model-based
// optimization over a fixed evaluation budget.
package search

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/aria-lang/primerscan-go/internal/alignment"
)

// ParamKind is the prior distribution of a parameter.
type ParamKind int

const (
	Uniform ParamKind = iota
	LogUniform
	QUniform
	Choice
)

func (k ParamKind) String() string {
	switch k {
	case Uniform:
		return "uniform"
	case LogUniform:
		return "loguniform"
	case QUniform:
		return "quniform"
	case Choice:
		return "choice"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// ParseParamKind parses a kind name.
func ParseParamKind(s string) (ParamKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return Uniform, nil
	case "loguniform":
		return LogUniform, nil
	case "quniform":
		return QUniform, nil
	case "choice":
		return Choice, nil
	}
	return Uniform, fmt.Errorf("unknown parameter kind %q", s)
}

// Parameter names understood by Space.Config.
const (
	ParamMatch     = "match_score"
	ParamMismatch  = "mismatch_score"
	ParamGapOpen   = "open_gap_score"
	ParamGapExtend = "extend_gap_score"
	// ParamGap sets open and extend together for a linear gap model.
	ParamGap       = "gap_score"
	ParamThreshold = "min_score_fraction"
)

// Param is one searchable dimension. Low and High bound the value itself,
// also for LogUniform.
type Param struct {
	Name    string    `json:"name" mapstructure:"name"`
	Kind    ParamKind `json:"kind" mapstructure:"-"`
	Low     float64   `json:"low" mapstructure:"low"`
	High    float64   `json:"high" mapstructure:"high"`
	Step    float64   `json:"step,omitempty" mapstructure:"step"`
	Choices []float64 `json:"choices,omitempty" mapstructure:"choices"`
}

// Validate checks the bounds for the kind.
func (p Param) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter without a name")
	}
	if p.Kind == Choice {
		if len(p.Choices) == 0 {
			return fmt.Errorf("parameter %s: choice needs at least one option", p.Name)
		}
		return nil
	}
	if math.IsNaN(p.Low) || math.IsNaN(p.High) || math.IsInf(p.Low, 0) || math.IsInf(p.High, 0) {
		return fmt.Errorf("parameter %s: bounds must be finite", p.Name)
	}
	if p.Low >= p.High {
		return fmt.Errorf("parameter %s: low %g must be below high %g", p.Name, p.Low, p.High)
	}
	if p.Kind == LogUniform && p.Low <= 0 {
		return fmt.Errorf("parameter %s: loguniform bounds must be positive", p.Name)
	}
	if p.Kind == QUniform && (p.Step <= 0 || p.Step > p.High-p.Low) {
		return fmt.Errorf("parameter %s: step %g out of range", p.Name, p.Step)
	}
	return nil
}

// Sample draws a value from the prior.
func (p Param) Sample(rng *rand.Rand) float64 {
	switch p.Kind {
	case Choice:
		return p.Choices[rng.Intn(len(p.Choices))]
	case LogUniform:
		lo, hi := math.Log(p.Low), math.Log(p.High)
		return p.clamp(math.Exp(lo + rng.Float64()*(hi-lo)))
	case QUniform:
		return p.quantize(p.Low + rng.Float64()*(p.High-p.Low))
	default:
		return p.Low + rng.Float64()*(p.High-p.Low)
	}
}

// Contains reports whether v is a value the parameter can take.
func (p Param) Contains(v float64) bool {
	if p.Kind == Choice {
		for _, c := range p.Choices {
			if c == v {
				return true
			}
		}
		return false
	}
	return v >= p.Low && v <= p.High
}

func (p Param) clamp(v float64) float64 {
	return math.Min(math.Max(v, p.Low), p.High)
}

// quantize rounds to the nearest step from Low that stays in bounds.
func (p Param) quantize(v float64) float64 {
	n := math.Round((v - p.Low) / p.Step)
	q := p.Low + n*p.Step
	if q > p.High {
		q -= p.Step
	}
	return p.clamp(q)
}

// Point is one assignment of values to parameter names.
type Point map[string]float64

// Space is an ordered set of parameters.
type Space struct {
	Params []Param `json:"params"`
}

// DefaultSpace searches all four scores with uniform priors.
func DefaultSpace() Space {
	return Space{Params: []Param{
		{Name: ParamMatch, Kind: Uniform, Low: 1, High: 5},
		{Name: ParamMismatch, Kind: Uniform, Low: -5, High: -1},
		{Name: ParamGapOpen, Kind: Uniform, Low: -5, High: -1},
		{Name: ParamGapExtend, Kind: Uniform, Low: -5, High: -1},
	}}
}

// Validate checks every parameter and rejects duplicates and unknown names.
func (s Space) Validate() error {
	if len(s.Params) == 0 {
		return fmt.Errorf("search space is empty")
	}
	seen := make(map[string]bool, len(s.Params))
	for _, p := range s.Params {
		if err := p.Validate(); err != nil {
			return err
		}
		if !knownParam(p.Name) {
			return fmt.Errorf("unknown parameter %q", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
	}
	if seen[ParamGap] && (seen[ParamGapOpen] || seen[ParamGapExtend]) {
		return fmt.Errorf("%s cannot be combined with %s or %s", ParamGap, ParamGapOpen, ParamGapExtend)
	}
	return nil
}

// Sample draws a point from the priors.
func (s Space) Sample(rng *rand.Rand) Point {
	pt := make(Point, len(s.Params))
	for _, p := range s.Params {
		pt[p.Name] = p.Sample(rng)
	}
	return pt
}

// Contains reports whether every parameter of the space is set in pt to a
// value it can take.
func (s Space) Contains(pt Point) bool {
	for _, p := range s.Params {
		v, ok := pt[p.Name]
		if !ok || !p.Contains(v) {
			return false
		}
	}
	return true
}

// Config overlays pt on base.
func (s Space) Config(base alignment.ScoringConfig, pt Point) (alignment.ScoringConfig, error) {
	cfg := base
	for name, v := range pt {
		switch name {
		case ParamMatch:
			cfg.Match = v
		case ParamMismatch:
			cfg.Mismatch = v
		case ParamGapOpen:
			cfg.GapOpen = v
		case ParamGapExtend:
			cfg.GapExtend = v
		case ParamGap:
			cfg.GapOpen, cfg.GapExtend = v, v
		case ParamThreshold:
			cfg.Threshold = v
		default:
			return cfg, fmt.Errorf("unknown parameter %q", name)
		}
	}
	return cfg, nil
}

func knownParam(name string) bool {
	switch name {
	case ParamMatch, ParamMismatch, ParamGapOpen, ParamGapExtend, ParamGap, ParamThreshold:
		return true
	}
	return false
}
