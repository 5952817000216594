package search

import (
	"math"
	"math/rand"
	"sort"
)

const (
	DefaultGamma      = 0.25
	DefaultCandidates = 24
)

// TPE is a tree-structured Parzen estimator. Finite trials are split at the
// Gamma quantile of loss into good and bad sets; each parameter gets a
// truncated Gaussian mixture per set, and the proposal is the candidate
// drawn from the good mixture that maximizes l(x)/g(x). Parameters are
// modelled independently.
type TPE struct {
	Gamma      float64
	Candidates int
	// PriorWeight is the weight of the prior component in every mixture,
	// relative to one observation.
	PriorWeight float64

	points []Point
	losses []float64
}

// NewTPE returns a TPE with the usual settings.
func NewTPE() *TPE {
	return &TPE{Gamma: DefaultGamma, Candidates: DefaultCandidates, PriorWeight: 1}
}

// Fit implements Surrogate. Failed trials carry no signal and are dropped.
func (t *TPE) Fit(history []Trial) error {
	t.points = t.points[:0]
	t.losses = t.losses[:0]
	for _, tr := range history {
		if tr.Failed() || tr.Params == nil {
			continue
		}
		t.points = append(t.points, tr.Params)
		t.losses = append(t.losses, tr.Loss)
	}
	return nil
}

// Propose implements Surrogate. With fewer than two usable trials it falls
// back to the priors.
func (t *TPE) Propose(space Space, rng *rand.Rand) (Point, error) {
	if len(t.points) < 2 {
		return space.Sample(rng), nil
	}
	good, bad := t.split()

	pt := make(Point, len(space.Params))
	for _, p := range space.Params {
		gv, bv := column(good, p.Name), column(bad, p.Name)
		if p.Kind == Choice {
			pt[p.Name] = t.proposeChoice(p, gv, bv, rng)
		} else {
			pt[p.Name] = t.proposeNumeric(p, gv, bv, rng)
		}
	}
	return pt, nil
}

// split orders trials by loss, earliest first on ties, and cuts at Gamma.
// Both halves are non-empty.
func (t *TPE) split() (good, bad []Point) {
	idx := make([]int, len(t.points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return t.losses[idx[a]] < t.losses[idx[b]] })

	gamma := t.Gamma
	if gamma <= 0 || gamma >= 1 {
		gamma = DefaultGamma
	}
	nGood := int(math.Ceil(gamma * float64(len(idx))))
	nGood = max(1, min(nGood, len(idx)-1))

	for i, j := range idx {
		if i < nGood {
			good = append(good, t.points[j])
		} else {
			bad = append(bad, t.points[j])
		}
	}
	return good, bad
}

func (t *TPE) candidates() int {
	if t.Candidates > 0 {
		return t.Candidates
	}
	return DefaultCandidates
}

func (t *TPE) proposeNumeric(p Param, good, bad []float64, rng *rand.Rand) float64 {
	low, high := p.Low, p.High
	if p.Kind == LogUniform {
		low, high = math.Log(low), math.Log(high)
		good, bad = logAll(good), logAll(bad)
	}
	l := newParzen(good, low, high, t.PriorWeight)
	g := newParzen(bad, low, high, t.PriorWeight)

	best, bestScore := l.sample(rng), math.Inf(-1)
	for c := 0; c < t.candidates(); c++ {
		x := l.sample(rng)
		if p.Kind == QUniform {
			x = p.quantize(x)
		}
		if score := l.logPDF(x) - g.logPDF(x); score > bestScore {
			best, bestScore = x, score
		}
	}

	if p.Kind == LogUniform {
		return p.clamp(math.Exp(best))
	}
	if p.Kind == QUniform {
		return p.quantize(best)
	}
	return p.clamp(best)
}

func (t *TPE) proposeChoice(p Param, good, bad []float64, rng *rand.Rand) float64 {
	l := categorical(p.Choices, good, t.PriorWeight)
	g := categorical(p.Choices, bad, t.PriorWeight)

	best, bestScore := 0, math.Inf(-1)
	for c := 0; c < t.candidates(); c++ {
		i := drawIndex(l, rng)
		if score := math.Log(l[i]) - math.Log(g[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	return p.Choices[best]
}

// parzen is a mixture of Gaussians truncated to [low, high].
type parzen struct {
	mus, sigmas, weights []float64
	low, high            float64
}

// newParzen places one component on each observation plus a wide prior
// component at the centre. Bandwidths are the distance to the farther
// neighbour, clipped to a range that shrinks as observations accumulate.
func newParzen(obs []float64, low, high, priorWeight float64) parzen {
	if priorWeight <= 0 {
		priorWeight = 1
	}
	width := high - low
	prior := (low + high) / 2

	mus := append([]float64{}, obs...)
	sort.Float64s(mus)

	minSigma := width / math.Min(100, float64(len(mus)+1))
	sigmas := make([]float64, len(mus))
	for i, mu := range mus {
		left, right := low, high
		if i > 0 {
			left = mus[i-1]
		}
		if i < len(mus)-1 {
			right = mus[i+1]
		}
		s := math.Max(mu-left, right-mu)
		sigmas[i] = math.Min(math.Max(s, minSigma), width)
	}

	weights := make([]float64, len(mus), len(mus)+1)
	for i := range weights {
		weights[i] = 1
	}
	mus = append(mus, prior)
	sigmas = append(sigmas, width)
	weights = append(weights, priorWeight)

	total := 0.0
	for _, w := range weights {
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}
	return parzen{mus: mus, sigmas: sigmas, weights: weights, low: low, high: high}
}

func (p parzen) sample(rng *rand.Rand) float64 {
	i := drawIndex(p.weights, rng)
	mu, sigma := p.mus[i], p.sigmas[i]
	for try := 0; try < 64; try++ {
		x := mu + sigma*rng.NormFloat64()
		if x >= p.low && x <= p.high {
			return x
		}
	}
	return math.Min(math.Max(mu, p.low), p.high)
}

func (p parzen) logPDF(x float64) float64 {
	density := 0.0
	for i, mu := range p.mus {
		s := p.sigmas[i]
		z := normCDF((p.high-mu)/s) - normCDF((p.low-mu)/s)
		if z <= 0 {
			continue
		}
		density += p.weights[i] * normPDF((x-mu)/s) / (s * z)
	}
	return math.Log(math.Max(density, math.SmallestNonzeroFloat64))
}

// categorical returns smoothed choice probabilities from observed values.
func categorical(choices, obs []float64, priorWeight float64) []float64 {
	if priorWeight <= 0 {
		priorWeight = 1
	}
	probs := make([]float64, len(choices))
	for i := range probs {
		probs[i] = priorWeight
	}
	for _, v := range obs {
		for i, c := range choices {
			if c == v {
				probs[i]++
				break
			}
		}
	}
	total := 0.0
	for _, p := range probs {
		total += p
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

func drawIndex(weights []float64, rng *rand.Rand) int {
	u := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	return len(weights) - 1
}

func column(points []Point, name string) []float64 {
	vs := make([]float64, 0, len(points))
	for _, pt := range points {
		if v, ok := pt[name]; ok {
			vs = append(vs, v)
		}
	}
	return vs
}

func logAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = math.Log(v)
	}
	return out
}

func normPDF(z float64) float64 {
	return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

func normCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
