package search

import (
	"fmt"
	"math/rand"
	"strings"
)

// Surrogate models the loss surface from past trials and proposes the next
// point. The optimizer calls Fit after every trial with the full history.
type Surrogate interface {
	Fit(history []Trial) error
	Propose(space Space, rng *rand.Rand) (Point, error)
}

// Random ignores history and samples the priors.
type Random struct{}

// Fit implements Surrogate.
func (Random) Fit([]Trial) error { return nil }

// Propose implements Surrogate.
func (Random) Propose(space Space, rng *rand.Rand) (Point, error) {
	return space.Sample(rng), nil
}

// NewSurrogate returns the surrogate with the given name.
func NewSurrogate(name string) (Surrogate, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tpe":
		return NewTPE(), nil
	case "random":
		return Random{}, nil
	}
	return nil, fmt.Errorf("unknown surrogate %q", name)
}
