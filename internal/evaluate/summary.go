// Package evaluate classifies batches of reads and aggregates the outcomes.
package evaluate

import (
	"fmt"

	"github.com/aria-lang/primerscan-go/internal/classify"
	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/stats"
)

// Counts tallies outcomes. Counts from disjoint read sets add.
type Counts struct {
	Total     int                     `json:"total"`
	Accepted  int                     `json:"accepted"`
	Rejected  int                     `json:"rejected"`
	Ambiguous int                     `json:"ambiguous"`
	ByReason  map[classify.Reason]int `json:"by_reason"`
	// Lengths holds the measured lengths of accepted reads.
	Lengths *stats.Distribution `json:"lengths"`
	// Quality tallies the mean-quality gate over reads it was applied to.
	Quality quality.BatchFilterResult `json:"quality_gate"`
}

// NewCounts returns empty counts.
func NewCounts() Counts {
	return Counts{ByReason: make(map[classify.Reason]int), Lengths: stats.NewDistribution()}
}

// Add records one outcome.
func (c *Counts) Add(o classify.Outcome) {
	c.init()
	c.Total++
	switch o.Label {
	case classify.Accepted:
		c.Accepted++
		if o.Length >= 0 {
			c.Lengths.Add(o.Length)
		}
	case classify.Rejected:
		c.Rejected++
	default:
		c.Ambiguous++
	}
	if o.Reason != classify.ReasonNone {
		c.ByReason[o.Reason]++
	}
	if o.Quality != nil {
		c.Quality.Add(*o.Quality)
	}
}

// Merge adds o into c.
func (c *Counts) Merge(o Counts) {
	c.init()
	c.Total += o.Total
	c.Accepted += o.Accepted
	c.Rejected += o.Rejected
	c.Ambiguous += o.Ambiguous
	for r, n := range o.ByReason {
		c.ByReason[r] += n
	}
	c.Lengths.Merge(o.Lengths)
	c.Quality.Merge(o.Quality)
}

func (c *Counts) init() {
	if c.ByReason == nil {
		c.ByReason = make(map[classify.Reason]int)
	}
	if c.Lengths == nil {
		c.Lengths = stats.NewDistribution()
	}
}

// Conserved reports whether every read received exactly one label.
func (c Counts) Conserved() bool {
	return c.Accepted+c.Rejected+c.Ambiguous == c.Total
}

// Percent returns n as a percentage of Total, or 0 when Total is 0.
func (c Counts) Percent(n int) float64 {
	if c.Total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(c.Total)
}

// AcceptedFraction returns Accepted / Total, or 0 when Total is 0.
func (c Counts) AcceptedFraction() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Accepted) / float64(c.Total)
}

func (c Counts) String() string {
	return fmt.Sprintf("total: %d, accepted: %d (%.2f%%), rejected: %d (%.2f%%), ambiguous: %d (%.2f%%)",
		c.Total, c.Accepted, c.Percent(c.Accepted), c.Rejected, c.Percent(c.Rejected),
		c.Ambiguous, c.Percent(c.Ambiguous))
}

// GroupSummary is the tally for one source group.
type GroupSummary struct {
	Name   string `json:"name"`
	Counts Counts `json:"counts"`
}

// Summary holds per-group tallies in input order plus their total.
type Summary struct {
	Groups []GroupSummary `json:"groups"`
	Total  Counts         `json:"total"`
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{Total: NewCounts()}
}

// AddGroup appends a group tally and adds it to the total.
func (s *Summary) AddGroup(g GroupSummary) {
	s.Groups = append(s.Groups, g)
	s.Total.Merge(g.Counts)
}

// Merge appends o's groups and adds its total.
func (s *Summary) Merge(o *Summary) {
	if o == nil {
		return
	}
	for _, g := range o.Groups {
		s.AddGroup(g)
	}
}

// Group returns the tally for the named group.
func (s *Summary) Group(name string) (GroupSummary, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupSummary{}, false
}
