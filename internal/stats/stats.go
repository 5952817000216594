// Package stats provides additive distributions of lengths measured over
// reads and inserts.
//
// A Distribution stores exact counts per value, so merging two of them is
// plain addition and does not depend on order.
package stats

import (
	"fmt"
	"sort"
	"strings"
)

// Distribution counts how often each integer value was observed.
type Distribution struct {
	Counts map[int]int `json:"counts"`
	N      int         `json:"n"`
	Sum    int         `json:"sum"`
}

// NewDistribution returns an empty distribution.
func NewDistribution() *Distribution {
	return &Distribution{Counts: make(map[int]int)}
}

// Add records one observation.
func (d *Distribution) Add(v int) {
	if d.Counts == nil {
		d.Counts = make(map[int]int)
	}
	d.Counts[v]++
	d.N++
	d.Sum += v
}

// Merge adds o into d.
func (d *Distribution) Merge(o *Distribution) {
	if o == nil {
		return
	}
	if d.Counts == nil {
		d.Counts = make(map[int]int, len(o.Counts))
	}
	for v, c := range o.Counts {
		d.Counts[v] += c
	}
	d.N += o.N
	d.Sum += o.Sum
}

// Values returns the distinct observed values in ascending order.
func (d *Distribution) Values() []int {
	vs := make([]int, 0, len(d.Counts))
	for v := range d.Counts {
		vs = append(vs, v)
	}
	sort.Ints(vs)
	return vs
}

// Mean returns the mean, or 0 for an empty distribution.
func (d *Distribution) Mean() float64 {
	if d.N == 0 {
		return 0
	}
	return float64(d.Sum) / float64(d.N)
}

// Min returns the smallest value, or 0 for an empty distribution.
func (d *Distribution) Min() int {
	vs := d.Values()
	if len(vs) == 0 {
		return 0
	}
	return vs[0]
}

// Max returns the largest value, or 0 for an empty distribution.
func (d *Distribution) Max() int {
	vs := d.Values()
	if len(vs) == 0 {
		return 0
	}
	return vs[len(vs)-1]
}

// Median returns the median; for an even count it is the integer mean of
// the two middle values.
func (d *Distribution) Median() int {
	if d.N == 0 {
		return 0
	}
	if d.N%2 == 1 {
		return d.nth(d.N / 2)
	}
	return (d.nth(d.N/2-1) + d.nth(d.N/2)) / 2
}

// nth returns the k-th smallest observation, 0-based.
func (d *Distribution) nth(k int) int {
	seen := 0
	for _, v := range d.Values() {
		seen += d.Counts[v]
		if seen > k {
			return v
		}
	}
	return 0
}

// Mode returns the most frequent value, the smallest on ties.
func (d *Distribution) Mode() int {
	best, bestCount := 0, 0
	for _, v := range d.Values() {
		if d.Counts[v] > bestCount {
			best, bestCount = v, d.Counts[v]
		}
	}
	return best
}

// N50 returns the length at which half of all bases lie in observations at
// least that long.
func (d *Distribution) N50() int {
	if d.N == 0 {
		return 0
	}
	vs := d.Values()
	halfTotal := d.Sum / 2
	runningSum := 0
	for i := len(vs) - 1; i >= 0; i-- {
		runningSum += vs[i] * d.Counts[vs[i]]
		if runningSum >= halfTotal {
			return vs[i]
		}
	}
	return vs[0]
}

// Histogram bins the distribution into numBins equal-width bins.
func (d *Distribution) Histogram(numBins int) (*Histogram, error) {
	if d.N == 0 {
		return nil, fmt.Errorf("distribution is empty")
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("numBins must be positive")
	}

	minV, maxV := d.Min(), d.Max()
	binWidth := (maxV - minV) / numBins
	if binWidth < 1 {
		binWidth = 1
	}

	bins := make([]int, numBins)
	for v, c := range d.Counts {
		idx := (v - minV) / binWidth
		if idx >= numBins {
			idx = numBins - 1
		}
		bins[idx] += c
	}

	return &Histogram{Bins: bins, Min: minV, Max: maxV, BinWidth: binWidth}, nil
}

func (d *Distribution) String() string {
	if d.N == 0 {
		return "Distribution { empty }"
	}
	return fmt.Sprintf("Distribution { n: %d, range: %d - %d, mean: %.1f, median: %d }",
		d.N, d.Min(), d.Max(), d.Mean(), d.Median())
}

// Histogram is a binned view of a Distribution.
type Histogram struct {
	Bins     []int
	Min      int
	Max      int
	BinWidth int
}

func (h *Histogram) String() string {
	var b strings.Builder
	b.WriteString("Length Histogram:\n")
	for i, count := range h.Bins {
		start := h.Min + i*h.BinWidth
		end := start + h.BinWidth
		fmt.Fprintf(&b, "%5d-%5d: %s (%d)\n", start, end, strings.Repeat("#", count/5), count)
	}
	return b.String()
}
