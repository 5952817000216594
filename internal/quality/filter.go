package quality

import "fmt"

// FilterResult represents the result of quality filtering.
type FilterResult struct {
	Passed      bool    `json:"passed"`
	Reason      string  `json:"reason,omitempty"`
	MeanQuality float64 `json:"mean_quality"`
}

// Filter is a mean-quality gate. A zero MinMean disables it.
type Filter struct {
	MinMean float64
	// RequireScores rejects reads that carry no qualities at all.
	RequireScores bool
}

// Enabled reports whether the filter can reject anything.
func (f Filter) Enabled() bool {
	return f.MinMean > 0 || f.RequireScores
}

// Check checks whether scores pass the filter. Nil scores pass unless
// RequireScores is set.
func (f Filter) Check(scores *Scores) FilterResult {
	if scores == nil || scores.Len() == 0 {
		if f.RequireScores {
			return FilterResult{Passed: false, Reason: "no quality scores", MeanQuality: -1}
		}
		return FilterResult{Passed: true, MeanQuality: -1}
	}

	result := FilterResult{Passed: true, MeanQuality: scores.Average()}
	if result.MeanQuality < f.MinMean {
		result.Passed = false
		result.Reason = fmt.Sprintf("average quality %.2f below minimum %.2f", result.MeanQuality, f.MinMean)
	}
	return result
}

// BatchFilterResult tallies a batch of filter checks.
type BatchFilterResult struct {
	TotalReads  int `json:"total"`
	PassedReads int `json:"passed"`
	FailedReads int `json:"failed"`
}

// Add records one check.
func (r *BatchFilterResult) Add(res FilterResult) {
	r.TotalReads++
	if res.Passed {
		r.PassedReads++
	} else {
		r.FailedReads++
	}
}

// Merge adds o into r.
func (r *BatchFilterResult) Merge(o BatchFilterResult) {
	r.TotalReads += o.TotalReads
	r.PassedReads += o.PassedReads
	r.FailedReads += o.FailedReads
}

// PassRate returns the fraction of reads that passed.
func (r *BatchFilterResult) PassRate() float64 {
	if r.TotalReads == 0 {
		return 0
	}
	return float64(r.PassedReads) / float64(r.TotalReads)
}

func (r *BatchFilterResult) String() string {
	return fmt.Sprintf("Passed: %d/%d (%.1f%%)", r.PassedReads, r.TotalReads, r.PassRate()*100)
}
