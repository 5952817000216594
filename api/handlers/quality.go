package handlers

import (
	"net/http"

	"github.com/aria-lang/primerscan-go/internal/quality"
)

// QualityRequest carries qualities either as integers or Phred+33 text.
type QualityRequest struct {
	Scores  []int   `json:"scores,omitempty"`
	Encoded string  `json:"encoded,omitempty"`
	MinMean float64 `json:"min_mean"`
}

// QualityResponse reports the mean-quality gate decision.
type QualityResponse struct {
	Scores      []int   `json:"scores"`
	MeanQuality float64 `json:"mean_quality"`
	Passed      bool    `json:"passed"`
	Reason      string  `json:"reason,omitempty"`
}

// QualityCheckHandler parses qualities and applies the mean-quality gate.
func QualityCheckHandler(w http.ResponseWriter, r *http.Request) {
	var req QualityRequest
	if !decode(w, r, &req) {
		return
	}

	var scores *quality.Scores
	var err error
	switch {
	case req.Encoded != "":
		scores, err = quality.FromPhred33(req.Encoded)
	case len(req.Scores) > 0:
		scores, err = quality.New(req.Scores)
	default:
		writeError(w, http.StatusBadRequest, "either 'scores' or 'encoded' is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := quality.Filter{MinMean: req.MinMean}.Check(scores)
	writeJSON(w, http.StatusOK, QualityResponse{
		Scores:      scores.Values,
		MeanQuality: res.MeanQuality,
		Passed:      res.Passed,
		Reason:      res.Reason,
	})
}
