package handlers

import (
	"net/http"

	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

// AlignRequest asks for the best placement of a primer inside a read.
type AlignRequest struct {
	Read   string `json:"read"`
	Primer string `json:"primer"`
	// Anchor is "start" or "end"; it defaults to "start".
	Anchor string                    `json:"anchor,omitempty"`
	Scores *primerscan.ScoringConfig `json:"scores,omitempty"`
}

// AlignResponse represents the response for alignment.
type AlignResponse struct {
	AlignedRead   string  `json:"aligned_read"`
	AlignedPrimer string  `json:"aligned_primer"`
	Score         float64 `json:"score"`
	ReadStart     int     `json:"read_start"`
	ReadEnd       int     `json:"read_end"`
	Identity      float64 `json:"identity"`
	CIGAR         string  `json:"cigar"`
	Matches       int     `json:"matches"`
	Mismatches    int     `json:"mismatches"`
	Gaps          int     `json:"gaps"`
	GapOpenings   int     `json:"gap_openings"`
}

func scoresOrDefault(s *primerscan.ScoringConfig) primerscan.ScoringConfig {
	if s == nil {
		return primerscan.DefaultScoring()
	}
	return *s
}

// AlignHandler handles local alignment requests.
func AlignHandler(w http.ResponseWriter, r *http.Request) {
	var req AlignRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Anchor == "" {
		req.Anchor = "start"
	}

	a, err := primerscan.AlignPrimer(req.Read, req.Primer, scoresOrDefault(req.Scores), req.Anchor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AlignResponse{
		AlignedRead:   a.AlignedRead,
		AlignedPrimer: a.AlignedPrimer,
		Score:         a.Score,
		ReadStart:     a.ReadStart,
		ReadEnd:       a.ReadEnd,
		Identity:      a.Identity,
		CIGAR:         a.ToCIGAR(),
		Matches:       a.MatchCount(),
		Mismatches:    a.MismatchCount(),
		Gaps:          a.TotalGaps(),
		GapOpenings:   a.GapOpenings(),
	})
}

// GlobalScoreRequest asks for the global alignment score of two sequences.
type GlobalScoreRequest struct {
	Sequence1 string                    `json:"sequence1"`
	Sequence2 string                    `json:"sequence2"`
	Scores    *primerscan.ScoringConfig `json:"scores,omitempty"`
}

// ScoreResponse represents the response for alignment score.
type ScoreResponse struct {
	Score float64 `json:"score"`
}

// GlobalScoreHandler handles global alignment score requests.
func GlobalScoreHandler(w http.ResponseWriter, r *http.Request) {
	var req GlobalScoreRequest
	if !decode(w, r, &req) {
		return
	}

	score, err := primerscan.GlobalScore(req.Sequence1, req.Sequence2, scoresOrDefault(req.Scores))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Score: score})
}
