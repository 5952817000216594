package handlers

import (
	"fmt"
	"net/http"

	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/sequence"
	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

// MaxReads caps the reads accepted in one request.
const MaxReads = 100000

// API serves the endpoints that need an engine.
type API struct {
	Engine *primerscan.Engine
}

// ReadPayload is one read in a request. Quality is optional Phred+33 text.
type ReadPayload struct {
	ID       string `json:"id"`
	Sequence string `json:"sequence"`
	Quality  string `json:"quality,omitempty"`
}

func (p ReadPayload) read() (primerscan.Read, error) {
	var q *quality.Scores
	if p.Quality != "" {
		var err error
		if q, err = quality.FromPhred33(p.Quality); err != nil {
			return primerscan.Read{}, fmt.Errorf("read %q: %w", p.ID, err)
		}
		if q.Len() != len(p.Sequence) {
			return primerscan.Read{}, fmt.Errorf("read %q: sequence and quality must have same length", p.ID)
		}
	}
	// Invalid bases are left for the classifier to report.
	return sequence.RawRead(p.ID, p.Sequence, q), nil
}

func readsOf(payload []ReadPayload) ([]primerscan.Read, error) {
	rs := make([]primerscan.Read, 0, len(payload))
	for _, p := range payload {
		r, err := p.read()
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// ClassifyRequest asks for the outcome of each read.
type ClassifyRequest struct {
	Reads  []ReadPayload             `json:"reads"`
	Scores *primerscan.ScoringConfig `json:"scores,omitempty"`
}

// ClassifyResponse lists outcomes in request order.
type ClassifyResponse struct {
	Outcomes []primerscan.Outcome `json:"outcomes"`
}

func (a *API) scores(s *primerscan.ScoringConfig) primerscan.ScoringConfig {
	if s == nil {
		return a.Engine.Config().Scores
	}
	return *s
}

// ClassifyHandler handles read classification requests.
func (a *API) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Reads) > MaxReads {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d reads per request", MaxReads))
		return
	}

	rs, err := readsOf(req.Reads)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.Engine.Classifier(a.scores(req.Scores))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := ClassifyResponse{Outcomes: make([]primerscan.Outcome, 0, len(rs))}
	for _, read := range rs {
		resp.Outcomes = append(resp.Outcomes, c.Classify(read))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GroupPayload is a named group of reads.
type GroupPayload struct {
	Name  string        `json:"name"`
	Reads []ReadPayload `json:"reads"`
}

// EvaluateRequest asks for the counts over one or more groups.
type EvaluateRequest struct {
	Groups []GroupPayload            `json:"groups"`
	Scores *primerscan.ScoringConfig `json:"scores,omitempty"`
}

// EvaluateHandler handles evaluation requests. The summary counts every
// read of every group.
func (a *API) EvaluateHandler(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !decode(w, r, &req) {
		return
	}

	n := 0
	groups := make([]primerscan.Group, 0, len(req.Groups))
	for i, g := range req.Groups {
		n += len(g.Reads)
		if n > MaxReads {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d reads per request", MaxReads))
			return
		}
		rs, err := readsOf(g.Reads)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("group%d", i+1)
		}
		groups = append(groups, primerscan.MemoryGroup(name, rs))
	}
	if len(groups) == 0 {
		writeError(w, http.StatusBadRequest, "at least one group is required")
		return
	}

	summary, err := a.Engine.Filter(r.Context(), groups, a.scores(req.Scores), nil)
	if err != nil {
		status := http.StatusBadRequest
		if r.Context().Err() != nil {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
