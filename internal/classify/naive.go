package classify

import (
	"strings"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/primer"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// naiveScoring only gives exact hits a positive score; the policy never
// looks at the value unless MinScores is set.
var naiveScoring = alignment.Linear(1, -1, -1)

// Naive is the exact-substring baseline: both primers must occur verbatim
// and the same length rule applies. Objectives compare against it.
type Naive struct {
	Set    sequence.PrimerSet
	Policy Policy
	// BothStrands also tries the reverse-complemented primer set.
	BothStrands bool
}

// Classify returns the baseline outcome for one read.
func (n Naive) Classify(read sequence.Read) Outcome {
	if err := read.Validate(); err != nil {
		return Outcome{ReadID: read.ID, Label: Ambiguous, Reason: ReasonInvalidSequence, Length: -1, Detail: err.Error()}
	}

	policy := n.Policy
	policy.MinScores = nil
	policy.SingleFallback = false

	fwd := policy.Decide(exactHits(read.Bases, n.Set), read.Len())
	fwd.ReadID = read.ID
	if fwd.IsAccepted() || !n.BothStrands {
		return fwd
	}

	rc := policy.Decide(exactHits(read.Bases, n.Set.ReverseComplemented()), read.Len())
	rc.ReadID = read.ID
	rc.Orientation = ReverseComplement
	if rc.IsAccepted() {
		return rc
	}
	return fwd
}

func exactHits(bases string, set sequence.PrimerSet) []primer.Hit {
	hits := make([]primer.Hit, 0, 2)
	for _, p := range set.Primers() {
		var idx int
		if p.Anchor == sequence.AnchorEnd {
			idx = strings.LastIndex(bases, p.Bases)
		} else {
			idx = strings.Index(bases, p.Bases)
		}
		h := primer.Hit{Primer: p, Name: p.Name, NoMatch: idx < 0, WindowEnd: len(bases), FastPath: true}
		if idx >= 0 {
			h.Alignment = alignment.ExactAt(p.Bases, idx, naiveScoring)
		}
		hits = append(hits, h)
	}
	return hits
}
