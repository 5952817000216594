package classify

import (
	"fmt"

	"github.com/aria-lang/primerscan-go/internal/primer"
)

// Policy turns primer hits into an outcome.
type Policy struct {
	// ExpectedLength disables the length rule when zero.
	ExpectedLength int
	Tolerance      int
	Mode           primer.LengthMode
	// MinScores holds optional per-primer thresholds keyed by primer name.
	MinScores map[string]float64
	// SingleFallback accepts a read with one primer when the other end of
	// an expected-length construct still fits inside the read.
	SingleFallback bool
}

// Decide classifies hits (forward first, then reverse) for a read of
// length readLen. It is total and pure.
func (p Policy) Decide(hits []primer.Hit, readLen int) Outcome {
	out := Outcome{Length: -1}
	if len(hits) != 2 {
		out.Label = Ambiguous
		out.Reason = ReasonMalformed
		out.Detail = fmt.Sprintf("expected 2 primer hits, got %d", len(hits))
		return out
	}
	out.Hits = hits
	fwd, rev := hits[0], hits[1]

	if fwd.NoMatch || rev.NoMatch {
		if fwd.NoMatch && rev.NoMatch {
			return rejected(out, ReasonNoMatch, "no primer found")
		}
		if !p.SingleFallback {
			missing := fwd.Name
			if rev.NoMatch {
				missing = rev.Name
			}
			return rejected(out, ReasonNoMatch, fmt.Sprintf("primer %q not found", missing))
		}
		present := fwd
		if fwd.NoMatch {
			present = rev
		}
		if reason, ok := p.belowThreshold(present); !ok {
			return rejected(out, ReasonLowScore, reason)
		}
		return p.single(out, fwd, rev, readLen)
	}

	for _, h := range hits {
		if reason, ok := p.belowThreshold(h); !ok {
			return rejected(out, ReasonLowScore, reason)
		}
	}

	if rev.Start() < fwd.End() {
		out.Label = Ambiguous
		out.Reason = ReasonOverlap
		out.Detail = fmt.Sprintf("reverse primer starts at %d before forward primer ends at %d", rev.Start(), fwd.End())
		return out
	}

	out.Insert = Range{Start: fwd.End(), End: rev.Start()}
	out.Amplicon = Range{Start: fwd.Start(), End: rev.End()}
	if p.Mode == primer.Insert {
		out.Length = out.Insert.Len()
	} else {
		out.Length = out.Amplicon.Len()
	}

	if p.ExpectedLength > 0 && abs(out.Length-p.ExpectedLength) > p.Tolerance {
		return rejected(out, ReasonLength, fmt.Sprintf("measured %s length %d outside %d ± %d",
			p.Mode, out.Length, p.ExpectedLength, p.Tolerance))
	}

	out.Label = Accepted
	return out
}

func (p Policy) belowThreshold(h primer.Hit) (string, bool) {
	threshold, ok := p.MinScores[h.Name]
	if !ok || h.Score() >= threshold {
		return "", true
	}
	return fmt.Sprintf("primer %q score %.3f below threshold %.3f", h.Name, h.Score(), threshold), false
}

// single places an expected-length construct next to the one primer found.
func (p Policy) single(out Outcome, fwd, rev primer.Hit, readLen int) Outcome {
	if p.ExpectedLength <= 0 {
		return rejected(out, ReasonNoMatch, "single primer without expected length")
	}
	e := p.ExpectedLength

	if !fwd.NoMatch {
		if p.Mode == primer.Insert {
			out.Insert = Range{Start: fwd.End(), End: fwd.End() + e}
			out.Amplicon = Range{Start: fwd.Start(), End: out.Insert.End}
		} else {
			out.Amplicon = Range{Start: fwd.Start(), End: fwd.Start() + e}
			out.Insert = Range{Start: fwd.End(), End: out.Amplicon.End}
		}
		if out.Amplicon.End > readLen {
			out.Insert, out.Amplicon = Range{}, Range{}
			return rejected(out, ReasonNoMatch, fmt.Sprintf("primer %q not found and read too short for the construct", rev.Name))
		}
		out.Label = Accepted
		out.Reason = ReasonSingleForward
		out.Length = e
		return out
	}

	if p.Mode == primer.Insert {
		out.Insert = Range{Start: rev.Start() - e, End: rev.Start()}
		out.Amplicon = Range{Start: out.Insert.Start, End: rev.End()}
	} else {
		out.Amplicon = Range{Start: rev.End() - e, End: rev.End()}
		out.Insert = Range{Start: out.Amplicon.Start, End: rev.Start()}
	}
	if out.Amplicon.Start < 0 {
		out.Insert, out.Amplicon = Range{}, Range{}
		return rejected(out, ReasonNoMatch, fmt.Sprintf("primer %q not found and read too short for the construct", fwd.Name))
	}
	out.Label = Accepted
	out.Reason = ReasonSingleReverse
	out.Length = e
	return out
}

func rejected(out Outcome, reason Reason, detail string) Outcome {
	out.Label = Rejected
	out.Reason = reason
	out.Detail = detail
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
