package classify

import (
	"fmt"

	"github.com/aria-lang/primerscan-go/internal/primer"
	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// Options configure a Classifier beyond the Policy.
type Options struct {
	// BothStrands also tries the reverse-complemented primer set.
	BothStrands bool
	Quality     quality.Filter
	// References enables insert verification when non-nil and non-empty.
	References *References
}

// DefaultOptions searches both strands with no quality gate.
func DefaultOptions() Options {
	return Options{BothStrands: true}
}

// Classifier classifies single reads. It is read-only after construction and
// safe for concurrent use.
type Classifier struct {
	searcher *primer.Searcher
	set      sequence.PrimerSet
	rcSet    sequence.PrimerSet
	policy   Policy
	opts     Options
}

// New creates a Classifier.
func New(searcher *primer.Searcher, set sequence.PrimerSet, policy Policy, opts Options) *Classifier {
	return &Classifier{
		searcher: searcher,
		set:      set,
		rcSet:    set.ReverseComplemented(),
		policy:   policy,
		opts:     opts,
	}
}

// Policy returns the decision policy.
func (c *Classifier) Policy() Policy {
	return c.policy
}

// Classify returns the outcome for one read. Malformed reads come back as
// Ambiguous rather than as an error.
func (c *Classifier) Classify(read sequence.Read) Outcome {
	if err := read.Validate(); err != nil {
		return Outcome{
			ReadID: read.ID,
			Label:  Ambiguous,
			Reason: ReasonInvalidSequence,
			Length: -1,
			Detail: err.Error(),
		}
	}

	var gate *quality.FilterResult
	if c.opts.Quality.Enabled() {
		res := c.opts.Quality.Check(read.Quality)
		if !res.Passed {
			return Outcome{
				ReadID:  read.ID,
				Label:   Rejected,
				Reason:  ReasonLowQuality,
				Length:  -1,
				Detail:  res.Reason,
				Quality: &res,
			}
		}
		gate = &res
	}

	out := c.classifyStrands(read)
	out.Quality = gate
	return out
}

func (c *Classifier) classifyStrands(read sequence.Read) Outcome {
	fwd := c.orient(read, c.set, Forward)
	if fwd.IsAccepted() || !c.opts.BothStrands {
		return c.verify(read, fwd)
	}

	rc := c.orient(read, c.rcSet, ReverseComplement)
	if rc.IsAccepted() {
		return c.verify(read, rc)
	}
	return fwd
}

func (c *Classifier) orient(read sequence.Read, set sequence.PrimerSet, o Orientation) Outcome {
	hits, err := c.searcher.Search(read.Bases, set)
	if err != nil {
		return Outcome{ReadID: read.ID, Label: Ambiguous, Reason: ReasonInvalidSequence, Length: -1, Detail: err.Error()}
	}
	out := c.policy.Decide(hits, read.Len())
	out.ReadID = read.ID
	out.Orientation = o
	return out
}

func (c *Classifier) verify(read sequence.Read, out Outcome) Outcome {
	refs := c.opts.References
	if !out.IsAccepted() || refs == nil || refs.Len() == 0 {
		return out
	}
	idx, err := refs.Match(out.InsertBases(read.Bases), c.searcher.Config())
	if err != nil {
		out.Label = Ambiguous
		out.Reason = ReasonInvalidSequence
		out.Detail = err.Error()
		return out
	}
	if idx < 0 {
		out.Label = Rejected
		out.Reason = ReasonUnverified
		out.Detail = "insert matches no reference"
		return out
	}
	out.Detail = fmt.Sprintf("matches reference %d", idx)
	return out
}
