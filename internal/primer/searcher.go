// Package primer locates primers inside reads.
//
// A Searcher aligns each primer of a PrimerSet against the part of the read
// where the expected library length says it can sit, and reports NoMatch
// when the best alignment does not clear the score floor.
package primer

import (
	"fmt"
	"strings"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// LengthMode selects how the distance between primer anchors is measured.
type LengthMode int

const (
	// Span measures from the forward primer start to the reverse primer end.
	Span LengthMode = iota
	// Insert measures from the forward primer end to the reverse primer start.
	Insert
)

func (m LengthMode) String() string {
	switch m {
	case Span:
		return "span"
	case Insert:
		return "insert"
	default:
		return "unknown"
	}
}

// ParseLengthMode parses "span" or "insert".
func ParseLengthMode(s string) (LengthMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "span", "":
		return Span, nil
	case "insert":
		return Insert, nil
	default:
		return Span, fmt.Errorf("unknown length mode %q", s)
	}
}

// Default search settings.
const (
	DefaultFloorFraction = 0.85
	DefaultPadding       = 8
)

// Options configure a Searcher.
type Options struct {
	// FloorFraction is the match fraction used by alignment.MinScore.
	FloorFraction float64
	// AbsoluteFloor overrides the fraction-based floor for every primer.
	AbsoluteFloor *float64
	// ExpectedLength enables windowed search when positive.
	ExpectedLength int
	Tolerance      int
	Mode           LengthMode
	// Padding widens each window to absorb indels inside the primer.
	Padding int
	// DisableFastPath forces the dynamic programme on every call.
	DisableFastPath bool
}

// DefaultOptions returns options with no expected length, so the whole read
// is searched.
func DefaultOptions() Options {
	return Options{
		FloorFraction: DefaultFloorFraction,
		Padding:       DefaultPadding,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.FloorFraction < 0 || o.FloorFraction > 1 {
		return fmt.Errorf("floor fraction %g outside [0, 1]", o.FloorFraction)
	}
	if o.ExpectedLength < 0 {
		return fmt.Errorf("expected length %d is negative", o.ExpectedLength)
	}
	if o.Tolerance < 0 {
		return fmt.Errorf("tolerance %d is negative", o.Tolerance)
	}
	if o.Padding < 0 {
		return fmt.Errorf("padding %d is negative", o.Padding)
	}
	return nil
}

// Hit is the best alignment of one primer in one read.
type Hit struct {
	Primer    sequence.Primer      `json:"-"`
	Name      string               `json:"primer"`
	Alignment *alignment.Alignment `json:"alignment,omitempty"`
	Floor     float64              `json:"floor"`
	NoMatch   bool                 `json:"no_match"`
	// WindowStart and WindowEnd bound the part of the read that was searched.
	WindowStart int  `json:"window_start"`
	WindowEnd   int  `json:"window_end"`
	FastPath    bool `json:"fast_path"`
}

// Score returns the alignment score, or 0 for a hit without alignment.
func (h Hit) Score() float64 {
	if h.Alignment == nil {
		return 0
	}
	return h.Alignment.Score
}

// Start returns the read start of the alignment.
func (h Hit) Start() int {
	if h.Alignment == nil {
		return -1
	}
	return h.Alignment.ReadStart
}

// End returns the read end (exclusive) of the alignment.
func (h Hit) End() int {
	if h.Alignment == nil {
		return -1
	}
	return h.Alignment.ReadEnd
}

// Searcher finds primers in reads under one ScoringConfig. It holds no
// mutable state and is safe for concurrent use.
type Searcher struct {
	cfg  alignment.ScoringConfig
	opts Options
}

// NewSearcher validates cfg and opts. A degenerate cfg yields an error
// matching alignment.ErrDegenerateConfig.
func NewSearcher(cfg alignment.ScoringConfig, opts Options) (*Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("search options: %w", err)
	}
	return &Searcher{cfg: cfg, opts: opts}, nil
}

// Config returns the scoring config.
func (s *Searcher) Config() alignment.ScoringConfig {
	return s.cfg
}

// Options returns the search options.
func (s *Searcher) Options() Options {
	return s.opts
}

// Floor returns the minimum score for primer p to count as found.
func (s *Searcher) Floor(p sequence.Primer) float64 {
	if s.opts.AbsoluteFloor != nil {
		return *s.opts.AbsoluteFloor
	}
	fraction := s.opts.FloorFraction
	if s.cfg.Threshold > 0 {
		fraction = s.cfg.Threshold
	}
	return alignment.MinScore(s.cfg, fraction, p.Len())
}

// MinSpan returns the smallest admissible distance between the forward
// start and the reverse end, or 0 when no expected length is set.
func (s *Searcher) MinSpan(set sequence.PrimerSet) int {
	if s.opts.ExpectedLength <= 0 {
		return 0
	}
	smin := s.opts.ExpectedLength - s.opts.Tolerance
	if s.opts.Mode == Insert {
		smin += set.Forward.Len() + set.Reverse.Len()
	}
	return max(smin, 0)
}

// Window returns the half-open part of a read of length readLen in which p
// can occur. ok is false when the read is too short for the construct.
func (s *Searcher) Window(readLen int, p sequence.Primer, set sequence.PrimerSet) (start, end int, ok bool) {
	if s.opts.ExpectedLength <= 0 {
		return 0, readLen, true
	}
	smin := s.MinSpan(set)
	if readLen < smin {
		return 0, 0, false
	}
	switch p.Anchor {
	case sequence.AnchorEnd:
		start = max(smin-set.Reverse.Len()-s.opts.Padding, 0)
		return start, readLen, true
	default:
		end = min(readLen-smin+set.Forward.Len()+s.opts.Padding, readLen)
		return 0, end, true
	}
}

// Search returns one Hit per primer, forward first. It fails only when the
// read holds symbols outside the alphabet.
func (s *Searcher) Search(read string, set sequence.PrimerSet) ([]Hit, error) {
	if err := sequence.Validate(read); err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, 2)
	for _, p := range set.Primers() {
		hits = append(hits, s.search(read, p, set))
	}
	return hits, nil
}

// SearchPrimer searches a single primer. set is used only for windowing.
func (s *Searcher) SearchPrimer(read string, p sequence.Primer, set sequence.PrimerSet) (Hit, error) {
	if err := sequence.Validate(read); err != nil {
		return Hit{}, err
	}
	return s.search(read, p, set), nil
}

func (s *Searcher) search(read string, p sequence.Primer, set sequence.PrimerSet) Hit {
	hit := Hit{Primer: p, Name: p.Name, Floor: s.Floor(p), NoMatch: true}

	start, end, ok := s.Window(len(read), p, set)
	if !ok {
		return hit
	}
	hit.WindowStart, hit.WindowEnd = start, end
	window := read[start:end]

	if a, ok := s.exact(window, p); ok {
		a.Offset(start)
		hit.Alignment = a
		hit.FastPath = true
	} else {
		a, err := alignment.Local(window, p.Bases, s.cfg, p.Anchor)
		if err != nil {
			// Inputs were validated by the caller.
			return hit
		}
		a.Offset(start)
		hit.Alignment = a
	}

	hit.NoMatch = hit.Alignment.Empty() || hit.Alignment.Score < hit.Floor
	return hit
}

// exact returns the alignment of a verbatim occurrence of p in window. It
// only applies when a perfect match is the unique positive optimum, which
// holds whenever a match scores above zero and above a mismatch.
func (s *Searcher) exact(window string, p sequence.Primer) (*alignment.Alignment, bool) {
	if s.opts.DisableFastPath || s.cfg.Match <= 0 || !(s.cfg.Mismatch < s.cfg.Match) {
		return nil, false
	}
	var idx int
	if p.Anchor == sequence.AnchorEnd {
		idx = strings.LastIndex(window, p.Bases)
	} else {
		idx = strings.Index(window, p.Bases)
	}
	if idx < 0 {
		return nil, false
	}
	return alignment.ExactAt(p.Bases, idx, s.cfg), true
}
