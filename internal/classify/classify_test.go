package classify

import (
	"encoding/json"
	"testing"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/primer"
	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryRead = "ACGTACGTTTTTGGCCAATT"

func hit(name string, start, end int, score float64) primer.Hit {
	return primer.Hit{
		Name: name,
		Alignment: &alignment.Alignment{
			AlignedRead: "A", AlignedPrimer: "A",
			Score: score, ReadStart: start, ReadEnd: end,
		},
	}
}

func noMatch(name string) primer.Hit {
	return primer.Hit{Name: name, NoMatch: true}
}

func TestPolicyDecide(t *testing.T) {
	base := Policy{ExpectedLength: 20}

	tests := []struct {
		name    string
		policy  Policy
		hits    []primer.Hit
		readLen int
		label   Label
		reason  Reason
		length  int
	}{
		{
			name: "accepted span", policy: base,
			hits:    []primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 16, 20, 4)},
			readLen: 20, label: Accepted, reason: ReasonNone, length: 20,
		},
		{
			name: "accepted insert", policy: Policy{ExpectedLength: 8, Mode: primer.Insert},
			hits:    []primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 16, 20, 4)},
			readLen: 20, label: Accepted, reason: ReasonNone, length: 8,
		},
		{
			name: "no length rule", policy: Policy{},
			hits:    []primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 40, 44, 4)},
			readLen: 50, label: Accepted, reason: ReasonNone, length: 44,
		},
		{
			name: "both missing", policy: base,
			hits:    []primer.Hit{noMatch("forward"), noMatch("reverse")},
			readLen: 20, label: Rejected, reason: ReasonNoMatch, length: -1,
		},
		{
			name: "reverse missing", policy: base,
			hits:    []primer.Hit{hit("forward", 0, 8, 8), noMatch("reverse")},
			readLen: 20, label: Rejected, reason: ReasonNoMatch, length: -1,
		},
		{
			name: "low score", policy: Policy{ExpectedLength: 20, MinScores: map[string]float64{"forward": 9}},
			hits:    []primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 16, 20, 4)},
			readLen: 20, label: Rejected, reason: ReasonLowScore, length: -1,
		},
		{
			name: "overlap", policy: base,
			hits:    []primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 6, 10, 4)},
			readLen: 20, label: Ambiguous, reason: ReasonOverlap, length: -1,
		},
		{
			name: "length outside band", policy: Policy{ExpectedLength: 20, Tolerance: 1},
			hits:    []primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 14, 18, 4)},
			readLen: 20, label: Rejected, reason: ReasonLength, length: 18,
		},
		{
			name: "length inside band", policy: Policy{ExpectedLength: 20, Tolerance: 2},
			hits:    []primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 14, 18, 4)},
			readLen: 20, label: Accepted, reason: ReasonNone, length: 18,
		},
		{
			name: "single forward fits", policy: Policy{ExpectedLength: 20, SingleFallback: true},
			hits:    []primer.Hit{hit("forward", 0, 8, 8), noMatch("reverse")},
			readLen: 25, label: Accepted, reason: ReasonSingleForward, length: 20,
		},
		{
			name: "single forward too short", policy: Policy{ExpectedLength: 20, SingleFallback: true},
			hits:    []primer.Hit{hit("forward", 0, 8, 8), noMatch("reverse")},
			readLen: 19, label: Rejected, reason: ReasonNoMatch, length: -1,
		},
		{
			name: "single reverse fits", policy: Policy{ExpectedLength: 20, SingleFallback: true},
			hits:    []primer.Hit{noMatch("forward"), hit("reverse", 16, 20, 4)},
			readLen: 20, label: Accepted, reason: ReasonSingleReverse, length: 20,
		},
		{
			name: "single reverse too close to start", policy: Policy{ExpectedLength: 20, SingleFallback: true},
			hits:    []primer.Hit{noMatch("forward"), hit("reverse", 10, 14, 4)},
			readLen: 20, label: Rejected, reason: ReasonNoMatch, length: -1,
		},
		{
			name: "malformed", policy: base,
			hits:    []primer.Hit{hit("forward", 0, 8, 8)},
			readLen: 20, label: Ambiguous, reason: ReasonMalformed, length: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.policy.Decide(tt.hits, tt.readLen)
			assert.Equal(t, tt.label, out.Label)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, tt.length, out.Length)

			again := tt.policy.Decide(tt.hits, tt.readLen)
			assert.Equal(t, out, again)
		})
	}
}

func TestPolicyRanges(t *testing.T) {
	out := Policy{ExpectedLength: 20}.Decide(
		[]primer.Hit{hit("forward", 0, 8, 8), hit("reverse", 16, 20, 4)}, 20)
	assert.Equal(t, Range{Start: 8, End: 16}, out.Insert)
	assert.Equal(t, Range{Start: 0, End: 20}, out.Amplicon)

	single := Policy{ExpectedLength: 20, SingleFallback: true}.Decide(
		[]primer.Hit{hit("forward", 2, 10, 8), noMatch("reverse")}, 30)
	assert.Equal(t, Range{Start: 10, End: 22}, single.Insert)
	assert.Equal(t, Range{Start: 2, End: 22}, single.Amplicon)
}

func newClassifier(t *testing.T, cfg alignment.ScoringConfig, fraction float64, opts Options) *Classifier {
	t.Helper()
	set, err := sequence.NewPrimerSet("ACGTACGT", "AATT")
	require.NoError(t, err)
	sopts := primer.DefaultOptions()
	sopts.ExpectedLength = 20
	sopts.FloorFraction = fraction
	s, err := primer.NewSearcher(cfg, sopts)
	require.NoError(t, err)
	return New(s, set, Policy{ExpectedLength: 20}, opts)
}

func TestClassifyLibraryRead(t *testing.T) {
	c := newClassifier(t, alignment.Linear(1, -1, -1), 0.85, DefaultOptions())

	read, err := sequence.NewRead("r1", libraryRead)
	require.NoError(t, err)

	out := c.Classify(*read)
	assert.Equal(t, Accepted, out.Label)
	assert.Equal(t, "r1", out.ReadID)
	assert.Equal(t, 20, out.Length)
	assert.Equal(t, Forward, out.Orientation)
	require.Len(t, out.Hits, 2)
	assert.Equal(t, 8.0, out.Hits[0].Score())
	assert.Equal(t, 0, out.Hits[0].Start())
	assert.Equal(t, 4.0, out.Hits[1].Score())
	assert.Equal(t, 16, out.Hits[1].Start())
	assert.Equal(t, "TTTTGGCC", out.InsertBases(read.Bases))
	assert.Equal(t, libraryRead, out.AmpliconBases(read.Bases))

	assert.Equal(t, out, c.Classify(*read))
}

func TestClassifyDegradedForward(t *testing.T) {
	c := newClassifier(t, alignment.Linear(1, -1, -1), 0.95, DefaultOptions())

	read, err := sequence.NewRead("r2", "ACGAACGTTTTTGGCCAATT")
	require.NoError(t, err)

	out := c.Classify(*read)
	assert.Equal(t, Rejected, out.Label)
	assert.Equal(t, ReasonNoMatch, out.Reason)
}

func TestClassifyReverseComplementRead(t *testing.T) {
	read, err := sequence.NewRead("rc", sequence.ReverseComplement(libraryRead))
	require.NoError(t, err)

	c := newClassifier(t, alignment.Linear(1, -1, -1), 0.85, DefaultOptions())
	out := c.Classify(*read)
	assert.Equal(t, Accepted, out.Label)
	assert.Equal(t, ReverseComplement, out.Orientation)
	assert.Equal(t, "TTTTGGCC", out.InsertBases(read.Bases))
	assert.Equal(t, libraryRead, out.AmpliconBases(read.Bases))

	forwardOnly := newClassifier(t, alignment.Linear(1, -1, -1), 0.85, Options{})
	out = forwardOnly.Classify(*read)
	assert.Equal(t, Rejected, out.Label)
	assert.Equal(t, Forward, out.Orientation)
}

func TestClassifyInvalidSequence(t *testing.T) {
	c := newClassifier(t, alignment.Linear(1, -1, -1), 0.85, DefaultOptions())
	out := c.Classify(sequence.RawRead("bad", "ACGTXXACGT", nil))
	assert.Equal(t, Ambiguous, out.Label)
	assert.Equal(t, ReasonInvalidSequence, out.Reason)
	assert.Equal(t, "bad", out.ReadID)
	assert.Contains(t, out.Detail, "invalid base")

	out = c.Classify(sequence.RawRead("empty", "", nil))
	assert.Equal(t, Ambiguous, out.Label)
}

func TestClassifyQualityGate(t *testing.T) {
	opts := DefaultOptions()
	opts.Quality = quality.Filter{MinMean: 20}
	c := newClassifier(t, alignment.Linear(1, -1, -1), 0.85, opts)

	low := make([]int, len(libraryRead))
	for i := range low {
		low[i] = 5
	}
	q, err := quality.New(low)
	require.NoError(t, err)

	out := c.Classify(sequence.RawRead("lq", libraryRead, q))
	assert.Equal(t, Rejected, out.Label)
	assert.Equal(t, ReasonLowQuality, out.Reason)
	require.NotNil(t, out.Quality)
	assert.False(t, out.Quality.Passed)
	assert.InDelta(t, 5.0, out.Quality.MeanQuality, 1e-9)

	out = c.Classify(sequence.RawRead("noq", libraryRead, nil))
	assert.Equal(t, Accepted, out.Label)
	require.NotNil(t, out.Quality)
	assert.True(t, out.Quality.Passed)

	ungated := newClassifier(t, alignment.Linear(1, -1, -1), 0.85, DefaultOptions())
	assert.Nil(t, ungated.Classify(sequence.RawRead("lq", libraryRead, q)).Quality)
}

func TestClassifyReferenceVerification(t *testing.T) {
	read := sequence.RawRead("v", libraryRead, nil)

	opts := DefaultOptions()
	opts.References = NewReferences([]string{"", "TTTTGGCC"}, 4, 0.85)
	c := newClassifier(t, alignment.Linear(1, -1, -1), 0.85, opts)
	out := c.Classify(read)
	assert.Equal(t, Accepted, out.Label)
	assert.Equal(t, "matches reference 0", out.Detail)

	opts.References = NewReferences([]string{"GGGGAAAA"}, 4, 0.85)
	c = newClassifier(t, alignment.Linear(1, -1, -1), 0.85, opts)
	out = c.Classify(read)
	assert.Equal(t, Rejected, out.Label)
	assert.Equal(t, ReasonUnverified, out.Reason)
}

func TestReferencesMatch(t *testing.T) {
	refs := NewReferences([]string{"AAAAAAAAAAAACCCC", "ACGTACGTACGTGGGG"}, 0, 0)
	assert.Equal(t, DefaultIndexLen, refs.IndexLen)
	assert.Equal(t, 2, refs.Len())

	idx, err := refs.Match("ACGTACGTACGTGGGG", alignment.Linear(1, -1, -1))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = refs.Match("TTTTTTTTTTTTTTTT", alignment.Linear(1, -1, -1))
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	idx, err = refs.Match("", alignment.Linear(1, -1, -1))
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestNaive(t *testing.T) {
	set, err := sequence.NewPrimerSet("ACGTACGT", "AATT")
	require.NoError(t, err)
	n := Naive{Set: set, Policy: Policy{ExpectedLength: 20}, BothStrands: true}

	out := n.Classify(sequence.RawRead("a", libraryRead, nil))
	assert.Equal(t, Accepted, out.Label)
	assert.Equal(t, 20, out.Length)

	out = n.Classify(sequence.RawRead("b", "ACGAACGTTTTTGGCCAATT", nil))
	assert.Equal(t, Rejected, out.Label)
	assert.Equal(t, ReasonNoMatch, out.Reason)

	out = n.Classify(sequence.RawRead("c", sequence.ReverseComplement(libraryRead), nil))
	assert.Equal(t, Accepted, out.Label)
	assert.Equal(t, ReverseComplement, out.Orientation)

	out = n.Classify(sequence.RawRead("d", "ACGT-ACGT", nil))
	assert.Equal(t, Ambiguous, out.Label)
}

func TestOutcomeJSON(t *testing.T) {
	out := Outcome{ReadID: "x", Label: Rejected, Reason: ReasonLength, Orientation: ReverseComplement, Length: 18}
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"label":"rejected"`)
	assert.Contains(t, string(b), `"reason":"length"`)
	assert.Contains(t, string(b), `"orientation":"reverse-complement"`)

	var l Label
	require.NoError(t, l.UnmarshalText([]byte("ambiguous")))
	assert.Equal(t, Ambiguous, l)
	assert.Error(t, l.UnmarshalText([]byte("maybe")))
}
