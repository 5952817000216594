package primer

import (
	"strings"
	"testing"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSet(t *testing.T, f, r string) sequence.PrimerSet {
	t.Helper()
	set, err := sequence.NewPrimerSet(f, r)
	require.NoError(t, err)
	return set
}

func TestSearchLibraryRead(t *testing.T) {
	set := mustSet(t, "ACGTACGT", "AATT")
	read := "ACGTACGTTTTTGGCCAATT"

	for _, fast := range []bool{true, false} {
		opts := DefaultOptions()
		opts.ExpectedLength = 20
		opts.DisableFastPath = !fast
		s, err := NewSearcher(alignment.Linear(1, -1, -1), opts)
		require.NoError(t, err)

		hits, err := s.Search(read, set)
		require.NoError(t, err)
		require.Len(t, hits, 2)

		assert.False(t, hits[0].NoMatch)
		assert.Equal(t, 8.0, hits[0].Score())
		assert.Equal(t, 0, hits[0].Start())
		assert.Equal(t, 8, hits[0].End())
		assert.Equal(t, fast, hits[0].FastPath)

		assert.False(t, hits[1].NoMatch)
		assert.Equal(t, 4.0, hits[1].Score())
		assert.Equal(t, 16, hits[1].Start())
		assert.Equal(t, 20, hits[1].End())
	}
}

func TestSearchDegradedForwardIsNoMatch(t *testing.T) {
	set := mustSet(t, "ACGTACGT", "AATT")
	opts := DefaultOptions()
	opts.ExpectedLength = 20
	opts.FloorFraction = 0.95
	s, err := NewSearcher(alignment.Linear(1, -1, -1), opts)
	require.NoError(t, err)

	hits, err := s.Search("ACGAACGTTTTTGGCCAATT", set)
	require.NoError(t, err)

	assert.True(t, hits[0].NoMatch)
	assert.Equal(t, 6.0, hits[0].Score())
	assert.InDelta(t, 7.2, hits[0].Floor, 1e-9)
	assert.False(t, hits[1].NoMatch)
}

func TestSearchShortReadIsNoMatch(t *testing.T) {
	set := mustSet(t, "ACGTACGT", "AATT")
	opts := DefaultOptions()
	opts.ExpectedLength = 30
	opts.Tolerance = 2
	s, err := NewSearcher(alignment.Linear(1, -1, -1), opts)
	require.NoError(t, err)

	hits, err := s.Search("ACGTACGTTTTTGGCCAATT", set)
	require.NoError(t, err)
	for _, h := range hits {
		assert.True(t, h.NoMatch)
		assert.Nil(t, h.Alignment)
	}
}

func TestWindowedEqualsUnwindowed(t *testing.T) {
	set := mustSet(t, "TCGTCGGCAG", "CCGAGCCCAC")
	insert := strings.Repeat("GATTACA", 6)
	reads := []string{
		"TCGTCGGCAG" + insert + "CCGAGCCCAC",
		"TTCGTCGGAG" + insert + "CCGAGCCCACG",
		"TCGTCGGCAG" + insert + "CCGAGCTCAC",
	}

	windowedOpts := DefaultOptions()
	windowedOpts.ExpectedLength = len(reads[0])
	windowedOpts.Tolerance = 3
	windowed, err := NewSearcher(alignment.DefaultScoring(), windowedOpts)
	require.NoError(t, err)
	full, err := NewSearcher(alignment.DefaultScoring(), DefaultOptions())
	require.NoError(t, err)

	for _, read := range reads {
		t.Run(read, func(t *testing.T) {
			w, err := windowed.Search(read, set)
			require.NoError(t, err)
			f, err := full.Search(read, set)
			require.NoError(t, err)
			for i := range w {
				assert.Equal(t, f[i].Score(), w[i].Score())
				assert.Equal(t, f[i].Start(), w[i].Start())
				assert.Equal(t, f[i].End(), w[i].End())
				assert.Equal(t, f[i].NoMatch, w[i].NoMatch)
			}
		})
	}
}

func TestFastPathMatchesDP(t *testing.T) {
	set := mustSet(t, "ACGGT", "TTGCA")
	reads := []string{
		"ACGGTAAAAATTGCA",
		"ACGGTACGGTCCCTTGCATTGCA",
		"GGACGGTTTTGCAGG",
		"ACGGAACGTTTGCCTTGCA",
	}
	configs := []alignment.ScoringConfig{
		alignment.DefaultScoring(),
		alignment.Linear(2, -1, -2),
		{Match: 3, Mismatch: 1, GapOpen: -4, GapExtend: -1},
	}

	for _, cfg := range configs {
		fast, err := NewSearcher(cfg, DefaultOptions())
		require.NoError(t, err)
		slowOpts := DefaultOptions()
		slowOpts.DisableFastPath = true
		slow, err := NewSearcher(cfg, slowOpts)
		require.NoError(t, err)

		for _, read := range reads {
			a, err := fast.Search(read, set)
			require.NoError(t, err)
			b, err := slow.Search(read, set)
			require.NoError(t, err)
			for i := range a {
				assert.Equal(t, b[i].Score(), a[i].Score(), "%s %s", cfg, read)
				assert.Equal(t, b[i].Start(), a[i].Start(), "%s %s", cfg, read)
				assert.Equal(t, b[i].End(), a[i].End(), "%s %s", cfg, read)
			}
		}
	}
}

func TestFastPathSkippedWhenMismatchNotBelowMatch(t *testing.T) {
	set := mustSet(t, "ACGGT", "TTGCA")
	s, err := NewSearcher(alignment.Linear(1, 1, -1), DefaultOptions())
	require.NoError(t, err)

	hits, err := s.Search("ACGGTAAAAATTGCA", set)
	require.NoError(t, err)
	assert.False(t, hits[0].FastPath)
	assert.False(t, hits[1].FastPath)
}

func TestZeroMatchFindsNothing(t *testing.T) {
	set := mustSet(t, "ACGGT", "TTGCA")
	s, err := NewSearcher(alignment.Linear(0, -1, -1), DefaultOptions())
	require.NoError(t, err)

	hits, err := s.Search("ACGGTAAAAATTGCA", set)
	require.NoError(t, err)
	for _, h := range hits {
		assert.False(t, h.FastPath)
		assert.True(t, h.NoMatch)
		assert.Equal(t, 0.0, h.Score())
	}
}

func TestFloor(t *testing.T) {
	p, err := sequence.NewPrimer("f", "ACGTACGTAC", sequence.AnchorStart)
	require.NoError(t, err)
	cfg := alignment.Linear(2, -1, -1)

	s, err := NewSearcher(cfg, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, alignment.MinScore(cfg, 0.85, 10), s.Floor(p), 1e-9)

	cfg.Threshold = 0.5
	s, err = NewSearcher(cfg, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, alignment.MinScore(cfg, 0.5, 10), s.Floor(p), 1e-9)

	abs := 3.5
	opts := DefaultOptions()
	opts.AbsoluteFloor = &abs
	s, err = NewSearcher(cfg, opts)
	require.NoError(t, err)
	assert.Equal(t, 3.5, s.Floor(p))
}

func TestWindow(t *testing.T) {
	set := mustSet(t, "ACGTACGT", "AATT")

	tests := []struct {
		name      string
		mode      LengthMode
		expected  int
		tolerance int
		readLen   int
		fwd, rev  [2]int
		ok        bool
	}{
		{"span exact", Span, 20, 0, 20, [2]int{0, 16}, [2]int{8, 20}, true},
		{"span longer read", Span, 20, 2, 30, [2]int{0, 28}, [2]int{6, 30}, true},
		{"insert mode", Insert, 8, 0, 20, [2]int{0, 16}, [2]int{8, 20}, true},
		{"too short", Span, 20, 0, 19, [2]int{}, [2]int{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Mode = tt.mode
			opts.ExpectedLength = tt.expected
			opts.Tolerance = tt.tolerance
			s, err := NewSearcher(alignment.Linear(1, -1, -1), opts)
			require.NoError(t, err)

			start, end, ok := s.Window(tt.readLen, set.Forward, set)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.fwd, [2]int{start, end})
			start, end, _ = s.Window(tt.readLen, set.Reverse, set)
			assert.Equal(t, tt.rev, [2]int{start, end})
		})
	}
}

func TestSearchInvalidRead(t *testing.T) {
	set := mustSet(t, "ACGT", "TTGG")
	s, err := NewSearcher(alignment.DefaultScoring(), DefaultOptions())
	require.NoError(t, err)

	_, err = s.Search("ACGT?TTGG", set)
	assert.ErrorIs(t, err, sequence.ErrInvalidSequence)
}

func TestNewSearcherRejectsDegenerate(t *testing.T) {
	_, err := NewSearcher(alignment.Linear(1, -1, 0), DefaultOptions())
	assert.ErrorIs(t, err, alignment.ErrDegenerateConfig)

	opts := DefaultOptions()
	opts.Tolerance = -1
	_, err = NewSearcher(alignment.DefaultScoring(), opts)
	assert.Error(t, err)
}

func TestParseLengthMode(t *testing.T) {
	m, err := ParseLengthMode("insert")
	require.NoError(t, err)
	assert.Equal(t, Insert, m)
	m, err = ParseLengthMode("")
	require.NoError(t, err)
	assert.Equal(t, Span, m)
	_, err = ParseLengthMode("other")
	assert.Error(t, err)
}
