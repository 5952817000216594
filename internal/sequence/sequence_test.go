package sequence

import (
	"errors"
	"testing"

	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRead(t *testing.T) {
	tests := []struct {
		name    string
		bases   string
		want    string
		wantErr bool
		errType interface{}
	}{
		{name: "valid DNA", bases: "ATGCATGC", want: "ATGCATGC"},
		{name: "lowercase normalised", bases: "atgcatgc", want: "ATGCATGC"},
		{name: "ambiguity codes", bases: "ACGTNRYSWKMBDHV", want: "ACGTNRYSWKMBDHV"},
		{name: "empty", bases: "", wantErr: true, errType: &EmptySequenceError{}},
		{name: "invalid X", bases: "ATGCXATGC", wantErr: true, errType: &InvalidSequenceError{}},
		{name: "digit", bases: "ATG1", wantErr: true, errType: &InvalidSequenceError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRead("r1", tt.bases)
			if tt.wantErr {
				require.Error(t, err)
				assert.IsType(t, tt.errType, err)
				assert.True(t, errors.Is(err, ErrInvalidSequence))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Bases)
			assert.Equal(t, "r1", r.ID)
		})
	}
}

func TestInvalidSequenceErrorPosition(t *testing.T) {
	err := Validate("ACGZT")
	var inv *InvalidSequenceError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, 3, inv.Position)
	assert.Equal(t, byte('Z'), inv.Found)
}

func TestRawReadDefersValidation(t *testing.T) {
	r := RawRead("x", "acgx", nil)
	assert.Equal(t, "ACGX", r.Bases)
	assert.Error(t, r.Validate())
	assert.Equal(t, -1.0, r.MeanQuality())
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ACGT", "ACGT"},
		{"AAAACCC", "GGGTTTT"},
		{"ACGTN", "NACGT"},
		{"RYKM", "KMRY"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ReverseComplement(tt.in))
			assert.Equal(t, tt.in, ReverseComplement(ReverseComplement(tt.in)))
		})
	}
}

func TestComplementAndReverse(t *testing.T) {
	assert.Equal(t, "TGCA", Complement("ACGT"))
	assert.Equal(t, "TGCA", Reverse("ACGT"))
}

func TestReverseComplementReadKeepsQuality(t *testing.T) {
	q, err := quality.New([]int{10, 20, 30})
	require.NoError(t, err)
	r := RawRead("q", "AAC", q)

	rc := ReverseComplementRead(r)
	assert.Equal(t, "GTT", rc.Bases)
	assert.Equal(t, []int{30, 20, 10}, rc.Quality.Values)
	assert.Equal(t, []int{10, 20, 30}, r.Quality.Values)
}

func TestPrimerSet(t *testing.T) {
	ps, err := NewPrimerSet("acgtac", "GGTTAA")
	require.NoError(t, err)
	assert.Equal(t, "ACGTAC", ps.Forward.Bases)
	assert.Equal(t, AnchorStart, ps.Forward.Anchor)
	assert.Equal(t, AnchorEnd, ps.Reverse.Anchor)

	rc := ps.ReverseComplemented()
	assert.Equal(t, "TTAACC", rc.Forward.Bases)
	assert.Equal(t, "GTACGT", rc.Reverse.Bases)
	assert.Equal(t, AnchorStart, rc.Forward.Anchor)
	assert.Equal(t, AnchorEnd, rc.Reverse.Anchor)
}

func TestPrimerSetRejectsInvalid(t *testing.T) {
	_, err := NewPrimerSet("", "ACGT")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	_, err = NewPrimerSet("ACGT", "AC-T")
	require.Error(t, err)
	var inv *InvalidSequenceError
	assert.ErrorAs(t, err, &inv)
}

func TestParseAnchor(t *testing.T) {
	a, err := ParseAnchor("reverse")
	require.NoError(t, err)
	assert.Equal(t, AnchorEnd, a)

	a, err = ParseAnchor("Start")
	require.NoError(t, err)
	assert.Equal(t, AnchorStart, a)

	_, err = ParseAnchor("middle")
	assert.Error(t, err)
}
