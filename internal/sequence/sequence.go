// Package sequence provides validated nucleotide types for reads and primers.
//
// Bases are normalised to upper case at construction time. The accepted
// alphabet is A, C, G, T, N plus the IUPAC ambiguity codes; anything else is
// rejected with an InvalidSequenceError.
package sequence

import (
	"fmt"
	"strings"

	"github.com/aria-lang/primerscan-go/internal/quality"
)

// Anchor says which end of a read a primer is expected near.
type Anchor int

const (
	// AnchorStart is used for forward primers.
	AnchorStart Anchor = iota
	// AnchorEnd is used for reverse primers.
	AnchorEnd
)

func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "start"
	case AnchorEnd:
		return "end"
	default:
		return "unknown"
	}
}

// ParseAnchor parses "start"/"forward" or "end"/"reverse".
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "forward", "front", "":
		return AnchorStart, nil
	case "end", "reverse", "back":
		return AnchorEnd, nil
	default:
		return AnchorStart, fmt.Errorf("unknown anchor %q", s)
	}
}

// Read is a single sequencing read. It is immutable once constructed.
type Read struct {
	ID      string
	Bases   string
	Quality *quality.Scores
}

// NewRead creates a read with validated, upper-cased bases.
func NewRead(id, bases string) (*Read, error) {
	normalized := strings.ToUpper(strings.TrimSpace(bases))
	if len(normalized) == 0 {
		return nil, &EmptySequenceError{}
	}
	if err := Validate(normalized); err != nil {
		return nil, err
	}
	return &Read{ID: id, Bases: normalized}, nil
}

// RawRead creates a read without validating its bases. Reads coming from
// files are built this way so that a malformed record is reported per read
// by the classifier instead of aborting the whole batch.
func RawRead(id, bases string, qual *quality.Scores) Read {
	return Read{ID: id, Bases: strings.ToUpper(bases), Quality: qual}
}

// Len returns the number of bases.
func (r *Read) Len() int {
	return len(r.Bases)
}

// Validate checks the read's bases against the alphabet.
func (r *Read) Validate() error {
	if len(r.Bases) == 0 {
		return &EmptySequenceError{}
	}
	return Validate(r.Bases)
}

// MeanQuality returns the mean Phred score, or -1 when no qualities are known.
func (r *Read) MeanQuality() float64 {
	if r.Quality == nil || r.Quality.Len() == 0 {
		return -1
	}
	return r.Quality.Average()
}

// Primer is a short fixed sequence expected to flank a library insert.
type Primer struct {
	Name   string
	Bases  string
	Anchor Anchor
}

// NewPrimer creates a validated primer.
func NewPrimer(name, bases string, anchor Anchor) (Primer, error) {
	normalized := strings.ToUpper(strings.TrimSpace(bases))
	if len(normalized) == 0 {
		return Primer{}, fmt.Errorf("primer %q: %w", name, &EmptySequenceError{})
	}
	if err := Validate(normalized); err != nil {
		return Primer{}, fmt.Errorf("primer %q: %w", name, err)
	}
	return Primer{Name: name, Bases: normalized, Anchor: anchor}, nil
}

// Len returns the primer length.
func (p Primer) Len() int {
	return len(p.Bases)
}

// PrimerSet holds the forward and reverse primers of a library construct.
type PrimerSet struct {
	Forward Primer
	Reverse Primer
}

// NewPrimerSet validates both primers and fixes their anchors.
func NewPrimerSet(forward, reverse string) (PrimerSet, error) {
	f, err := NewPrimer("forward", forward, AnchorStart)
	if err != nil {
		return PrimerSet{}, err
	}
	r, err := NewPrimer("reverse", reverse, AnchorEnd)
	if err != nil {
		return PrimerSet{}, err
	}
	return PrimerSet{Forward: f, Reverse: r}, nil
}

// Primers returns the primers in search order.
func (ps PrimerSet) Primers() []Primer {
	return []Primer{ps.Forward, ps.Reverse}
}

// ReverseComplemented returns the primer set as it appears on a read
// sequenced from the opposite strand: the reverse complement of the reverse
// primer now sits at the start, and that of the forward primer at the end.
func (ps PrimerSet) ReverseComplemented() PrimerSet {
	return PrimerSet{
		Forward: Primer{Name: ps.Forward.Name, Bases: ReverseComplement(ps.Reverse.Bases), Anchor: AnchorStart},
		Reverse: Primer{Name: ps.Reverse.Name, Bases: ReverseComplement(ps.Forward.Bases), Anchor: AnchorEnd},
	}
}

// complementBase returns the complement of a nucleotide, IUPAC codes included.
func complementBase(c byte) byte {
	switch c {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'R':
		return 'Y'
	case 'Y':
		return 'R'
	case 'K':
		return 'M'
	case 'M':
		return 'K'
	case 'B':
		return 'V'
	case 'V':
		return 'B'
	case 'D':
		return 'H'
	case 'H':
		return 'D'
	case 'S', 'W', 'N':
		return c
	default:
		return 'N'
	}
}

// Complement returns the base-wise complement of bases.
func Complement(bases string) string {
	out := make([]byte, len(bases))
	for i := 0; i < len(bases); i++ {
		out[i] = complementBase(bases[i])
	}
	return string(out)
}

// Reverse returns bases in reverse order.
func Reverse(bases string) string {
	out := make([]byte, len(bases))
	n := len(bases)
	for i := 0; i < n; i++ {
		out[n-1-i] = bases[i]
	}
	return string(out)
}

// ReverseComplement returns the reverse complement of bases.
func ReverseComplement(bases string) string {
	n := len(bases)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = complementBase(bases[i])
	}
	return string(out)
}

// ReverseComplementRead returns a new read on the opposite strand. Quality
// scores are reversed with the bases.
func ReverseComplementRead(r Read) Read {
	out := Read{ID: r.ID, Bases: ReverseComplement(r.Bases)}
	if r.Quality != nil {
		out.Quality = r.Quality.Reversed()
	}
	return out
}
