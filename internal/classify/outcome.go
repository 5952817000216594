// Package classify decides whether a read carries the expected library
// construct.
package classify

import (
	"fmt"

	"github.com/aria-lang/primerscan-go/internal/primer"
	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// Label is the classification of one read.
type Label int

const (
	Accepted Label = iota
	Rejected
	Ambiguous
)

func (l Label) String() string {
	switch l {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(b []byte) error {
	switch string(b) {
	case "accepted":
		*l = Accepted
	case "rejected":
		*l = Rejected
	case "ambiguous":
		*l = Ambiguous
	default:
		return fmt.Errorf("unknown label %q", b)
	}
	return nil
}

// Reason explains a label.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonSingleForward   Reason = "single-forward"
	ReasonSingleReverse   Reason = "single-reverse"
	ReasonNoMatch         Reason = "no-match"
	ReasonLowScore        Reason = "low-score"
	ReasonLength          Reason = "length"
	ReasonLowQuality      Reason = "low-quality"
	ReasonUnverified      Reason = "unverified"
	ReasonOverlap         Reason = "overlap"
	ReasonMalformed       Reason = "malformed"
	ReasonInvalidSequence Reason = "invalid-sequence"
)

// Reasons lists every reason in report order.
func Reasons() []Reason {
	return []Reason{
		ReasonSingleForward, ReasonSingleReverse,
		ReasonNoMatch, ReasonLowScore, ReasonLength, ReasonLowQuality, ReasonUnverified,
		ReasonOverlap, ReasonMalformed, ReasonInvalidSequence,
	}
}

// Orientation says which primer set produced the outcome.
type Orientation int

const (
	// Forward uses the primers as configured.
	Forward Orientation = iota
	// ReverseComplement uses the reverse-complemented primer set.
	ReverseComplement
)

func (o Orientation) String() string {
	if o == ReverseComplement {
		return "reverse-complement"
	}
	return "forward"
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Range is a half-open interval of read positions.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of positions covered.
func (r Range) Len() int {
	return max(r.End-r.Start, 0)
}

// Outcome is the classification of one read. It is a plain value and can
// be serialised as-is.
type Outcome struct {
	ReadID      string       `json:"read_id"`
	Label       Label        `json:"label"`
	Reason      Reason       `json:"reason,omitempty"`
	Orientation Orientation  `json:"orientation"`
	Hits        []primer.Hit `json:"hits,omitempty"`
	// Length is the measured construct length, or -1 when not measured.
	Length int `json:"length"`
	// Insert lies between the primers; Amplicon includes them.
	Insert   Range  `json:"insert"`
	Amplicon Range  `json:"amplicon"`
	Detail   string `json:"detail,omitempty"`
	// Quality is the gate result; nil when the gate is disabled.
	Quality *quality.FilterResult `json:"quality,omitempty"`
}

// IsAccepted reports whether the read was accepted.
func (o Outcome) IsAccepted() bool {
	return o.Label == Accepted
}

// InsertBases returns the insert in the configured primer orientation.
func (o Outcome) InsertBases(read string) string {
	return o.extract(read, o.Insert)
}

// AmpliconBases returns the insert with its primers, in the configured
// primer orientation.
func (o Outcome) AmpliconBases(read string) string {
	return o.extract(read, o.Amplicon)
}

func (o Outcome) extract(read string, r Range) string {
	if r.Len() == 0 || r.Start < 0 || r.End > len(read) {
		return ""
	}
	s := read[r.Start:r.End]
	if o.Orientation == ReverseComplement {
		return sequence.ReverseComplement(s)
	}
	return s
}

func (o Outcome) String() string {
	if o.Reason == ReasonNone {
		return fmt.Sprintf("%s (%s)", o.Label, o.Orientation)
	}
	return fmt.Sprintf("%s: %s (%s)", o.Label, o.Reason, o.Orientation)
}
