// Package quality provides Phred quality score handling for sequencing reads.
//
// Phred quality scores are logarithmically related to base-calling error probabilities:
//
//	Q = -10 * log10(P_error)
//
// Common thresholds:
//
//	Q10 = 90% accuracy
//	Q20 = 99% accuracy
//	Q30 = 99.9% accuracy
package quality

import "fmt"

// Constants for Phred scores. Sanger encoding tops out at '~' (Q93).
const (
	PhredMin = 0
	PhredMax = 93
)

// QualityError is the base error type for quality operations.
type QualityError interface {
	error
	IsQualityError()
}

// EmptyScoresError is returned when quality scores are empty.
type EmptyScoresError struct{}

func (e *EmptyScoresError) Error() string {
	return "quality scores cannot be empty"
}
func (e *EmptyScoresError) IsQualityError() {}

// ScoreOutOfRangeError is returned when a score is out of valid range.
type ScoreOutOfRangeError struct {
	Position int
	Score    int
}

func (e *ScoreOutOfRangeError) Error() string {
	return fmt.Sprintf("score %d at position %d is out of range [%d, %d]", e.Score, e.Position, PhredMin, PhredMax)
}
func (e *ScoreOutOfRangeError) IsQualityError() {}

// InvalidEncodingError is returned when a quality encoding character is invalid.
type InvalidEncodingError struct {
	Char rune
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("invalid encoding character: '%c'", e.Char)
}
func (e *InvalidEncodingError) IsQualityError() {}

// Scores holds per-base quality scores for a read.
type Scores struct {
	Values []int
}

// New creates quality scores from an array of integers.
func New(scores []int) (*Scores, error) {
	if len(scores) == 0 {
		return nil, &EmptyScoresError{}
	}
	for i, score := range scores {
		if score < PhredMin || score > PhredMax {
			return nil, &ScoreOutOfRangeError{Position: i, Score: score}
		}
	}

	values := make([]int, len(scores))
	copy(values, scores)
	return &Scores{Values: values}, nil
}

// FromPhred33 creates quality scores from a Phred+33 encoded string.
func FromPhred33(encoded string) (*Scores, error) {
	if len(encoded) == 0 {
		return nil, &EmptyScoresError{}
	}

	scores := make([]int, 0, len(encoded))
	for _, c := range encoded {
		if c < '!' || c > '~' {
			return nil, &InvalidEncodingError{Char: c}
		}
		scores = append(scores, int(c)-33)
	}
	return &Scores{Values: scores}, nil
}

// Len returns the number of quality scores.
func (s *Scores) Len() int {
	return len(s.Values)
}

// Average calculates the average quality score.
func (s *Scores) Average() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range s.Values {
		sum += v
	}
	return float64(sum) / float64(len(s.Values))
}

// Min returns the lowest score.
func (s *Scores) Min() int {
	if len(s.Values) == 0 {
		return 0
	}
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		m = min(m, v)
	}
	return m
}

// Reversed returns the scores in reverse order, for reads moved to the
// opposite strand.
func (s *Scores) Reversed() *Scores {
	n := len(s.Values)
	out := make([]int, n)
	for i, v := range s.Values {
		out[n-1-i] = v
	}
	return &Scores{Values: out}
}

func (s *Scores) String() string {
	return fmt.Sprintf("Scores(len=%d, avg=%.1f, min=%d)", len(s.Values), s.Average(), s.Min())
}
