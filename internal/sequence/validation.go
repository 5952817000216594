package sequence

import (
	"errors"
	"fmt"
)

// ErrInvalidSequence is matched by every InvalidSequenceError via errors.Is.
var ErrInvalidSequence = errors.New("invalid sequence")

// SequenceError is the base error type for sequence operations.
type SequenceError interface {
	error
	IsSequenceError()
}

// EmptySequenceError is returned when a sequence is empty.
type EmptySequenceError struct{}

func (e *EmptySequenceError) Error() string {
	return "sequence must have at least one base"
}

func (e *EmptySequenceError) IsSequenceError() {}

// Is reports empty sequences as invalid.
func (e *EmptySequenceError) Is(target error) bool {
	return target == ErrInvalidSequence
}

// InvalidSequenceError is returned when a symbol outside the alphabet is found.
type InvalidSequenceError struct {
	Position int
	Found    byte
}

func (e *InvalidSequenceError) Error() string {
	return fmt.Sprintf("invalid base '%c' at position %d", e.Found, e.Position)
}

func (e *InvalidSequenceError) IsSequenceError() {}

// Is lets callers test with errors.Is(err, ErrInvalidSequence).
func (e *InvalidSequenceError) Is(target error) bool {
	return target == ErrInvalidSequence
}

// alphabet is indexed by byte; IUPAC ambiguity codes are accepted.
var alphabet = func() [256]bool {
	var a [256]bool
	for _, c := range []byte("ACGTNRYSWKMBDHV") {
		a[c] = true
	}
	return a
}()

// Validate checks that bases only contains upper-case alphabet symbols.
func Validate(bases string) error {
	for i := 0; i < len(bases); i++ {
		if !alphabet[bases[i]] {
			return &InvalidSequenceError{Position: i, Found: bases[i]}
		}
	}
	return nil
}

// IsValidBase checks if a character is in the alphabet.
func IsValidBase(c byte) bool {
	return alphabet[c]
}
