package alignment

import (
	"fmt"
	"math"
	"strings"

	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// Alignment is the best local alignment of a primer inside a read.
//
// Ranges are half-open and 0-based. An empty alignment (no positive score)
// has Score 0 and empty aligned strings.
type Alignment struct {
	AlignedRead   string
	AlignedPrimer string
	Score         float64
	ReadStart     int
	ReadEnd       int
	PrimerStart   int
	PrimerEnd     int
	Identity      float64
}

func newAlignment(alignedRead, alignedPrimer string, score float64,
	readStart, readEnd, primerStart, primerEnd int) *Alignment {
	a := &Alignment{
		AlignedRead:   alignedRead,
		AlignedPrimer: alignedPrimer,
		Score:         score,
		ReadStart:     readStart,
		ReadEnd:       readEnd,
		PrimerStart:   primerStart,
		PrimerEnd:     primerEnd,
	}
	a.Identity = a.calculateIdentity()
	return a
}

// ExactAt builds the gap-free alignment of primer occurring verbatim at
// readStart. The score is accumulated exactly as Local would.
func ExactAt(primer string, readStart int, cfg ScoringConfig) *Alignment {
	return newAlignment(primer, primer, cfg.ExactScore(len(primer)),
		readStart, readStart+len(primer), 0, len(primer))
}

// Empty reports whether no positive-scoring alignment was found.
func (a *Alignment) Empty() bool {
	return len(a.AlignedRead) == 0
}

// Offset shifts the read range, for alignments computed on a window.
func (a *Alignment) Offset(by int) {
	if a.Empty() {
		return
	}
	a.ReadStart += by
	a.ReadEnd += by
}

func (a *Alignment) calculateIdentity() float64 {
	if len(a.AlignedRead) == 0 {
		return 0.0
	}
	return float64(a.MatchCount()) / float64(len(a.AlignedRead))
}

// Length returns the length of the alignment, gaps included.
func (a *Alignment) Length() int {
	return len(a.AlignedRead)
}

// MatchCount returns the number of matches.
func (a *Alignment) MatchCount() int {
	count := 0
	for i := 0; i < len(a.AlignedRead); i++ {
		if a.AlignedRead[i] == a.AlignedPrimer[i] && a.AlignedRead[i] != '-' {
			count++
		}
	}
	return count
}

// MismatchCount returns the number of mismatches.
func (a *Alignment) MismatchCount() int {
	count := 0
	for i := 0; i < len(a.AlignedRead); i++ {
		if a.AlignedRead[i] != a.AlignedPrimer[i] &&
			a.AlignedRead[i] != '-' && a.AlignedPrimer[i] != '-' {
			count++
		}
	}
	return count
}

// TotalGaps returns the total number of gap symbols.
func (a *Alignment) TotalGaps() int {
	return strings.Count(a.AlignedRead, "-") + strings.Count(a.AlignedPrimer, "-")
}

// GapOpenings counts the number of gap openings.
func (a *Alignment) GapOpenings() int {
	openings := 0
	inGapRead, inGapPrimer := false, false

	for i := 0; i < len(a.AlignedRead); i++ {
		if a.AlignedRead[i] == '-' && !inGapRead {
			openings++
			inGapRead = true
		} else if a.AlignedRead[i] != '-' {
			inGapRead = false
		}

		if a.AlignedPrimer[i] == '-' && !inGapPrimer {
			openings++
			inGapPrimer = true
		} else if a.AlignedPrimer[i] != '-' {
			inGapPrimer = false
		}
	}

	return openings
}

// ToCIGAR generates an extended CIGAR string with the read as reference.
func (a *Alignment) ToCIGAR() string {
	if len(a.AlignedRead) == 0 {
		return ""
	}

	var cigar strings.Builder
	currentOp := byte(0)
	count := 0

	for i := 0; i < len(a.AlignedRead); i++ {
		var op byte
		switch {
		case a.AlignedRead[i] == '-':
			op = 'I'
		case a.AlignedPrimer[i] == '-':
			op = 'D'
		case a.AlignedRead[i] == a.AlignedPrimer[i]:
			op = '='
		default:
			op = 'X'
		}

		if op == currentOp {
			count++
			continue
		}
		if count > 0 {
			fmt.Fprintf(&cigar, "%d%c", count, currentOp)
		}
		currentOp = op
		count = 1
	}
	fmt.Fprintf(&cigar, "%d%c", count, currentOp)

	return cigar.String()
}

// Format returns a formatted string representation of the alignment.
func (a *Alignment) Format() string {
	var matchLine strings.Builder
	for i := 0; i < len(a.AlignedRead); i++ {
		switch {
		case a.AlignedRead[i] == a.AlignedPrimer[i] && a.AlignedRead[i] != '-':
			matchLine.WriteByte('|')
		case a.AlignedRead[i] == '-' || a.AlignedPrimer[i] == '-':
			matchLine.WriteByte(' ')
		default:
			matchLine.WriteByte('.')
		}
	}

	return fmt.Sprintf("Read:   %s\n        %s\nPrimer: %s\nScore: %.4f\nRead range: [%d, %d)\nIdentity: %.1f%%\nCIGAR: %s",
		a.AlignedRead, matchLine.String(), a.AlignedPrimer,
		a.Score, a.ReadStart, a.ReadEnd, a.Identity*100, a.ToCIGAR())
}

func (a *Alignment) String() string {
	return fmt.Sprintf("Alignment { score: %.4f, read: [%d, %d), identity: %.1f%% }",
		a.Score, a.ReadStart, a.ReadEnd, a.Identity*100)
}

// matrices holds the Gotoh DP state. M ends with read[i-1] paired to
// primer[j-1], E ends with a gap in the primer and F with a gap in the read.
// Each state keeps its own back-pointer so gap runs are charged once.
type matrices struct {
	M, E, F       []float64
	tbM, tbE, tbF []tbState
	cols          int
}

func newMatrices(rows, cols int) *matrices {
	size := rows * cols
	m := &matrices{
		M:    make([]float64, size),
		E:    make([]float64, size),
		F:    make([]float64, size),
		tbM:  make([]tbState, size),
		tbE:  make([]tbState, size),
		tbF:  make([]tbState, size),
		cols: cols,
	}
	negInf := math.Inf(-1)
	for k := range m.M {
		m.M[k] = negInf
		m.E[k] = negInf
		m.F[k] = negInf
	}
	return m
}

func (m *matrices) at(i, j int) int {
	return i*m.cols + j
}

// Local finds the optimal local alignment of primer inside read.
//
// Equal best scores are resolved by anchor: AnchorStart keeps the alignment
// whose read end is closest to the start of the read, AnchorEnd the one
// closest to the end. Within a cell the traceback prefers Diagonal, then Up,
// then Left, and a gap prefers opening over extending.
func Local(read, primer string, cfg ScoringConfig, anchor sequence.Anchor) (*Alignment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := sequence.Validate(read); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if err := sequence.Validate(primer); err != nil {
		return nil, fmt.Errorf("primer: %w", err)
	}
	if len(primer) == 0 {
		return nil, fmt.Errorf("primer: %w", &sequence.EmptySequenceError{})
	}
	return localAlign(read, primer, cfg, anchor), nil
}

// pick returns the largest of the three state scores, preferring m, then e,
// then f on ties.
func pick(m, e, f float64, sm, se, sf tbState) (float64, tbState) {
	v, s := m, sm
	if e > v {
		v, s = e, se
	}
	if f > v {
		v, s = f, sf
	}
	return v, s
}

// localAlign assumes validated inputs.
func localAlign(read, primer string, cfg ScoringConfig, anchor sequence.Anchor) *Alignment {
	rows, cols := len(read)+1, len(primer)+1
	if len(read) == 0 {
		return newAlignment("", "", 0, 0, 0, 0, 0)
	}
	m := newMatrices(rows, cols)

	best := 0.0
	bestI, bestJ := 0, 0

	for i := 1; i < rows; i++ {
		rb := read[i-1]
		for j := 1; j < cols; j++ {
			k := m.at(i, j)
			diag := m.at(i-1, j-1)
			up := m.at(i-1, j)
			left := m.at(i, j-1)

			prev, from := pick(m.M[diag], m.E[diag], m.F[diag], stateM, stateE, stateF)
			if prev <= 0 {
				prev, from = 0, stateStop
			}
			h := prev + cfg.Score(rb, primer[j-1])
			m.M[k] = h
			m.tbM[k] = from

			// Opening from either state beats extending on ties.
			m.E[k], m.tbE[k] = pick(m.M[up]+cfg.GapOpen, m.F[up]+cfg.GapOpen, m.E[up]+cfg.GapExtend,
				stateM, stateF, stateE)
			m.F[k], m.tbF[k] = pick(m.M[left]+cfg.GapOpen, m.E[left]+cfg.GapOpen, m.F[left]+cfg.GapExtend,
				stateM, stateE, stateF)

			// A gap never ends an optimal local alignment, so only M is scanned.
			if h <= 0 {
				continue
			}
			switch anchor {
			case sequence.AnchorEnd:
				// Later cells win ties: largest read end, then largest primer end.
				if h >= best {
					best, bestI, bestJ = h, i, j
				}
			default:
				// Earliest read end wins; within that row the longest primer prefix.
				if h > best || (h == best && i == bestI) {
					best, bestI, bestJ = h, i, j
				}
			}
		}
	}

	if best <= 0 {
		return newAlignment("", "", 0, 0, 0, 0, 0)
	}

	alignedRead, alignedPrimer, startI, startJ := m.traceback(read, primer, bestI, bestJ)
	return newAlignment(alignedRead, alignedPrimer, best, startI, bestI, startJ, bestJ)
}

type tbState uint8

const (
	stateStop tbState = iota
	stateM
	stateE
	stateF
)

// traceback follows the per-state pointers back from M(i, j) to the cell
// where the alignment started.
func (m *matrices) traceback(read, primer string, i, j int) (string, string, int, int) {
	var alignedRead, alignedPrimer []byte
	state := stateM

	for state != stateStop {
		k := m.at(i, j)
		switch state {
		case stateM:
			alignedRead = append(alignedRead, read[i-1])
			alignedPrimer = append(alignedPrimer, primer[j-1])
			state = m.tbM[k]
			i--
			j--
		case stateE:
			alignedRead = append(alignedRead, read[i-1])
			alignedPrimer = append(alignedPrimer, '-')
			state = m.tbE[k]
			i--
		case stateF:
			alignedRead = append(alignedRead, '-')
			alignedPrimer = append(alignedPrimer, primer[j-1])
			state = m.tbF[k]
			j--
		}
	}

	reverseBytes(alignedRead)
	reverseBytes(alignedPrimer)
	return string(alignedRead), string(alignedPrimer), i, j
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
