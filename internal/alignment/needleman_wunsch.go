package alignment

import (
	"fmt"
	"math"

	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// GlobalScore computes the Needleman-Wunsch score of aligning a and b end
// to end under affine gaps. Only two rows are kept, so memory is O(len(b)).
func GlobalScore(a, b string, cfg ScoringConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := sequence.Validate(a); err != nil {
		return 0, fmt.Errorf("first sequence: %w", err)
	}
	if err := sequence.Validate(b); err != nil {
		return 0, fmt.Errorf("second sequence: %w", err)
	}
	return globalScore(a, b, cfg), nil
}

func globalScore(a, b string, cfg ScoringConfig) float64 {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return cfg.GapCost(m + n)
	}

	// M pairs a[i-1] with b[j-1], E ends with a gap in b, F with a gap in a.
	negInf := math.Inf(-1)
	prevM := make([]float64, n+1)
	prevE := make([]float64, n+1)
	prevF := make([]float64, n+1)
	currM := make([]float64, n+1)
	currE := make([]float64, n+1)
	currF := make([]float64, n+1)

	// Row 0: a leading gap in a of length j.
	prevM[0], prevE[0], prevF[0] = 0, negInf, negInf
	for j := 1; j <= n; j++ {
		prevM[j] = negInf
		prevE[j] = negInf
		prevF[j] = cfg.GapCost(j)
	}

	for i := 1; i <= m; i++ {
		currM[0], currE[0], currF[0] = negInf, cfg.GapCost(i), negInf
		for j := 1; j <= n; j++ {
			currM[j] = max(prevM[j-1], prevE[j-1], prevF[j-1]) + cfg.Score(a[i-1], b[j-1])
			currE[j] = max(prevM[j]+cfg.GapOpen, prevF[j]+cfg.GapOpen, prevE[j]+cfg.GapExtend)
			currF[j] = max(currM[j-1]+cfg.GapOpen, currE[j-1]+cfg.GapOpen, currF[j-1]+cfg.GapExtend)
		}
		prevM, currM = currM, prevM
		prevE, currE = currE, prevE
		prevF, currF = currF, prevF
	}

	return max(prevM[n], prevE[n], prevF[n])
}
