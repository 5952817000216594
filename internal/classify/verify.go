package classify

import (
	"fmt"

	"github.com/aria-lang/primerscan-go/internal/alignment"
)

// DefaultIndexLen is the length of the barcode prefix compared first.
const DefaultIndexLen = 12

// References is a set of known inserts accepted reads are checked against.
//
// A read passes when, for some reference, the global alignment of the first
// IndexLen bases clears the index floor and the global alignment of the
// whole insert clears the insert floor. Both floors come from
// alignment.MinScore with Fraction.
type References struct {
	Seqs     []string
	IndexLen int
	Fraction float64
}

// NewReferences drops empty entries and applies defaults.
func NewReferences(seqs []string, indexLen int, fraction float64) *References {
	kept := make([]string, 0, len(seqs))
	for _, s := range seqs {
		if len(s) > 0 {
			kept = append(kept, s)
		}
	}
	if indexLen <= 0 {
		indexLen = DefaultIndexLen
	}
	if fraction <= 0 {
		fraction = 0.85
	}
	return &References{Seqs: kept, IndexLen: indexLen, Fraction: fraction}
}

// Len returns the number of references.
func (r *References) Len() int {
	return len(r.Seqs)
}

// Match reports the index of the first reference the insert matches, or -1.
func (r *References) Match(insert string, cfg alignment.ScoringConfig) (int, error) {
	if len(insert) == 0 {
		return -1, nil
	}
	indexFloor := alignment.MinScore(cfg, r.Fraction, r.IndexLen)
	insertFloor := alignment.MinScore(cfg, r.Fraction, len(insert))
	idx := prefix(insert, r.IndexLen)

	for i, ref := range r.Seqs {
		score, err := alignment.GlobalScore(idx, prefix(ref, r.IndexLen), cfg)
		if err != nil {
			return -1, fmt.Errorf("reference %d index: %w", i, err)
		}
		if score < indexFloor {
			continue
		}
		full, err := alignment.GlobalScore(insert, ref, cfg)
		if err != nil {
			return -1, fmt.Errorf("reference %d: %w", i, err)
		}
		if full >= insertFloor {
			return i, nil
		}
	}
	return -1, nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
