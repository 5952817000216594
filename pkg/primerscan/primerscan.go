// Package primerscan provides a high-level API for classifying reads by
// their flanking primers and for tuning the alignment scores used to find
// them.
//
// Example usage:
//
//	engine, err := primerscan.NewEngine(primerscan.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	groups, err := primerscan.LoadGroups("raw_reads/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := engine.Filter(ctx, groups, engine.Config().Scores, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(summary.Total)
package primerscan

import (
	"context"
	"fmt"
	"strings"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/classify"
	"github.com/aria-lang/primerscan-go/internal/config"
	"github.com/aria-lang/primerscan-go/internal/evaluate"
	"github.com/aria-lang/primerscan-go/internal/objective"
	"github.com/aria-lang/primerscan-go/internal/primer"
	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/reads"
	"github.com/aria-lang/primerscan-go/internal/search"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// Re-export types for convenience
type (
	Read          = sequence.Read
	PrimerSet     = sequence.PrimerSet
	ScoringConfig = alignment.ScoringConfig
	Alignment     = alignment.Alignment
	Hit           = primer.Hit
	Outcome       = classify.Outcome
	Group         = evaluate.Group
	Detail        = evaluate.Detail
	Summary       = evaluate.Summary
	GroupSummary  = evaluate.GroupSummary
	Config        = config.Config
	Trial         = search.Trial
	Result        = search.Result
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// DefaultScoring returns the tuned default weights.
func DefaultScoring() ScoringConfig {
	return alignment.DefaultScoring()
}

// NewRead creates a validated read.
func NewRead(id, bases string) (*Read, error) {
	return sequence.NewRead(id, bases)
}

// NewReadWithQuality creates a validated read with Phred+33 qualities.
func NewReadWithQuality(id, bases, phred33 string) (*Read, error) {
	r, err := sequence.NewRead(id, bases)
	if err != nil {
		return nil, err
	}
	q, err := quality.FromPhred33(phred33)
	if err != nil {
		return nil, err
	}
	if q.Len() != r.Len() {
		return nil, fmt.Errorf("sequence and quality must have same length")
	}
	r.Quality = q
	return r, nil
}

// AlignPrimer aligns a primer inside a read. anchor is "start" or "end".
// Bases are case-insensitive.
func AlignPrimer(read, primerBases string, cfg ScoringConfig, anchor string) (*Alignment, error) {
	a, err := sequence.ParseAnchor(anchor)
	if err != nil {
		return nil, err
	}
	return alignment.Local(strings.ToUpper(read), strings.ToUpper(primerBases), cfg, a)
}

// GlobalScore returns the global alignment score of two sequences. Bases
// are case-insensitive.
func GlobalScore(a, b string, cfg ScoringConfig) (float64, error) {
	return alignment.GlobalScore(strings.ToUpper(a), strings.ToUpper(b), cfg)
}

// LoadGroups loads read files and directories, one group per file.
func LoadGroups(paths ...string) ([]Group, error) {
	return reads.Load(paths...)
}

// MemoryGroup wraps in-memory reads as a group.
func MemoryGroup(name string, rs []Read) Group {
	return &evaluate.MemoryGroup{GroupName: name, Reads: rs}
}

// Engine holds everything derived from a validated Config. It is safe for
// concurrent use.
type Engine struct {
	cfg    Config
	set    PrimerSet
	search primer.Options
	refs   []string

	// OnGroup, when set, receives each group's counts during Filter and
	// every objective evaluation.
	OnGroup func(GroupSummary)
}

// NewEngine validates cfg and loads the reference set if one is configured.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set, err := cfg.PrimerSet()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.SearchOptions()
	if err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, set: set, search: opts}
	if cfg.References.Path != "" {
		if e.refs, err = reads.LoadReferences(cfg.References.Path); err != nil {
			return nil, fmt.Errorf("references: %w", err)
		}
	}
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Primers returns the primer pair.
func (e *Engine) Primers() PrimerSet {
	return e.set
}

// Classifier builds a classifier for the given scores.
func (e *Engine) Classifier(scores ScoringConfig) (*classify.Classifier, error) {
	s, err := primer.NewSearcher(scores, e.search)
	if err != nil {
		return nil, err
	}
	return classify.New(s, e.set, e.cfg.Policy(), e.cfg.ClassifyOptions(e.refs)), nil
}

// Classify classifies a single read.
func (e *Engine) Classify(read Read, scores ScoringConfig) (Outcome, error) {
	c, err := e.Classifier(scores)
	if err != nil {
		return Outcome{}, err
	}
	return c.Classify(read), nil
}

func (e *Engine) aggregator(visit func(Detail) error) *evaluate.Aggregator {
	return &evaluate.Aggregator{Workers: e.cfg.Workers, OnGroup: e.OnGroup, Visit: visit}
}

// Filter classifies every read of every group with scores. visit, if not
// nil, receives each outcome in input order.
func (e *Engine) Filter(ctx context.Context, groups []Group, scores ScoringConfig, visit func(Detail) error) (*Summary, error) {
	c, err := e.Classifier(scores)
	if err != nil {
		return nil, err
	}
	return e.aggregator(visit).Evaluate(ctx, groups, c)
}

// Objective returns the loss function over groups.
func (e *Engine) Objective(groups []Group) *objective.Objective {
	o := objective.New(groups, e.set, e.search, e.cfg.Policy(), e.cfg.ClassifyOptions(e.refs), e.cfg.LossKind())
	o.Aggregator = e.aggregator(nil)
	return o
}

// Optimizer returns an optimizer configured from the settings.
func (e *Engine) Optimizer() (*search.Optimizer, error) {
	space, err := e.cfg.Space()
	if err != nil {
		return nil, err
	}
	surrogate, err := search.NewSurrogate(e.cfg.Optimizer.Surrogate)
	if err != nil {
		return nil, err
	}
	return &search.Optimizer{
		Space:       space,
		Base:        e.cfg.Scores,
		Surrogate:   surrogate,
		Budget:      e.cfg.Optimizer.Budget,
		Warmup:      e.cfg.Optimizer.Warmup,
		MaxFailures: e.cfg.Optimizer.MaxFailures,
		Seed:        e.cfg.Optimizer.Seed,
	}, nil
}

// Search tunes the scores over groups. onTrial, if not nil, is called after
// every trial. On cancellation the partial result is returned with the
// context error.
func (e *Engine) Search(ctx context.Context, groups []Group, onTrial func(Trial)) (*Result, error) {
	opt, err := e.Optimizer()
	if err != nil {
		return nil, err
	}
	opt.OnTrial = onTrial
	return opt.Run(ctx, e.Objective(groups))
}

// Version returns the primerscan version.
func Version() string {
	return "1.0.0"
}

// Info returns information about primerscan.
func Info() string {
	return fmt.Sprintf(`primerscan v%s - primer-anchored read classification

Features:
  - Affine-gap local alignment of primers inside reads
  - Windowed primer search with an exact-match fast path
  - Accept/reject/ambiguous classification in both orientations
  - Optional insert verification against a reference set
  - FASTQ, FASTA and unaligned BAM input
  - Scoring weight search with a tree-structured Parzen estimator
`, Version())
}
