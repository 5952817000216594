// Package config holds the run settings, unmarshalled by Viper from a YAML
// file and command line flags. Settings are read once at startup and never
// change during a run.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/aria-lang/primerscan-go/internal/alignment"
	"github.com/aria-lang/primerscan-go/internal/classify"
	"github.com/aria-lang/primerscan-go/internal/objective"
	"github.com/aria-lang/primerscan-go/internal/primer"
	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/search"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// Defaults taken from the library construct the tool was built for.
const (
	DefaultForwardPrimer = "TCGTCGGCAGCGTCAGATGTGTATAAGAGACAG"
	DefaultReversePrimer = "CTGTCTCTTATACACATCTCCGAGCCCACGAGAC"
	DefaultLibraryLength = 140
	DefaultTolerance     = 5
)

// Modes.
const (
	ModeFilter = "filter"
	ModeSearch = "search"
)

// PrimerConfig is the primer pair.
type PrimerConfig struct {
	Forward string `mapstructure:"forward"`
	Reverse string `mapstructure:"reverse"`
	// BothStrands also tries the reverse complement of every read.
	BothStrands bool `mapstructure:"both-strands"`
}

// LibraryConfig describes the expected construct.
type LibraryConfig struct {
	Length    int `mapstructure:"length"`
	Tolerance int `mapstructure:"tolerance"`
	// Mode is "insert" (between the primers) or "span" (primers included).
	Mode           string `mapstructure:"mode"`
	SingleFallback bool   `mapstructure:"single-fallback"`
}

// SearchConfig tunes the primer search.
type SearchConfig struct {
	FloorFraction   float64 `mapstructure:"floor-fraction"`
	AbsoluteFloor   float64 `mapstructure:"absolute-floor"`
	Padding         int     `mapstructure:"padding"`
	DisableFastPath bool    `mapstructure:"disable-fast-path"`
	// MinScores are per-primer thresholds keyed by primer name.
	MinScores map[string]float64 `mapstructure:"min-scores"`
}

// QualityConfig is the optional mean-quality gate.
type QualityConfig struct {
	MinMean float64 `mapstructure:"min-mean"`
	Require bool    `mapstructure:"require"`
}

// ReferenceConfig enables insert verification when Path is set.
type ReferenceConfig struct {
	Path     string  `mapstructure:"path"`
	IndexLen int     `mapstructure:"index-length"`
	Fraction float64 `mapstructure:"fraction"`
}

// ParamConfig is one search space dimension.
type ParamConfig struct {
	Name    string    `mapstructure:"name"`
	Kind    string    `mapstructure:"kind"`
	Low     float64   `mapstructure:"low"`
	High    float64   `mapstructure:"high"`
	Step    float64   `mapstructure:"step"`
	Choices []float64 `mapstructure:"choices"`
}

// OptimizerConfig drives search mode.
type OptimizerConfig struct {
	Budget      int           `mapstructure:"budget"`
	Warmup      int           `mapstructure:"warmup"`
	MaxFailures int           `mapstructure:"max-failures"`
	Seed        int64         `mapstructure:"seed"`
	Surrogate   string        `mapstructure:"surrogate"`
	Loss        string        `mapstructure:"loss"`
	Space       []ParamConfig `mapstructure:"space"`
}

// Config is the root settings struct, a mix of the settings file and the
// command line.
type Config struct {
	Mode    string   `mapstructure:"mode"`
	Input   []string `mapstructure:"input"`
	Output  string   `mapstructure:"output"`
	Workers int      `mapstructure:"workers"`

	Primers    PrimerConfig            `mapstructure:"primers"`
	Library    LibraryConfig           `mapstructure:"library"`
	Scores     alignment.ScoringConfig `mapstructure:"scores"`
	Search     SearchConfig            `mapstructure:"search"`
	Quality    QualityConfig           `mapstructure:"quality"`
	References ReferenceConfig         `mapstructure:"references"`
	Optimizer  OptimizerConfig         `mapstructure:"optimizer"`
}

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// SetDefaults registers the default settings on v.
func SetDefaults(v *viper.Viper) {
	scores := alignment.DefaultScoring()

	v.SetDefault("mode", ModeFilter)
	v.SetDefault("output", "results")
	v.SetDefault("workers", 0)

	v.SetDefault("primers.forward", DefaultForwardPrimer)
	v.SetDefault("primers.reverse", DefaultReversePrimer)
	v.SetDefault("primers.both-strands", true)

	v.SetDefault("library.length", DefaultLibraryLength)
	v.SetDefault("library.tolerance", DefaultTolerance)
	v.SetDefault("library.mode", primer.Insert.String())
	v.SetDefault("library.single-fallback", false)

	v.SetDefault("scores.match_score", scores.Match)
	v.SetDefault("scores.mismatch_score", scores.Mismatch)
	v.SetDefault("scores.open_gap_score", scores.GapOpen)
	v.SetDefault("scores.extend_gap_score", scores.GapExtend)
	v.SetDefault("scores.min_score_fraction", 0.0)

	v.SetDefault("search.floor-fraction", primer.DefaultFloorFraction)
	v.SetDefault("search.padding", primer.DefaultPadding)

	v.SetDefault("references.index-length", classify.DefaultIndexLen)
	v.SetDefault("references.fraction", primer.DefaultFloorFraction)

	v.SetDefault("optimizer.budget", search.DefaultBudget)
	v.SetDefault("optimizer.warmup", search.DefaultWarmup)
	v.SetDefault("optimizer.seed", 1)
	v.SetDefault("optimizer.surrogate", "tpe")
	v.SetDefault("optimizer.loss", objective.Acceptance.String())

	space := search.DefaultSpace()
	params := make([]map[string]interface{}, len(space.Params))
	for i, p := range space.Params {
		params[i] = map[string]interface{}{"name": p.Name, "kind": p.Kind.String(), "low": p.Low, "high": p.High}
	}
	v.SetDefault("optimizer.space", params)
}

// New returns a Viper instance with the defaults set, reading path when it
// is not empty.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("PRIMERSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// Default returns the validated default configuration.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	c, err := Load(v)
	if err != nil {
		panic(err)
	}
	return c
}

// SaveScores writes scores as a settings file that New can read back. The
// format follows the extension of path.
func SaveScores(path string, scores alignment.ScoringConfig) error {
	v := viper.New()
	v.Set("scores.match_score", scores.Match)
	v.Set("scores.mismatch_score", scores.Mismatch)
	v.Set("scores.open_gap_score", scores.GapOpen)
	v.Set("scores.extend_gap_score", scores.GapExtend)
	if scores.Threshold != 0 {
		v.Set("scores.min_score_fraction", scores.Threshold)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate reports every startup-time problem at once.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Mode != ModeFilter && c.Mode != ModeSearch {
		add("unknown mode %q (want %s or %s)", c.Mode, ModeFilter, ModeSearch)
	}
	if c.Workers < 0 {
		add("workers must not be negative")
	}
	if _, err := c.PrimerSet(); err != nil {
		add("primers: %v", err)
	}
	if c.Library.Length < 0 {
		add("library length must not be negative")
	}
	if c.Library.Tolerance < 0 {
		add("library tolerance must not be negative")
	}
	if _, err := primer.ParseLengthMode(c.Library.Mode); err != nil {
		add("library: %v", err)
	}
	if err := c.Scores.Validate(); err != nil {
		add("scores: %v", err)
	}
	if _, err := c.SearchOptions(); err != nil {
		add("search: %v", err)
	}
	if c.Quality.MinMean < 0 {
		add("quality min-mean must not be negative")
	}

	o := c.Optimizer
	if o.Budget <= 0 {
		add("optimizer budget must be positive")
	}
	if o.Warmup < 0 || o.Warmup > o.Budget {
		add("optimizer warmup %d must be within [0, budget]", o.Warmup)
	}
	if o.MaxFailures < 0 {
		add("optimizer max-failures must not be negative")
	}
	if _, err := search.NewSurrogate(o.Surrogate); err != nil {
		add("optimizer: %v", err)
	}
	if kind, err := objective.ParseKind(o.Loss); err != nil {
		add("optimizer: %v", err)
	} else if kind == objective.Reference && c.References.Path == "" {
		add("optimizer: reference loss needs references.path")
	}
	if space, err := c.Space(); err != nil {
		add("optimizer space: %v", err)
	} else if err := space.Validate(); err != nil {
		add("optimizer space: %v", err)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// PrimerSet builds the validated primer pair.
func (c Config) PrimerSet() (sequence.PrimerSet, error) {
	if c.Primers.Forward == "" || c.Primers.Reverse == "" {
		return sequence.PrimerSet{}, errors.New("forward and reverse primers are required")
	}
	return sequence.NewPrimerSet(c.Primers.Forward, c.Primers.Reverse)
}

// SearchOptions builds the primer search options.
func (c Config) SearchOptions() (primer.Options, error) {
	mode, err := primer.ParseLengthMode(c.Library.Mode)
	if err != nil {
		return primer.Options{}, err
	}
	opts := primer.DefaultOptions()
	if c.Search.FloorFraction > 0 {
		opts.FloorFraction = c.Search.FloorFraction
	}
	if c.Search.AbsoluteFloor != 0 {
		floor := c.Search.AbsoluteFloor
		opts.AbsoluteFloor = &floor
	}
	opts.ExpectedLength = c.Library.Length
	opts.Tolerance = c.Library.Tolerance
	opts.Mode = mode
	opts.Padding = c.Search.Padding
	opts.DisableFastPath = c.Search.DisableFastPath
	return opts, opts.Validate()
}

// Policy builds the classification policy.
func (c Config) Policy() classify.Policy {
	mode, _ := primer.ParseLengthMode(c.Library.Mode)
	return classify.Policy{
		ExpectedLength: c.Library.Length,
		Tolerance:      c.Library.Tolerance,
		Mode:           mode,
		MinScores:      c.Search.MinScores,
		SingleFallback: c.Library.SingleFallback,
	}
}

// ClassifyOptions builds the classifier options. refs may be nil.
func (c Config) ClassifyOptions(refs []string) classify.Options {
	opts := classify.Options{
		BothStrands: c.Primers.BothStrands,
		Quality:     quality.Filter{MinMean: c.Quality.MinMean, RequireScores: c.Quality.Require},
	}
	if len(refs) > 0 {
		opts.References = classify.NewReferences(refs, c.References.IndexLen, c.References.Fraction)
	}
	return opts
}

// Space converts the configured search space.
func (c Config) Space() (search.Space, error) {
	if len(c.Optimizer.Space) == 0 {
		return search.DefaultSpace(), nil
	}
	space := search.Space{Params: make([]search.Param, 0, len(c.Optimizer.Space))}
	for _, p := range c.Optimizer.Space {
		kind, err := search.ParseParamKind(p.Kind)
		if err != nil {
			return space, err
		}
		space.Params = append(space.Params, search.Param{
			Name: p.Name, Kind: kind, Low: p.Low, High: p.High, Step: p.Step, Choices: p.Choices,
		})
	}
	return space, nil
}

// LossKind returns the configured loss formulation.
func (c Config) LossKind() objective.Kind {
	kind, _ := objective.ParseKind(c.Optimizer.Loss)
	return kind
}
