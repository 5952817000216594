package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aria-lang/primerscan-go/internal/config"
	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "primerscan",
	Short: "Classify reads by their flanking primers and tune the alignment scores",
	Long: `primerscan finds a forward primer near the start and a reverse primer near
the end of every read, accepts reads whose construct has the expected length
and writes the accepted reads with and without their primers.

The search command tunes the match, mismatch and gap weights so that as many
reads as possible are accepted.`,
	Version:      primerscan.Version(),
	SilenceUsage: true,
}

// flagKeys maps command line flags onto settings keys.
var flagKeys = map[string]string{
	"mode":       "mode",
	"output":     "output",
	"workers":    "workers",
	"forward":    "primers.forward",
	"reverse":    "primers.reverse",
	"length":     "library.length",
	"tolerance":  "library.tolerance",
	"length-of":  "library.mode",
	"match":      "scores.match_score",
	"mismatch":   "scores.mismatch_score",
	"gap-open":   "scores.open_gap_score",
	"gap-extend": "scores.extend_gap_score",
	"references": "references.path",
	"min-qual":   "quality.min-mean",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "settings file (YAML, TOML or JSON)")
	pf.String("mode", "", "run mode: filter or search")
	pf.StringP("output", "o", "", "output directory")
	pf.IntP("workers", "w", 0, "classification workers (0 = number of CPUs)")
	pf.String("forward", "", "forward primer")
	pf.String("reverse", "", "reverse primer")
	pf.Int("length", 0, "expected library length")
	pf.Int("tolerance", 0, "allowed deviation from the library length")
	pf.String("length-of", "", "what the library length measures: insert or span")
	pf.Float64("match", 0, "match score")
	pf.Float64("mismatch", 0, "mismatch score")
	pf.Float64("gap-open", 0, "gap open score")
	pf.Float64("gap-extend", 0, "gap extend score")
	pf.String("references", "", "reference inserts used to verify accepted reads")
	pf.Float64("min-qual", 0, "minimum mean read quality")

	rootCmd.AddCommand(runCmd, filterCmd, searchCmd, classifyCmd, alignCmd, versionCmd)
}

// loadConfig merges defaults, the settings file, PRIMERSCAN_* variables and
// the flags that were set on cmd. Positional args replace the inputs.
func loadConfig(cmd *cobra.Command, args []string) (primerscan.Config, error) {
	v, err := config.New(cfgFile)
	if err != nil {
		return primerscan.Config{}, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return primerscan.Config{}, err
	}
	if len(args) > 0 {
		v.Set("input", args)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return primerscan.Config{}, err
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	for name, key := range localFlagKeys[cmd.Name()] {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("%s --%s: %w", cmd.Name(), name, err)
		}
	}
	return nil
}

var searchFlagKeys = map[string]string{
	"budget":    "optimizer.budget",
	"warmup":    "optimizer.warmup",
	"seed":      "optimizer.seed",
	"surrogate": "optimizer.surrogate",
	"loss":      "optimizer.loss",
}

// localFlagKeys maps per-command flags onto settings keys.
var localFlagKeys = map[string]map[string]string{
	"run":    searchFlagKeys,
	"search": searchFlagKeys,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), primerscan.Info())
	},
}
