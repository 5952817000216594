package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aria-lang/primerscan-go/internal/report"
	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

// SummaryFile is written next to the filtered FASTA files.
const SummaryFile = "summary.txt"

var filterCmd = &cobra.Command{
	Use:   "filter [reads...]",
	Short: "Split reads into with/without-primer FASTA files",
	Long: `Classify every read and write the accepted ones to
<output>/<file>_with_primers.fasta and <output>/<file>_wo_primers.fasta.

Arguments are FASTQ, FASTA or BAM files, or directories holding them.
Each file is reported as its own group; files sharing a name get a
_2, _3, ... suffix.`,
	Example: "  primerscan filter -o filtered raw_reads/",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, groups, err := setup(cmd, args)
		if err != nil {
			return err
		}
		return runFilter(cmd.Context(), cmd.OutOrStdout(), engine, groups, engine.Config().Scores)
	},
}

var runCmd = &cobra.Command{
	Use:   "run [reads...]",
	Short: "Filter or search, as selected by the mode setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, groups, err := setup(cmd, args)
		if err != nil {
			return err
		}
		switch mode := engine.Config().Mode; mode {
		case "filter":
			return runFilter(cmd.Context(), cmd.OutOrStdout(), engine, groups, engine.Config().Scores)
		case "search":
			apply, _ := cmd.Flags().GetBool("apply")
			return runSearch(cmd.Context(), cmd.OutOrStdout(), engine, groups, apply)
		default:
			return fmt.Errorf("unknown mode %q", mode)
		}
	},
}

// setup loads the settings and the read groups.
func setup(cmd *cobra.Command, args []string) (*primerscan.Engine, []primerscan.Group, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.Input) == 0 {
		return nil, nil, errors.New("no input: pass read files or directories, or set input")
	}
	engine, err := primerscan.NewEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	groups, err := primerscan.LoadGroups(cfg.Input...)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("%d read file(s), forward %s, reverse %s, library %d±%d (%s)",
		len(groups), engine.Primers().Forward.Bases, engine.Primers().Reverse.Bases,
		cfg.Library.Length, cfg.Library.Tolerance, cfg.Library.Mode)
	return engine, groups, nil
}

func runFilter(ctx context.Context, out io.Writer, engine *primerscan.Engine, groups []primerscan.Group, scores primerscan.ScoringConfig) error {
	dir := engine.Config().Output
	fw, err := report.NewFilterWriter(dir)
	if err != nil {
		return err
	}

	bar := pb.Full.Start(len(groups))
	engine.OnGroup = func(primerscan.GroupSummary) { bar.Increment() }
	defer func() { engine.OnGroup = nil }()

	start := time.Now()
	summary, err := engine.Filter(ctx, groups, scores, fw.Visit)
	bar.Finish()
	if cerr := fw.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if err := report.WriteSummary(out, summary); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, SummaryFile), func(w io.Writer) error {
		return report.WriteSummary(w, summary)
	}); err != nil {
		return err
	}

	log.Printf("%s of %s reads accepted in %s, written to %s",
		humanize.Comma(int64(summary.Total.Accepted)), humanize.Comma(int64(summary.Total.Total)),
		time.Since(start).Round(time.Millisecond), dir)
	return nil
}
