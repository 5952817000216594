package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/aria-lang/primerscan-go/internal/config"
	"github.com/aria-lang/primerscan-go/internal/report"
	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

// Files written by a search.
const (
	TrialsFile = "trials.csv"
	RunFile    = "run.json"
	BestFile   = "best.yaml"
)

var searchCmd = &cobra.Command{
	Use:   "search [reads...]",
	Short: "Tune the alignment scores over a read set",
	Long: `Run the score optimizer over the reads. Every trial classifies all reads with
one candidate set of weights; the loss is the percentage of reads that were
not accepted.

The trials are written to <output>/trials.csv and <output>/run.json, and the
best weights to <output>/best.yaml, which can be passed back with --config.
Interrupting the search keeps the trials finished so far.`,
	Example: "  primerscan search --budget 100 -o tuning raw_reads/",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, groups, err := setup(cmd, args)
		if err != nil {
			return err
		}
		apply, _ := cmd.Flags().GetBool("apply")
		return runSearch(cmd.Context(), cmd.OutOrStdout(), engine, groups, apply)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{searchCmd, runCmd} {
		f := cmd.Flags()
		f.Int("budget", 0, "number of trials")
		f.Int("warmup", 0, "trials drawn from the priors before the model is used")
		f.Int64("seed", 0, "random seed")
		f.String("surrogate", "", "proposal model: tpe or random")
		f.String("loss", "", "objective: acceptance or reference")
		f.Bool("apply", false, "filter the reads with the best weights afterwards")
	}
}

func runSearch(ctx context.Context, out io.Writer, engine *primerscan.Engine, groups []primerscan.Group, apply bool) error {
	cfg := engine.Config()
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return err
	}

	progress := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := progress.AddBar(int64(cfg.Optimizer.Budget),
		mpb.PrependDecorators(
			decor.Name("trials: ", decor.WC{W: len("trials: "), C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 10),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)

	last := time.Now()
	res, err := engine.Search(ctx, groups, func(primerscan.Trial) {
		now := time.Now()
		bar.EwmaIncrBy(1, now.Sub(last))
		last = now
	})
	if !bar.Completed() {
		bar.Abort(false)
	}
	progress.Wait()
	if res == nil {
		return err
	}

	if werr := writeSearch(cfg.Output, res); werr != nil {
		return werr
	}
	if werr := report.WriteBest(out, res); werr != nil {
		return werr
	}
	if err != nil {
		if ctx.Err() != nil {
			log.Printf("search interrupted after %d trial(s); results so far are in %s", len(res.Trials), cfg.Output)
		}
		return err
	}

	best, ok := res.BestTrial()
	if !apply || !ok {
		return nil
	}
	log.Printf("filtering with the weights of trial %d", best.Iteration)
	return runFilter(ctx, out, engine, groups, best.Config)
}

func writeSearch(dir string, res *primerscan.Result) error {
	if err := writeFile(filepath.Join(dir, TrialsFile), func(w io.Writer) error {
		return report.WriteTrialsCSV(w, res)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, RunFile), func(w io.Writer) error {
		return report.WriteRunJSON(w, res)
	}); err != nil {
		return err
	}
	if best, ok := res.BestTrial(); ok {
		return config.SaveScores(filepath.Join(dir, BestFile), best.Config)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
