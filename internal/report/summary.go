package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/aria-lang/primerscan-go/internal/classify"
	"github.com/aria-lang/primerscan-go/internal/evaluate"
	"github.com/aria-lang/primerscan-go/internal/search"
)

// HistogramBins caps the number of length bins in a summary.
const HistogramBins = 10

// WriteSummary renders per-group and total counts as text.
func WriteSummary(w io.Writer, s *evaluate.Summary) error {
	var b strings.Builder
	for _, g := range s.Groups {
		fmt.Fprintf(&b, "== %s\n", g.Name)
		writeCounts(&b, g.Counts)
	}
	if len(s.Groups) != 1 {
		b.WriteString("== total\n")
		writeCounts(&b, s.Total)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCounts(b *strings.Builder, c evaluate.Counts) {
	fmt.Fprintf(b, "  reads:     %s\n", humanize.Comma(int64(c.Total)))
	fmt.Fprintf(b, "  accepted:  %s (%.2f%%)\n", humanize.Comma(int64(c.Accepted)), c.Percent(c.Accepted))
	fmt.Fprintf(b, "  rejected:  %s (%.2f%%)\n", humanize.Comma(int64(c.Rejected)), c.Percent(c.Rejected))
	fmt.Fprintf(b, "  ambiguous: %s (%.2f%%)\n", humanize.Comma(int64(c.Ambiguous)), c.Percent(c.Ambiguous))
	for _, r := range classify.Reasons() {
		if n := c.ByReason[r]; n > 0 {
			fmt.Fprintf(b, "    %-17s %s\n", r+":", humanize.Comma(int64(n)))
		}
	}
	if c.Quality.TotalReads > 0 {
		fmt.Fprintf(b, "  quality:   %s\n", &c.Quality)
	}
	if c.Lengths == nil || c.Lengths.N == 0 {
		return
	}
	fmt.Fprintf(b, "  length:    %s\n", c.Lengths)
	fmt.Fprintf(b, "  mode:      %d, N50: %d\n", c.Lengths.Mode(), c.Lengths.N50())
	bins := min(HistogramBins, c.Lengths.Max()-c.Lengths.Min()+1)
	h, err := c.Lengths.Histogram(bins)
	if err != nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(h.String(), "\n"), "\n") {
		fmt.Fprintf(b, "  %s\n", line)
	}
}

// WriteBest renders the best trial of a search run.
func WriteBest(w io.Writer, res *search.Result) error {
	best, ok := res.BestTrial()
	if !ok {
		_, err := fmt.Fprintf(w, "run %s: no successful trial out of %d\n", res.RunID, len(res.Trials))
		return err
	}
	_, err := fmt.Fprintf(w, "run %s: best loss %.4f at eval %d of %d (%s failed)\n  %s\n",
		res.RunID, best.Loss, best.Iteration, len(res.Trials),
		humanize.Comma(int64(res.Failures())), best.Config)
	return err
}
