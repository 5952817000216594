package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/aria-lang/primerscan-go/internal/search"
)

// WriteTrialsCSV writes one row per trial: iteration, phase, the searched
// parameters in name order, the resolved scores, the loss and the counts.
// A failed trial has an empty loss and its error in the last column.
func WriteTrialsCSV(w io.Writer, res *search.Result) error {
	params := paramNames(res.Trials)

	header := []string{"eval", "phase"}
	header = append(header, params...)
	header = append(header,
		"match_score", "mismatch_score", "open_gap_score", "extend_gap_score",
		"loss", "total", "accepted", "rejected", "ambiguous", "best", "error")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, t := range res.Trials {
		row := []string{strconv.Itoa(t.Iteration), t.Phase.String()}
		for _, p := range params {
			if v, ok := t.Params[p]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		row = append(row,
			formatFloat(t.Config.Match), formatFloat(t.Config.Mismatch),
			formatFloat(t.Config.GapOpen), formatFloat(t.Config.GapExtend))

		if t.Failed() {
			row = append(row, "")
		} else {
			row = append(row, formatFloat(t.Loss))
		}
		if t.Summary != nil {
			c := t.Summary.Total
			row = append(row, strconv.Itoa(c.Total), strconv.Itoa(c.Accepted),
				strconv.Itoa(c.Rejected), strconv.Itoa(c.Ambiguous))
		} else {
			row = append(row, "", "", "", "")
		}
		row = append(row, strconv.FormatBool(i == res.Best), t.Err)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRunJSON writes the whole result as indented JSON.
func WriteRunJSON(w io.Writer, res *search.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func paramNames(trials []search.Trial) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range trials {
		for name := range t.Params {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
