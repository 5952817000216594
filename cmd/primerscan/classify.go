package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [reads...]",
	Short: "Print the outcome of every read",
	Long: `Classify every read and print one tab-separated line per read:

  group  read  label  reason  orientation  length

Nothing is written to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, groups, err := setup(cmd, args)
		if err != nil {
			return err
		}

		w := bufio.NewWriter(cmd.OutOrStdout())
		_, err = engine.Filter(cmd.Context(), groups, engine.Config().Scores, func(d primerscan.Detail) error {
			o := d.Outcome
			reason := string(o.Reason)
			if reason == "" {
				reason = "-"
			}
			_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", d.Group, o.ReadID, o.Label, reason, o.Orientation, o.Length)
			return err
		})
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
		return err
	},
}

var alignCmd = &cobra.Command{
	Use:     "align <read> <primer>",
	Short:   "Align a primer inside a read",
	Example: "  primerscan align --anchor end ACGTACGTTTTTGGCCAATT AATT",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		anchor, _ := cmd.Flags().GetString("anchor")
		a, err := primerscan.AlignPrimer(args[0], args[1], cfg.Scores, anchor)
		if err != nil {
			return err
		}
		if a.Empty() {
			fmt.Fprintln(cmd.OutOrStdout(), "no alignment")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.Format())
		return nil
	},
}

func init() {
	alignCmd.Flags().String("anchor", "start", "where the primer is expected: start or end")
}
