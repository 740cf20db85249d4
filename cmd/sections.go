package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sectionsLedger string

// sectionsCmd lists the sections of a ledger, most recent first.
var sectionsCmd = &cobra.Command{
	Use:     "sections",
	Short:   "List the weekly sections of a ledger",
	Example: `  ledger sections --ledger ledger.xlsx`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.Summaries(cmd.Context(), sectionsLedger)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "SECTION\tREQUESTS\tAPPROVED\tDENIED\tNO STATUS\tAFR\tREALLOC\tAFR FINAL\tREMAINING\t")
		for _, s := range res.Sections {
			remaining := "-"
			if s.RemainingBalance.Valid {
				remaining = s.RemainingBalance.Decimal.StringFixed(2)
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
				s.Key, s.RequestCount, s.ApprovedCount, s.DeniedCount, s.NoStatusCount,
				s.PoolCount, s.SimpleCount, s.PoolFinalTotal.StringFixed(2), remaining)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		printWarnings(cmd.OutOrStdout(), res.Warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)

	sectionsCmd.Flags().StringVarP(&sectionsLedger, "ledger", "l", "", "Ledger workbook")
	_ = sectionsCmd.MarkFlagRequired("ledger")
}
