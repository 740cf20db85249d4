package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	rowsLedger  string
	rowsSection string
	rowsAll     bool
)

// rowsCmd prints the rows of one section.
var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Show the rows of one section",
	Long: `Show the decided rows of one section, as they would appear on the
slides. With --all, every row is shown, including rows still waiting for a
decision.`,
	Example: `  ledger rows --ledger ledger.xlsx --section 2026-02-01
  ledger rows --ledger ledger.xlsx --section "Week of 2/1/2026 #2" --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

		if rowsAll {
			rows, err := runner.AllRows(cmd.Context(), rowsLedger, rowsSection)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ROW\tSHEET\tORGANIZATION\tREQUESTED\tAFTER ADJ.\tSTATUS\tFINAL\tNOTE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.SheetRow, r.Category, r.DisplayName, r.RequestedAmount.StringFixed(2),
					nullable(r.AfterAdjustment), orDash(r.DecisionStatus), r.FinalAmount.StringFixed(2), r.Note)
			}
			return tw.Flush()
		}

		res, err := runner.DecidedRows(cmd.Context(), rowsLedger, rowsSection)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ORGANIZATION\tCATEGORY\tROUTING\tREQUESTED\tFINAL\tDECISION\tDESCRIPTION")
		for _, r := range res.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.DisplayName, r.Category, r.RoutingClass, r.RequestedAmount.StringFixed(2),
				r.FinalAmount.StringFixed(2), r.DecisionStatus, r.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(w, "\n%d of %d row(s) decided\n", len(res.Rows), res.Total)
		printWarnings(w, res.Warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rowsCmd)

	rowsCmd.Flags().StringVarP(&rowsLedger, "ledger", "l", "", "Ledger workbook")
	rowsCmd.Flags().StringVarP(&rowsSection, "section", "s", "", "Section key, e.g. 2026-02-01 or \"2026-02-01 #2\"")
	rowsCmd.Flags().BoolVar(&rowsAll, "all", false, "Include rows without a decision")
	_ = rowsCmd.MarkFlagRequired("ledger")
	_ = rowsCmd.MarkFlagRequired("section")
}

func nullable(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
