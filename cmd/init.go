package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukebrevoort/sga-finance-platform/internal/pipeline"
)

var (
	initOut     string
	initBalance string
)

// initCmd creates an empty ledger workbook.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty ledger workbook",
	Long: `Create a ledger workbook with the pool-tracked and reallocation sheets,
their headers and the starting balance cell.

When no starting balance is given on the command line or in the
configuration, the cell is left empty for reviewers to fill in.`,
	Example: `  ledger init --out ledger.xlsx --starting-balance 25000`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := runner.InitLedger(cmd.Context(), pipeline.InitJob{
			OutputPath:      initOut,
			StartingBalance: initBalance,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created ledger %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initOut, "out", "o", "", "Path of the new workbook (default: generated in the output directory)")
	initCmd.Flags().StringVar(&initBalance, "starting-balance", "", "Starting pool balance, e.g. 25000 or \"$25,000.00\"")
}
