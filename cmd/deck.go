package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukebrevoort/sga-finance-platform/internal/pipeline"
)

var (
	deckLedger  string
	deckSection string
	deckOut     string
)

// deckCmd compiles the decided rows of a section into a slide deck.
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Build the decision deck for one section",
	Long: `Build a PDF deck from the decided rows of one section: a title slide,
one slide per decision and a closing summary. Rows without a decision status
are left out and counted.`,
	Example: `  ledger deck --ledger ledger.xlsx --section 2026-02-01 --out recap.pdf`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.BuildDeck(cmd.Context(), pipeline.DeckJob{
			LedgerPath: deckLedger,
			Section:    deckSection,
			OutputPath: deckOut,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Deck for week of %s: %d slide(s), %d of %d row(s) excluded\n", res.Section, res.Slides, res.Excluded, res.Total)
		fmt.Fprintf(w, "Output: %s\n", res.OutputPath)
		printWarnings(w, res.Warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deckCmd)

	deckCmd.Flags().StringVarP(&deckLedger, "ledger", "l", "", "Ledger workbook")
	deckCmd.Flags().StringVarP(&deckSection, "section", "s", "", "Section key, e.g. 2026-02-01")
	deckCmd.Flags().StringVarP(&deckOut, "out", "o", "", "Deck path (default: generated in the output directory)")
	_ = deckCmd.MarkFlagRequired("ledger")
	_ = deckCmd.MarkFlagRequired("section")
}
