// =============================================================================
// Budget Ledger - Merge Command
// =============================================================================
//
// This file defines the 'merge' command, which appends a weekly export of
// funding requests to the ledger.
//
// COMMAND USAGE:
//   ledger merge --export requests.csv --date 2026-02-01 [flags]
//
// FLAGS:
//   --export  : Upstream export (.csv, .tsv, .txt or .xlsx)
//   --date    : Meeting date of the decision session
//   --ledger  : Existing ledger to append to (default: start a new ledger)
//   --out     : Output path (default: generated in the output directory)
//   --in-place: Write the result back over --ledger
//   --strict  : Fail when any export row is rejected
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukebrevoort/sga-finance-platform/internal/pipeline"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	mergeExport  string
	mergeDate    string
	mergeLedger  string
	mergeOut     string
	mergeInPlace bool
	mergeStrict  bool
)

// dateLayouts are the accepted --date formats.
var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006"}

// =============================================================================
// MERGE COMMAND DEFINITION
// =============================================================================

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Append a weekly export to the ledger",
	Long: `The merge command reads an upstream export, drops denied and late-arrival
requests, numbers repeated organization names, and appends one "Week of
<date>" section per category to the ledger.

Pre-approved requests are written with their decision filled in; every other
row is left blank for reviewers. Warnings are printed but do not fail the
command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(cmd)
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeExport, "export", "e", "", "Upstream export file")
	mergeCmd.Flags().StringVarP(&mergeDate, "date", "d", "", "Meeting date (YYYY-MM-DD or M/D/YYYY)")
	mergeCmd.Flags().StringVarP(&mergeLedger, "ledger", "l", "", "Existing ledger workbook")
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "Output workbook path")
	mergeCmd.Flags().BoolVar(&mergeInPlace, "in-place", false, "Overwrite --ledger with the result (the previous copy is archived)")
	mergeCmd.Flags().BoolVar(&mergeStrict, "strict", false, "Fail when any export row is rejected")

	_ = mergeCmd.MarkFlagRequired("export")
	_ = mergeCmd.MarkFlagRequired("date")
	mergeCmd.MarkFlagsMutuallyExclusive("out", "in-place")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runMerge(cmd *cobra.Command) error {
	date, err := parseDate(mergeDate)
	if err != nil {
		return err
	}

	out := mergeOut
	if mergeInPlace {
		if mergeLedger == "" {
			return errors.New("--in-place needs --ledger")
		}
		out = mergeLedger
	}

	started := time.Now()
	result, err := runner.MergeExport(cmd.Context(), pipeline.MergeJob{
		ExportPath:  mergeExport,
		LedgerPath:  mergeLedger,
		OutputPath:  out,
		MeetingDate: date,
		Strict:      mergeStrict,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== Merge Complete ===")
	fmt.Fprintf(w, "Export:          %s\n", filepath.Base(mergeExport))
	fmt.Fprintf(w, "Records merged:  %d\n", result.Records)
	fmt.Fprintf(w, "Excluded:        %d denied, %d late\n", result.Exclusions.Denied, result.Exclusions.Late)
	fmt.Fprintf(w, "Rejected rows:   %d\n", len(result.RejectedRows))
	for _, s := range result.Sections {
		fmt.Fprintf(w, "  + Week of %s  %-12s rows %d-%d\n", s.Key, s.Sheet, s.FirstRow, s.LastRow)
	}
	if result.ArchivedPath != "" {
		fmt.Fprintf(w, "Archived:        %s\n", result.ArchivedPath)
	}
	fmt.Fprintf(w, "Output:          %s\n", result.OutputPath)
	fmt.Fprintf(w, "Time elapsed:    %s\n", time.Since(started).Round(time.Millisecond))

	printWarnings(w, result.Warnings)
	return nil
}

// parseDate reads a --date value.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or M/D/YYYY", s)
}
