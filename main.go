// =============================================================================
// Budget Ledger - Main Entry Point
// =============================================================================
//
// USAGE:
//   ledger init      - Create an empty ledger workbook
//   ledger merge     - Append a weekly export to the ledger
//   ledger sections  - List the sections of a ledger
//   ledger rows      - Show the rows of one section
//   ledger deck      - Build the decision deck for one section
//   ledger version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : ledger engine and its collaborators
//   - pkg/           : shared file and logging utilities
//
// =============================================================================

package main

import (
	"github.com/lukebrevoort/sga-finance-platform/cmd"
)

func main() {
	cmd.Execute()
}
