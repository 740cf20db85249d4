// =============================================================================
// Budget Ledger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ledger)
//   ├── initCmd     (ledger init)
//   ├── mergeCmd    (ledger merge)
//   ├── sectionsCmd (ledger sections)
//   ├── rowsCmd     (ledger rows)
//   ├── deckCmd     (ledger deck)
//   └── versionCmd  (ledger version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging and the pipeline runner
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lukebrevoort/sga-finance-platform/internal/config"
	"github.com/lukebrevoort/sga-finance-platform/internal/pipeline"
	"github.com/lukebrevoort/sga-finance-platform/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file. Empty means defaults.
var cfgFile string

// verbose switches logging to debug level.
var verbose bool

// runner is built by the root command before a subcommand runs.
var runner *pipeline.Runner

// logger and closeLog are released after the subcommand finishes.
var (
	logger   *zap.Logger
	closeLog func() error
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Budget Ledger - weekly funding request ledger and decision decks",
	Long: `Budget Ledger turns weekly funding-request exports into a running
spreadsheet ledger that reviewers fill in during the decision session, and
turns the decided rows back into a slide deck.

The ledger workbook has one worksheet per request category. Pool-tracked
requests (AFR) draw down a shared starting balance; reallocations are
tracked individually. Each merge appends a "Week of <date>" section.

Example Usage:
  ledger init --out ledger.xlsx --starting-balance 25000
  ledger merge --export requests.csv --date 2026-02-01 --ledger ledger.xlsx
  ledger sections --ledger ledger.xlsx
  ledger deck --ledger ledger.xlsx --section 2026-02-01`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog == nil {
			return nil
		}
		err := closeLog()
		closeLog = nil
		return err
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to a YAML configuration file (defaults apply when omitted)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// setup loads the configuration and builds the logger and runner.
func setup() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, closeLog, err = utils.NewLogger(level, cfg.LogFile)
	if err != nil {
		return err
	}

	runner = pipeline.New(cfg, logger)
	logger.Debug("configuration loaded", zap.String("config", cfgFile), zap.String("output_dir", cfg.Output.Dir))
	return nil
}

// printWarnings writes warnings one per line.
func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\nWarnings (%d):\n", len(warnings))
	for _, msg := range warnings {
		fmt.Fprintf(w, "  ! %s\n", msg)
	}
}
