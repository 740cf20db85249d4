// =============================================================================
// Budget Ledger - Pipeline Runner
// =============================================================================
//
// This module orchestrates the ledger operations for the commands. Each job
// runs synchronously from input file to output file.
//
// MERGE PIPELINE:
//   1. Read the upstream export (CSV or XLSX)
//   2. Normalize rows into request records
//   3. Drop denied and late-arrival requests
//   4. Allocate display names
//   5. Run soft validation
//   6. Open the existing ledger, or start a new one
//   7. Merge the batch as new sections
//   8. Archive the previous ledger if it is overwritten, then write the output
//
// DECK PIPELINE:
//   1. Open the ledger
//   2. Collect the decided rows of one section
//   3. Compile the slides and write the deck
//
// Warnings from every stage are collected in stage order and returned with
// the outcome; the context is checked between stages.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lukebrevoort/sga-finance-platform/internal/config"
	"github.com/lukebrevoort/sga-finance-platform/internal/deck"
	"github.com/lukebrevoort/sga-finance-platform/internal/intake"
	"github.com/lukebrevoort/sga-finance-platform/internal/ledger"
	"github.com/lukebrevoort/sga-finance-platform/internal/naming"
	"github.com/lukebrevoort/sga-finance-platform/internal/types"
	"github.com/lukebrevoort/sga-finance-platform/internal/validation"
	"github.com/lukebrevoort/sga-finance-platform/pkg/utils"
)

// ErrRejectedRows is returned by a strict merge when the export has rows that
// could not be normalized.
var ErrRejectedRows = errors.New("export has rejected rows")

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes ledger jobs.
type Runner struct {
	cfg    *config.MainConfig
	logger *zap.Logger
	files  *utils.FileManager

	// Compiler renders decks; New sets a PDFCompiler.
	Compiler deck.Compiler

	// Now stamps generated file names; nil means time.Now.
	Now func() time.Time
}

// New creates a Runner. A nil logger discards logs.
func New(cfg *config.MainConfig, logger *zap.Logger) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:      cfg,
		logger:   logger,
		files:    utils.NewFileManager(cfg.Output.Dir, cfg.Output.ArchiveDir),
		Compiler: deck.NewPDFCompiler(""),
	}
	r.files.Now = r.now
	return r
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Layout returns the ledger layout from the configuration.
func (r *Runner) Layout() ledger.Layout {
	s := r.cfg.Ledger
	return ledger.Layout{
		PoolSheet:   s.PoolSheet,
		SimpleSheet: s.SimpleSheet,
		PoolTitle:   s.PoolTitle,
		SimpleTitle: s.SimpleTitle,
		MaxRows:     s.MaxRows,
	}
}

// =============================================================================
// INIT
// =============================================================================

// InitJob describes a new empty ledger.
type InitJob struct {
	// OutputPath is the file to create; empty generates a name.
	OutputPath string

	// StartingBalance overrides the configured starting balance. Empty uses
	// the configuration; both empty leave the cell for reviewers.
	StartingBalance string
}

// InitLedger writes a new ledger with both sheets and returns its path.
func (r *Runner) InitLedger(ctx context.Context, job InitJob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw := job.StartingBalance
	if raw == "" {
		raw = r.cfg.Ledger.StartingBalance
	}
	balance, err := types.ParseAmount(raw)
	if err != nil {
		return "", fmt.Errorf("invalid starting balance: %w", err)
	}

	doc, err := ledger.New(r.Layout(), balance)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	path := r.files.OutputPath(job.OutputPath, r.cfg.Output.NameFormat, ".xlsx", map[string]string{"section": "new"})
	if err := r.save(doc, path); err != nil {
		return "", err
	}

	r.logger.Info("ledger created", zap.String("path", path), zap.Bool("starting_balance", balance.Valid))
	return path, nil
}

// =============================================================================
// MERGE
// =============================================================================

// MergeJob describes one export merge.
type MergeJob struct {
	// ExportPath is the upstream CSV or XLSX export.
	ExportPath string

	// LedgerPath is the existing ledger; empty starts a new one.
	LedgerPath string

	// OutputPath is where the merged ledger is written; empty generates a
	// name in the output directory.
	OutputPath string

	MeetingDate time.Time

	// Strict fails the merge when any export row is rejected.
	Strict bool
}

// MergeOutcome reports a completed merge.
type MergeOutcome struct {
	OutputPath string

	// ArchivedPath is the copy of the ledger taken before it was
	// overwritten, if any.
	ArchivedPath string

	Sections   []ledger.AppendedSection
	Records    int
	Exclusions intake.Exclusions
	Issues     []*validation.Issue

	// RejectedRows are the export rows left out by the normalizer.
	RejectedRows []error

	Warnings []string
}

// MergeExport runs the merge pipeline.
func (r *Runner) MergeExport(ctx context.Context, job MergeJob) (*MergeOutcome, error) {
	if job.MeetingDate.IsZero() {
		return nil, errors.New("meeting date is required")
	}
	log := r.logger.With(zap.String("export", job.ExportPath), zap.String("date", job.MeetingDate.Format("2006-01-02")))
	out := &MergeOutcome{}

	// =========================================================================
	// STEP 1: READ EXPORT
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := intake.ReadExport(job.ExportPath, r.cfg.Intake)
	if err != nil {
		return nil, err
	}
	log.Debug("export read", zap.Int("rows", len(table.Rows)))

	// =========================================================================
	// STEP 2: NORMALIZE
	// =========================================================================

	normalized, err := intake.Normalize(table, r.cfg.Intake.Columns)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", job.ExportPath, err)
	}
	out.Warnings = append(out.Warnings, normalized.Warnings...)
	out.RejectedRows = normalized.Errors
	if len(normalized.Errors) > 0 {
		if job.Strict {
			return nil, fmt.Errorf("%w: %d row(s) in %s: %v", ErrRejectedRows, len(normalized.Errors), job.ExportPath, errors.Join(normalized.Errors...))
		}
		for _, rowErr := range normalized.Errors {
			out.Warnings = append(out.Warnings, "skipped "+rowErr.Error())
		}
	}

	// =========================================================================
	// STEP 3: EXCLUDE
	// =========================================================================

	kept, exclusions := intake.Exclude(normalized.Records)
	out.Exclusions = exclusions
	out.Warnings = append(out.Warnings, exclusions.Messages()...)

	// =========================================================================
	// STEP 4: ALLOCATE NAMES
	// =========================================================================

	batch := naming.Allocate(kept)
	out.Records = len(batch)
	log.Info("batch prepared",
		zap.Int("records", len(batch)),
		zap.Int("denied", exclusions.Denied),
		zap.Int("late", exclusions.Late),
		zap.Int("rejected", len(normalized.Errors)),
	)

	// =========================================================================
	// STEP 5: VALIDATE
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := validation.DefaultOptions()
	opts.LargeAmount = r.largeAmount()
	check := validation.New(opts).ValidateAll(batch)
	out.Issues = check.Issues
	out.Warnings = append(out.Warnings, validation.FormatIssues(check.Issues)...)
	for _, issue := range check.Issues {
		log.Debug("validation issue", zap.String("rule", issue.Rule), zap.String("record", issue.DisplayName))
	}

	// =========================================================================
	// STEP 6: OPEN LEDGER
	// =========================================================================

	doc, err := r.openOrCreate(job.LedgerPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	// =========================================================================
	// STEP 7: MERGE
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged, err := ledger.Merge(doc, batch, job.MeetingDate)
	if err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", job.ExportPath, err)
	}
	out.Sections = merged.Sections
	out.Warnings = append(out.Warnings, merged.Warnings...)
	for _, s := range merged.Sections {
		log.Info("section appended",
			zap.String("section", s.Key),
			zap.String("sheet", s.Sheet),
			zap.Int("rows", s.Rows()),
			zap.Int("first_row", s.FirstRow),
		)
	}

	// =========================================================================
	// STEP 8: WRITE OUTPUT
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	section := ledger.SectionKey(job.MeetingDate, 1)
	if len(merged.Sections) > 0 {
		section = merged.Sections[0].Key
	}
	out.OutputPath = r.files.OutputPath(job.OutputPath, r.cfg.Output.NameFormat, ".xlsx", map[string]string{"section": section})

	if utils.SamePath(out.OutputPath, job.LedgerPath) {
		archived, err := r.files.Archive(job.LedgerPath)
		if err != nil {
			return nil, err
		}
		out.ArchivedPath = archived
		if archived != "" {
			log.Info("previous ledger archived", zap.String("path", archived))
		}
	}

	if err := r.save(merged.Document, out.OutputPath); err != nil {
		return nil, err
	}
	log.Info("ledger written", zap.String("path", out.OutputPath), zap.Int("warnings", len(out.Warnings)))

	return out, nil
}

// largeAmount reads the configured large-request threshold.
func (r *Runner) largeAmount() decimal.Decimal {
	v, err := types.ParseAmount(r.cfg.Ledger.LargeAmount)
	if err != nil || !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// =============================================================================
// READ
// =============================================================================

// Summaries parses the ledger at path into per-section summaries.
func (r *Runner) Summaries(ctx context.Context, path string) (*ledger.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	res, err := ledger.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	r.logger.Debug("ledger parsed", zap.String("path", path), zap.Int("sections", len(res.Sections)))
	return res, nil
}

// DecidedRows returns the decided rows of one section.
func (r *Runner) DecidedRows(ctx context.Context, path, section string) (*ledger.SectionRows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return ledger.RowsForSection(doc, section)
}

// AllRows returns every row of one section, decided or not.
func (r *Runner) AllRows(ctx context.Context, path, section string) ([]types.LedgerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return ledger.LedgerRows(doc, section)
}

// =============================================================================
// DECK
// =============================================================================

// DeckJob describes one deck build.
type DeckJob struct {
	LedgerPath string
	Section    string

	// OutputPath is where the deck is written; empty generates a name.
	OutputPath string
}

// DeckOutcome reports a written deck.
type DeckOutcome struct {
	OutputPath string
	Section    string

	// Slides is the number of decided rows on slides.
	Slides   int
	Excluded int
	Total    int
	Warnings []string
}

// BuildDeck compiles the decided rows of one section into a deck file.
func (r *Runner) BuildDeck(ctx context.Context, job DeckJob) (*DeckOutcome, error) {
	rows, err := r.DecidedRows(ctx, job.LedgerPath, job.Section)
	if err != nil {
		return nil, err
	}

	out := &DeckOutcome{
		Section:  rows.Key,
		Slides:   len(rows.Rows),
		Excluded: rows.Excluded,
		Total:    rows.Total,
		Warnings: rows.Warnings,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.Compiler.Compile(rows.Rows, rows.Key)
	if err != nil {
		return nil, err
	}

	out.OutputPath = r.files.OutputPath(job.OutputPath, "deck_"+r.cfg.Output.NameFormat, ".pdf", map[string]string{"section": rows.Key})
	if err := r.files.Write(out.OutputPath, data); err != nil {
		return nil, err
	}

	r.logger.Info("deck written",
		zap.String("section", rows.Key),
		zap.String("path", out.OutputPath),
		zap.Int("slides", out.Slides),
		zap.Int("excluded", out.Excluded),
	)
	return out, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (r *Runner) open(path string) (*ledger.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	doc, err := ledger.Open(f, r.Layout())
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	return doc, nil
}

func (r *Runner) openOrCreate(path string) (*ledger.Document, error) {
	if strings.TrimSpace(path) != "" {
		return r.open(path)
	}

	balance, err := types.ParseAmount(r.cfg.Ledger.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid starting balance: %w", err)
	}
	return ledger.New(r.Layout(), balance)
}

func (r *Runner) save(doc *ledger.Document, path string) error {
	if err := r.files.WriteFrom(path, doc); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}
