// =============================================================================
// Budget Ledger - Decision Deck
// =============================================================================
//
// The deck turns the decided rows of one ledger section into a slide deck for
// the decision session recap. Slides are rendered as landscape PDF pages:
//
//   1. Title slide: section label, decision counts, approved totals
//   2. One slide per decided request
//   3. Closing slide: table of every decision and the totals
//
// =============================================================================

package deck

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// ErrNoRows is returned when there is nothing to put on slides.
var ErrNoRows = errors.New("no decided rows to compile")

// Compiler turns decided rows into deck bytes.
type Compiler interface {
	Compile(rows []types.DecidedRow, sectionLabel string) ([]byte, error)
}

// =============================================================================
// TOTALS
// =============================================================================

// Totals summarizes a list of decided rows.
type Totals struct {
	Approved int
	Denied   int

	// PoolApproved and SimpleApproved sum the final amounts of approved rows.
	PoolApproved   decimal.Decimal
	SimpleApproved decimal.Decimal
}

// Summarize computes Totals for rows.
func Summarize(rows []types.DecidedRow) Totals {
	var t Totals
	for _, r := range rows {
		switch r.DecisionStatus {
		case types.StatusApproved:
			t.Approved++
			if r.Category == types.CategoryPool {
				t.PoolApproved = t.PoolApproved.Add(r.FinalAmount)
			} else {
				t.SimpleApproved = t.SimpleApproved.Add(r.FinalAmount)
			}
		case types.StatusDenied:
			t.Denied++
		}
	}
	return t
}

// =============================================================================
// PDF COMPILER
// =============================================================================

// PDFCompiler renders decks with fpdf.
type PDFCompiler struct {
	// Title appears on the first slide and in the document metadata.
	Title  string
	Author string

	// Now stamps the document; nil means time.Now.
	Now func() time.Time
}

// NewPDFCompiler returns a compiler with the given deck title.
func NewPDFCompiler(title string) *PDFCompiler {
	if title == "" {
		title = "Funding Decisions"
	}
	return &PDFCompiler{Title: title}
}

// Compile renders rows as a PDF deck.
func (c *PDFCompiler) Compile(rows []types.DecidedRow, sectionLabel string) ([]byte, error) {
	pdf, err := c.render(rows, sectionLabel)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write deck: %w", err)
	}
	return buf.Bytes(), nil
}

const (
	pageWidth = 297.0
	margin    = 20.0
	bodyWidth = pageWidth - 2*margin
)

func (c *PDFCompiler) render(rows []types.DecidedRow, sectionLabel string) (*fpdf.Fpdf, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: section %s", ErrNoRows, sectionLabel)
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(c.Title+" - "+sectionLabel, true)
	if c.Author != "" {
		pdf.SetAuthor(c.Author, true)
	}
	pdf.SetCreationDate(now())

	// Core fonts are cp1252; translate UTF-8 input.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	totals := Summarize(rows)

	c.titleSlide(pdf, tr, sectionLabel, len(rows), totals)
	for i, row := range rows {
		c.rowSlide(pdf, tr, sectionLabel, i+1, len(rows), row)
	}
	c.closingSlide(pdf, tr, sectionLabel, rows, totals)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render deck: %w", err)
	}
	return pdf, nil
}

func (c *PDFCompiler) titleSlide(pdf *fpdf.Fpdf, tr func(string) string, label string, count int, t Totals) {
	pdf.AddPage()
	pdf.Ln(35)

	pdf.SetFont("Helvetica", "B", 32)
	pdf.CellFormat(bodyWidth, 16, tr(c.Title), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 20)
	pdf.CellFormat(bodyWidth, 12, tr("Week of "+label), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 14)
	lines := []string{
		fmt.Sprintf("%d decision(s): %d approved, %d denied", count, t.Approved, t.Denied),
		fmt.Sprintf("Approved from the pool: %s", money(t.PoolApproved)),
		fmt.Sprintf("Approved reallocations: %s", money(t.SimpleApproved)),
	}
	for _, line := range lines {
		pdf.CellFormat(bodyWidth, 9, tr(line), "", 1, "C", false, 0, "")
	}
}

func (c *PDFCompiler) rowSlide(pdf *fpdf.Fpdf, tr func(string) string, label string, n, of int, r types.DecidedRow) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(bodyWidth, 6, tr(fmt.Sprintf("Week of %s  |  %d / %d", label, n, of)), "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(bodyWidth, 14, tr(r.DisplayName), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(bodyWidth, 8, tr(fmt.Sprintf("%s  |  %s", r.Category, r.RoutingClass)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	if r.Description != "" {
		pdf.SetFont("Helvetica", "", 16)
		pdf.MultiCell(bodyWidth, 8, tr(r.Description), "", "L", false)
		pdf.Ln(6)
	}

	fields := [][2]string{
		{"Requested", money(r.RequestedAmount)},
		{"Final", money(r.FinalAmount)},
		{"Decision", r.DecisionStatus},
	}
	if r.AccountReference != "" {
		fields = append(fields, [2]string{"Account", r.AccountReference})
	}
	for _, f := range fields {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(40, 9, tr(f[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 14)
		pdf.CellFormat(bodyWidth-40, 9, tr(f[1]), "", 1, "L", false, 0, "")
	}
}

func (c *PDFCompiler) closingSlide(pdf *fpdf.Fpdf, tr func(string) string, label string, rows []types.DecidedRow, t Totals) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(bodyWidth, 12, tr("Summary - Week of "+label), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{95, 45, 40, 40, 37}
	headers := []string{"Organization", "Category", "Decision", "Requested", "Final"}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(217, 225, 242)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, r := range rows {
		cells := []string{r.DisplayName, string(r.Category), r.DecisionStatus, money(r.RequestedAmount), money(r.FinalAmount)}
		for i, v := range cells {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	total := t.PoolApproved.Add(t.SimpleApproved)
	pdf.CellFormat(bodyWidth, 8, tr(fmt.Sprintf("Total approved: %s (%d approved, %d denied)", money(total), t.Approved, t.Denied)), "", 1, "R", false, 0, "")
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
