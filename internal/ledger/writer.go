// =============================================================================
// Budget Ledger - Ledger Writer
// =============================================================================
//
// Merge appends one dated section per request category to a ledger workbook.
//
// PROCESS:
//   1. Create a new document when none is given
//   2. Check the batch (row ceiling, categories, amounts)
//   3. Partition the batch by category, keeping input order
//   4. Pick the section sequence for the meeting date
//   5. Append one section per non-empty partition
//   6. Pool sections: add the Subtotal row and the Remaining Balance row,
//      chained to the previous Remaining Balance cell or the starting balance
//
// The writer only appends. Existing rows are read but never modified.
//
// =============================================================================

package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// AppendedSection describes one section written by Merge.
type AppendedSection struct {
	Key      string
	Category types.Category
	Sheet    string

	// FirstRow and LastRow bound the data rows (1-based, inclusive).
	FirstRow int
	LastRow  int

	// SubtotalRow and RemainingRow are zero for simple sections.
	SubtotalRow  int
	RemainingRow int
}

// Rows returns the number of data rows in the section.
func (s AppendedSection) Rows() int {
	return s.LastRow - s.FirstRow + 1
}

// MergeResult is the outcome of one Merge call.
type MergeResult struct {
	Document *Document
	Sections []AppendedSection
	Warnings []string
}

// categoryOrder is the order in which partitions are appended.
var categoryOrder = []types.Category{types.CategoryPool, types.CategorySimple}

// Merge appends batch to doc as new sections dated meetingDate.
//
// PARAMETERS:
//   - doc: the existing ledger, or nil to start a new one with a blank
//     starting balance
//   - batch: normalized records with display names allocated
//   - meetingDate: the session date written to each section's first row
//
// RETURNS:
//   - *MergeResult: the updated document, the appended sections and warnings
//   - error: structural, row-ceiling or record errors; doc may have been
//     partially written and must be discarded
func Merge(doc *Document, batch []types.RequestRecord, meetingDate time.Time) (*MergeResult, error) {
	if doc == nil {
		var err error
		doc, err = New(DefaultLayout(), decimal.NullDecimal{})
		if err != nil {
			return nil, err
		}
	}

	result := &MergeResult{Document: doc}

	if len(batch) == 0 {
		result.Warnings = append(result.Warnings, "batch is empty; no sections appended")
		return result, nil
	}
	if len(batch) > doc.layout.MaxRows {
		return nil, fmt.Errorf("%w: batch has %d records, limit is %d", ErrTooLarge, len(batch), doc.layout.MaxRows)
	}

	// Check every record before touching the workbook.
	partitions := make(map[types.Category][]types.RequestRecord, 2)
	for i, rec := range batch {
		if !rec.Category.Valid() {
			return nil, &RecordError{Index: i, DisplayName: rec.Name(), Reason: fmt.Sprintf("unknown category %q", rec.Category)}
		}
		if rec.RequestedAmount.IsNegative() {
			return nil, &RecordError{Index: i, DisplayName: rec.Name(), Reason: fmt.Sprintf("negative amount %s", rec.RequestedAmount.StringFixed(2))}
		}
		partitions[rec.Category] = append(partitions[rec.Category], rec)
	}

	if len(doc.sheets) == 0 {
		return nil, &StructuralError{Reason: fmt.Sprintf("no %q or %q sheet found", doc.layout.PoolSheet, doc.layout.SimpleSheet)}
	}
	for _, c := range categoryOrder {
		if len(partitions[c]) == 0 {
			continue
		}
		sheet, ok := doc.sheets[c]
		if !ok {
			return nil, &StructuralError{
				Sheet:  doc.layout.sheetFor(c),
				Reason: fmt.Sprintf("sheet not found for %d %s record(s)", len(partitions[c]), c),
			}
		}
		if _, err := doc.headerRowOf(sheet); err != nil {
			return nil, err
		}
	}

	seq, err := doc.nextSequence(meetingDate)
	if err != nil {
		return nil, err
	}

	if len(partitions[types.CategoryPool]) > 0 {
		balance, err := doc.StartingBalance()
		switch {
		case err != nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("starting balance unreadable (%v); remaining balances will not compute", err))
		case !balance.Valid:
			result.Warnings = append(result.Warnings, fmt.Sprintf("starting balance cell %s is empty; remaining balances count down from zero", startingBalanceCell))
		}
	}

	for _, c := range categoryOrder {
		records := partitions[c]
		if len(records) == 0 {
			continue
		}
		section, err := doc.appendSection(c, records, meetingDate, seq)
		if err != nil {
			return nil, err
		}
		result.Sections = append(result.Sections, *section)
	}

	return result, nil
}

// nextSequence returns the sequence number for a new section on date: one
// more than the highest sequence already used for that date on either sheet.
// Both categories of one merge share the sequence so they read back as one
// section.
func (d *Document) nextSequence(date time.Time) (int, error) {
	want := date.Format(isoDate)
	highest := 0

	for _, c := range categoryOrder {
		sheet, ok := d.sheets[c]
		if !ok {
			continue
		}
		rows, err := d.rows(sheet)
		if err != nil {
			return 0, err
		}
		for _, cells := range rows {
			cls := Classify(RowCells{Leading: at(cells, 0), Organization: at(cells, 1)})
			if cls.Kind == KindSectionStart && cls.Date == want && cls.Sequence > highest {
				highest = cls.Sequence
			}
		}
	}

	return highest + 1, nil
}

// appendSection writes one section below the last used row of the sheet.
func (d *Document) appendSection(c types.Category, records []types.RequestRecord, date time.Time, seq int) (*AppendedSection, error) {
	sheet := d.sheets[c]

	hdr, err := d.headerRowOf(sheet)
	if err != nil {
		return nil, err
	}
	rows, err := d.rows(sheet)
	if err != nil {
		return nil, err
	}

	last := lastUsedRow(rows)
	first := hdr + 1
	if last > hdr {
		first = last + 2 // one blank spacer row
	}

	lastData := first + len(records) - 1
	end := lastData
	if c == types.CategoryPool {
		end += 2
	}
	if end-hdr > d.layout.MaxRows {
		return nil, fmt.Errorf("%w: sheet %q would grow to %d rows, limit is %d", ErrTooLarge, sheet, end-hdr, d.layout.MaxRows)
	}

	styles, err := d.styleIDs()
	if err != nil {
		return nil, err
	}

	section := &AppendedSection{
		Key:      SectionKey(date, seq),
		Category: c,
		Sheet:    sheet,
		FirstRow: first,
		LastRow:  lastData,
	}

	if err := d.setText(sheet, cell(colDate, first), SectionMarker(date, seq)); err != nil {
		return nil, err
	}
	if err := d.setStyle(sheet, cell(colDate, first), cell(colDate, first), styles.bold); err != nil {
		return nil, err
	}

	for i, rec := range records {
		if err := d.writeRow(sheet, c, first+i, rec); err != nil {
			return nil, fmt.Errorf("section %s, row %d (%s): %w", section.Key, first+i, rec.Name(), err)
		}
	}

	lastMoneyCol := finalColumn(c)
	if err := d.setStyle(sheet, cell(colRequested, first), cell(colRequested, lastData), styles.money); err != nil {
		return nil, err
	}
	if err := d.setStyle(sheet, cell(colAfter, first), cell(colAfter, lastData), styles.money); err != nil {
		return nil, err
	}
	if err := d.setStyle(sheet, cell(colAmended, first), cell(lastMoneyCol, lastData), styles.money); err != nil {
		return nil, err
	}

	if err := d.addStatusChoices(sheet, first, lastData); err != nil {
		return nil, err
	}

	if c == types.CategoryPool {
		prev := d.previousRemaining(rows)
		if err := d.writeTotals(sheet, section, prev); err != nil {
			return nil, err
		}
	}

	return section, nil
}

// writeRow writes one request row.
// Reviewer columns stay blank and the derived columns are formulas, except
// for pre-approved records whose decision is already known.
func (d *Document) writeRow(sheet string, c types.Category, r int, rec types.RequestRecord) error {
	if err := d.setText(sheet, cell(colOrg, r), rec.Name()); err != nil {
		return err
	}
	if err := d.setAmount(sheet, cell(colRequested, r), rec.RequestedAmount); err != nil {
		return err
	}
	if rec.AccountReference != "" {
		if err := d.setText(sheet, cell(colAccount, r), rec.AccountReference); err != nil {
			return err
		}
	}
	if note := rec.Note(); note != "" {
		if err := d.setText(sheet, cell(colNote, r), note); err != nil {
			return err
		}
	}

	if c == types.CategoryPool {
		if err := d.setFormula(sheet, cell(colAmended, r), fmt.Sprintf("%s-%s", cell(colRequested, r), cell(colAfter, r))); err != nil {
			return err
		}
	}

	final := cell(finalColumn(c), r)

	if rec.PreApproved() {
		if err := d.setAmount(sheet, cell(colAfter, r), rec.RequestedAmount); err != nil {
			return err
		}
		if err := d.setText(sheet, cell(colStatus, r), types.StatusApproved); err != nil {
			return err
		}
		return d.setAmount(sheet, final, rec.RequestedAmount)
	}

	if c == types.CategoryPool {
		return d.setFormula(sheet, final, fmt.Sprintf(`IF(%s="%s",%s,0)`, cell(colStatus, r), types.StatusApproved, cell(colAfter, r)))
	}
	return d.setFormula(sheet, final, cell(colAfter, r))
}

// addStatusChoices restricts the status column of rows first..last to
// "Approved", "Denied" or blank.
func (d *Document) addStatusChoices(sheet string, first, last int) error {
	dv := excelize.NewDataValidation(true)
	dv.Sqref = fmt.Sprintf("%s:%s", cell(colStatus, first), cell(colStatus, last))
	if err := dv.SetDropList([]string{types.StatusApproved, types.StatusDenied}); err != nil {
		return fmt.Errorf("failed to build status choices: %w", err)
	}
	if err := d.file.AddDataValidation(sheet, dv); err != nil {
		return fmt.Errorf("failed to add status choices to %s!%s: %w", sheet, dv.Sqref, err)
	}
	return nil
}

// writeTotals appends the Subtotal and Remaining Balance rows of a pool
// section. prev is the cell the remaining balance counts down from.
func (d *Document) writeTotals(sheet string, section *AppendedSection, prev string) error {
	styles, err := d.styleIDs()
	if err != nil {
		return err
	}

	sub := section.LastRow + 1
	rem := sub + 1
	section.SubtotalRow = sub
	section.RemainingRow = rem

	writes := []struct {
		row     int
		label   string
		formula string
	}{
		{sub, LabelSubtotal, fmt.Sprintf("SUM(%s:%s)", cell(colPoolFinal, section.FirstRow), cell(colPoolFinal, section.LastRow))},
		{rem, LabelRemaining, fmt.Sprintf("%s-%s", prev, cell(colPoolFinal, sub))},
	}
	for _, w := range writes {
		if err := d.setText(sheet, cell(colDate, w.row), w.label); err != nil {
			return err
		}
		if err := d.setFormula(sheet, cell(colPoolFinal, w.row), w.formula); err != nil {
			return err
		}
		if err := d.setStyle(sheet, cell(colDate, w.row), cell(colDate, w.row), styles.bold); err != nil {
			return err
		}
		if err := d.setStyle(sheet, cell(colPoolFinal, w.row), cell(colPoolFinal, w.row), styles.boldMoney); err != nil {
			return err
		}
	}
	return nil
}

// previousRemaining finds the last Remaining Balance row in rows and returns
// its column I cell, or the starting-balance cell when there is none.
func (d *Document) previousRemaining(rows [][]string) string {
	for i := len(rows) - 1; i >= 0; i-- {
		if strings.EqualFold(at(rows[i], 0), LabelRemaining) {
			return cell(colPoolFinal, i+1)
		}
	}
	return startingBalanceRef
}

// rows returns the raw cell text of every row in the sheet.
func (d *Document) rows(sheet string) ([][]string, error) {
	rows, err := d.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// lastUsedRow returns the 1-based number of the last row holding any text.
func lastUsedRow(rows [][]string) int {
	for i := len(rows) - 1; i >= 0; i-- {
		for _, v := range rows[i] {
			if strings.TrimSpace(v) != "" {
				return i + 1
			}
		}
	}
	return 0
}

// at returns the trimmed i-th cell of a row, or "" when the row is short.
func at(cells []string, i int) string {
	if i < len(cells) {
		return strings.TrimSpace(cells[i])
	}
	return ""
}
