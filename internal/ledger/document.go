// =============================================================================
// Budget Ledger - Ledger Document
// =============================================================================
//
// Document wraps one in-memory ledger workbook. A Document is owned by a
// single merge or parse call: it is loaded from an uploaded byte buffer (or
// created empty), mutated in place, and written back out as a new buffer.
// Nothing is shared between calls.
//
// =============================================================================

package ledger

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// Document is a ledger workbook plus the location of its category sheets.
type Document struct {
	file   *excelize.File
	layout Layout

	// sheets maps each category to the actual sheet name found in the
	// workbook. A missing key means the sheet could not be located.
	sheets map[types.Category]string

	styles *styleSet
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// New creates an empty ledger with both category sheets.
// When startingBalance is not valid the starting-balance cell is left blank
// for a reviewer to fill in.
func New(layout Layout, startingBalance decimal.NullDecimal) (*Document, error) {
	layout = layout.withDefaults()
	if strings.EqualFold(strings.TrimSpace(layout.PoolSheet), strings.TrimSpace(layout.SimpleSheet)) {
		return nil, fmt.Errorf("pool and simple sheets must differ (both %q)", layout.PoolSheet)
	}

	f := excelize.NewFile()
	doc := &Document{
		file:   f,
		layout: layout,
		sheets: make(map[types.Category]string, 2),
	}

	if err := f.SetSheetName(f.GetSheetName(0), layout.PoolSheet); err != nil {
		return nil, fmt.Errorf("failed to name pool sheet: %w", err)
	}
	if _, err := f.NewSheet(layout.SimpleSheet); err != nil {
		return nil, fmt.Errorf("failed to create simple sheet: %w", err)
	}
	doc.sheets[types.CategoryPool] = layout.PoolSheet
	doc.sheets[types.CategorySimple] = layout.SimpleSheet

	for _, c := range []types.Category{types.CategoryPool, types.CategorySimple} {
		if err := doc.initSheet(c); err != nil {
			return nil, err
		}
	}

	if startingBalance.Valid {
		if err := doc.SetStartingBalance(startingBalance.Decimal); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return doc, nil
}

// Open loads a ledger workbook from r.
// Open does not require the category sheets to exist; Merge and Parse report
// missing sheets with the context of the operation.
func Open(r io.Reader, layout Layout) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger workbook: %w", err)
	}

	doc := &Document{
		file:   f,
		layout: layout.withDefaults(),
		sheets: make(map[types.Category]string, 2),
	}
	doc.locateSheets()

	return doc, nil
}

// OpenBytes loads a ledger workbook from an uploaded buffer.
func OpenBytes(data []byte, layout Layout) (*Document, error) {
	return Open(bytes.NewReader(data), layout)
}

// locateSheets matches workbook sheet names against the layout,
// ignoring case and surrounding whitespace.
func (d *Document) locateSheets() {
	for _, name := range d.file.GetSheetList() {
		trimmed := strings.TrimSpace(name)
		switch {
		case strings.EqualFold(trimmed, strings.TrimSpace(d.layout.PoolSheet)):
			d.sheets[types.CategoryPool] = name
		case strings.EqualFold(trimmed, strings.TrimSpace(d.layout.SimpleSheet)):
			d.sheets[types.CategorySimple] = name
		}
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

// Bytes serializes the workbook.
func (d *Document) Bytes() ([]byte, error) {
	buf, err := d.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ledger workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTo writes the workbook to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return d.file.WriteTo(w)
}

// Close releases temporary files held by the workbook.
func (d *Document) Close() error {
	return d.file.Close()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Layout returns the layout the document was opened with.
func (d *Document) Layout() Layout {
	return d.layout
}

// SheetName returns the worksheet holding category c.
func (d *Document) SheetName(c types.Category) (string, bool) {
	name, ok := d.sheets[c]
	return name, ok
}

// StartingBalance reads the starting-balance cell of the pool sheet.
// The result is not valid when the cell is blank.
func (d *Document) StartingBalance() (decimal.NullDecimal, error) {
	sheet, ok := d.sheets[types.CategoryPool]
	if !ok {
		return decimal.NullDecimal{}, &StructuralError{Sheet: d.layout.PoolSheet, Reason: "sheet not found"}
	}
	return d.number(sheet, startingBalanceCell)
}

// SetStartingBalance writes the starting-balance cell of the pool sheet.
func (d *Document) SetStartingBalance(amount decimal.Decimal) error {
	sheet, ok := d.sheets[types.CategoryPool]
	if !ok {
		return &StructuralError{Sheet: d.layout.PoolSheet, Reason: "sheet not found"}
	}
	if err := d.setAmount(sheet, startingBalanceCell, amount); err != nil {
		return err
	}
	styles, err := d.styleIDs()
	if err != nil {
		return err
	}
	return d.file.SetCellStyle(sheet, startingBalanceCell, startingBalanceCell, styles.boldMoney)
}

// headerRowOf finds the header row of a category sheet.
// A sheet without a header row is a structural error: its column layout
// cannot be trusted.
func (d *Document) headerRowOf(sheet string) (int, error) {
	for r := 1; r <= headerSearchRows; r++ {
		v, err := d.text(sheet, cell(colOrg, r))
		if err != nil {
			return 0, err
		}
		if strings.EqualFold(v, "Organization") {
			return r, nil
		}
	}
	return 0, &StructuralError{Sheet: sheet, Reason: "header row not found"}
}

// =============================================================================
// SHEET INITIALIZATION
// =============================================================================

// initSheet writes the title, balance region and frozen header of a sheet.
func (d *Document) initSheet(c types.Category) error {
	sheet := d.sheets[c]
	f := d.file

	styles, err := d.styleIDs()
	if err != nil {
		return err
	}

	if err := f.SetCellStr(sheet, cell(colDate, titleRow), d.layout.titleFor(c)); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}
	if err := f.SetCellStyle(sheet, cell(colDate, titleRow), cell(colDate, titleRow), styles.title); err != nil {
		return err
	}

	label := LabelSimpleNote
	if c == types.CategoryPool {
		label = LabelStartingBalance
	}
	if err := f.SetCellStr(sheet, cell(colDate, balanceRow), label); err != nil {
		return fmt.Errorf("failed to write balance label: %w", err)
	}
	if err := f.SetCellStyle(sheet, cell(colDate, balanceRow), cell(colDate, balanceRow), styles.bold); err != nil {
		return err
	}

	headers := headersFor(c)
	if err := f.SetSheetRow(sheet, cell(colDate, headerRow), &headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(colDate, headerRow), cell(lastCol, headerRow), styles.header); err != nil {
		return err
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cell(colDate, firstDataRow),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	widths := map[string]float64{
		colDate: 24, colOrg: 30, colRequested: 14, colAccount: 14, colNote: 40,
		colAfter: 16, colStatus: 12, colAmended: 16, colPoolFinal: 14,
	}
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	return nil
}

// =============================================================================
// STYLES
// =============================================================================

type styleSet struct {
	title     int
	header    int
	bold      int
	money     int
	boldMoney int
}

// styleIDs registers the workbook styles once per document.
func (d *Document) styleIDs() (*styleSet, error) {
	if d.styles != nil {
		return d.styles, nil
	}

	const moneyFmt = 4 // #,##0.00

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{nil, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{nil, &excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		}},
		{nil, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{nil, &excelize.Style{NumFmt: moneyFmt}},
		{nil, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: moneyFmt}},
	}

	s := &styleSet{}
	defs[0].dst, defs[1].dst, defs[2].dst, defs[3].dst, defs[4].dst = &s.title, &s.header, &s.bold, &s.money, &s.boldMoney

	for _, def := range defs {
		id, err := d.file.NewStyle(def.style)
		if err != nil {
			return nil, fmt.Errorf("failed to register style: %w", err)
		}
		*def.dst = id
	}

	d.styles = s
	return s, nil
}
