// =============================================================================
// Budget Ledger - Worksheet Layout
// =============================================================================
//
// Both category worksheets share one layout:
//
//   | Row | Contents                                                  |
//   |-----|-----------------------------------------------------------|
//   | 1   | Title                                                     |
//   | 2   | "Starting Balance" label in A, value in B2 (pool sheet)   |
//   | 3   | (blank)                                                   |
//   | 4   | Column headers, frozen                                    |
//   | 5+  | Dated sections, separated by one blank row                |
//
// COLUMNS:
//
//   | Col | Pool-Tracked (AFR)        | Simple (Reallocation)     |
//   |-----|---------------------------|---------------------------|
//   | A   | Meeting Date              | Meeting Date              |
//   | B   | Organization              | Organization              |
//   | C   | Requested                 | Requested                 |
//   | D   | Account                   | Account                   |
//   | E   | Note                      | Note                      |
//   | F   | After Adjustment          | After Adjustment          |
//   | G   | Status                    | Status                    |
//   | H   | Amended Amount  (=C-F)    | Final Amount    (=F)      |
//   | I   | Final Amount    (=IF(..)) |                           |
//
// A pool section ends with a "Subtotal" row and a "Remaining Balance" row
// whose values live in column I.
//
// =============================================================================

package ledger

import (
	"fmt"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// =============================================================================
// LAYOUT CONFIGURATION
// =============================================================================

// Layout names the worksheets of a ledger workbook.
type Layout struct {
	// PoolSheet is the worksheet holding pool-tracked sections.
	PoolSheet string

	// SimpleSheet is the worksheet holding simple sections.
	SimpleSheet string

	PoolTitle   string
	SimpleTitle string

	// MaxRows is the row ceiling for one batch and for one worksheet.
	MaxRows int
}

// DefaultLayout returns the layout used when none is configured.
func DefaultLayout() Layout {
	return Layout{
		PoolSheet:   string(types.CategoryPool),
		SimpleSheet: string(types.CategorySimple),
		PoolTitle:   "AFR Budget Ledger",
		SimpleTitle: "Reallocation Ledger",
		MaxRows:     5000,
	}
}

// withDefaults fills zero fields from DefaultLayout.
func (l Layout) withDefaults() Layout {
	def := DefaultLayout()
	if l.PoolSheet == "" {
		l.PoolSheet = def.PoolSheet
	}
	if l.SimpleSheet == "" {
		l.SimpleSheet = def.SimpleSheet
	}
	if l.PoolTitle == "" {
		l.PoolTitle = def.PoolTitle
	}
	if l.SimpleTitle == "" {
		l.SimpleTitle = def.SimpleTitle
	}
	if l.MaxRows <= 0 {
		l.MaxRows = def.MaxRows
	}
	return l
}

func (l Layout) sheetFor(c types.Category) string {
	if c == types.CategoryPool {
		return l.PoolSheet
	}
	return l.SimpleSheet
}

func (l Layout) titleFor(c types.Category) string {
	if c == types.CategoryPool {
		return l.PoolTitle
	}
	return l.SimpleTitle
}

// =============================================================================
// FIXED POSITIONS
// =============================================================================

const (
	titleRow     = 1
	balanceRow   = 2
	headerRow    = 4
	firstDataRow = headerRow + 1

	// headerSearchRows bounds the search for the header row in uploaded files.
	headerSearchRows = 10

	startingBalanceCell = "B2"
	startingBalanceRef  = "$B$2"
)

const (
	colDate      = "A"
	colOrg       = "B"
	colRequested = "C"
	colAccount   = "D"
	colNote      = "E"
	colAfter     = "F"
	colStatus    = "G"
	colAmended   = "H"
	colPoolFinal = "I"
	colSimpFinal = "H"
)

// Row labels written to column A.
const (
	LabelSubtotal        = "Subtotal"
	LabelRemaining       = "Remaining Balance"
	LabelStartingBalance = "Starting Balance"
	LabelSimpleNote      = "Tracked individually"
	sectionPrefix        = "Week of "
)

var poolHeaders = []string{
	"Meeting Date", "Organization", "Requested", "Account", "Note",
	"After Adjustment", "Status", "Amended Amount", "Final Amount",
}

var simpleHeaders = []string{
	"Meeting Date", "Organization", "Requested", "Account", "Note",
	"After Adjustment", "Status", "Final Amount",
}

func headersFor(c types.Category) []string {
	if c == types.CategoryPool {
		return poolHeaders
	}
	return simpleHeaders
}

func finalColumn(c types.Category) string {
	if c == types.CategoryPool {
		return colPoolFinal
	}
	return colSimpFinal
}

// cell joins a column letter and a 1-based row number.
func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
