// =============================================================================
// Budget Ledger - Ledger Reader
// =============================================================================
//
// The reader recovers dated sections from a ledger workbook. Each category
// sheet is scanned top to bottom below its header row:
//
//   - a "Week of <date>" marker in column A opens a section
//   - label rows (Subtotal, Remaining Balance, ...) and blank rows are skipped
//   - every other row with an organization is a request row of the open
//     section, decoded with formula cells resolved
//
// Sections of both sheets are then joined by section key.
//
// =============================================================================

package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// ParseResult is the outcome of Parse.
type ParseResult struct {
	// Sections are ordered most recent date first.
	Sections []types.WeekSummary
	Warnings []string
}

// SectionRows holds the presentation-ready rows of one section.
type SectionRows struct {
	Key string

	// Rows are the decided rows, pool-tracked first, in sheet order.
	Rows []types.DecidedRow

	// Excluded counts rows left out because they have no decision status.
	Excluded int

	// Total is the number of request rows in the section.
	Total int

	Warnings []string
}

// =============================================================================
// PUBLIC OPERATIONS
// =============================================================================

// Parse reads every section of the ledger and summarizes it.
func Parse(doc *Document) (*ParseResult, error) {
	scan, err := doc.scan()
	if err != nil {
		return nil, err
	}

	summaries := make(map[string]*types.WeekSummary)
	for _, c := range categoryOrder {
		for _, s := range scan.sections[c] {
			sum, ok := summaries[s.key]
			if !ok {
				sum = &types.WeekSummary{Key: s.key, MeetingDate: s.date, Sequence: s.seq}
				summaries[s.key] = sum
			}
			s.summarize(sum)
		}
	}

	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: no \"Week of <date>\" marker on sheets %s", ErrNoSections, strings.Join(scan.sheetNames, ", "))
	}

	result := &ParseResult{Warnings: scan.warnings}
	for _, sum := range summaries {
		result.Sections = append(result.Sections, *sum)
	}
	sort.Slice(result.Sections, func(i, j int) bool {
		a, b := result.Sections[i], result.Sections[j]
		if a.MeetingDate != b.MeetingDate {
			return a.MeetingDate > b.MeetingDate
		}
		return a.Sequence > b.Sequence
	})

	for _, sum := range result.Sections {
		if sum.NoStatusCount > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("section %s: %d of %d row(s) have no decision status", sum.Key, sum.NoStatusCount, sum.RequestCount))
		}
	}

	return result, nil
}

// RowsForSection returns the decided rows of one section for slide
// generation. Rows without a decision status are excluded and counted.
func RowsForSection(doc *Document, key string) (*SectionRows, error) {
	rows, warnings, key, err := doc.sectionRows(key)
	if err != nil {
		return nil, err
	}

	out := &SectionRows{Key: key, Total: len(rows), Warnings: warnings}
	for _, r := range rows {
		if !r.Decided() {
			out.Excluded++
			continue
		}
		route, desc := types.ParseNote(r.Note)
		out.Rows = append(out.Rows, types.DecidedRow{
			DisplayName:      r.DisplayName,
			Category:         r.Category,
			RoutingClass:     route,
			Description:      desc,
			RequestedAmount:  r.RequestedAmount,
			FinalAmount:      r.FinalAmount,
			AccountReference: r.AccountReference,
			DecisionStatus:   r.DecisionStatus,
		})
	}
	if out.Excluded > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("section %s: %d of %d row(s) excluded, no decision status", key, out.Excluded, out.Total))
	}

	return out, nil
}

// LedgerRows returns every decoded row of one section, decided or not.
func LedgerRows(doc *Document, key string) ([]types.LedgerRow, error) {
	rows, _, _, err := doc.sectionRows(key)
	return rows, err
}

func (d *Document) sectionRows(key string) ([]types.LedgerRow, []string, string, error) {
	norm, err := NormalizeKey(key)
	if err != nil {
		return nil, nil, "", err
	}

	scan, err := d.scan()
	if err != nil {
		return nil, nil, "", err
	}

	var rows []types.LedgerRow
	found := false
	for _, c := range categoryOrder {
		for _, s := range scan.sections[c] {
			if s.key == norm {
				found = true
				rows = append(rows, s.rows...)
			}
		}
	}
	if !found {
		return nil, nil, "", fmt.Errorf("%w: %q", ErrSectionNotFound, norm)
	}

	return rows, scan.warnings, norm, nil
}

// =============================================================================
// SCANNING
// =============================================================================

type scannedSection struct {
	key      string
	date     string
	seq      int
	category types.Category
	rows     []types.LedgerRow

	subtotal  decimal.NullDecimal
	remaining decimal.NullDecimal
}

// summarize adds the section's counts to sum.
func (s *scannedSection) summarize(sum *types.WeekSummary) {
	for _, r := range s.rows {
		sum.RequestCount++
		switch r.DecisionStatus {
		case types.StatusApproved:
			sum.ApprovedCount++
		case types.StatusDenied:
			sum.DeniedCount++
		default:
			sum.NoStatusCount++
		}
		if r.Category == types.CategoryPool {
			sum.PoolCount++
		} else {
			sum.SimpleCount++
		}
	}

	if s.category != types.CategoryPool {
		return
	}
	if s.subtotal.Valid {
		sum.PoolFinalTotal = sum.PoolFinalTotal.Add(s.subtotal.Decimal)
	} else {
		for _, r := range s.rows {
			sum.PoolFinalTotal = sum.PoolFinalTotal.Add(r.FinalAmount)
		}
	}
	if s.remaining.Valid {
		sum.RemainingBalance = s.remaining
	}
}

type documentScan struct {
	sections   map[types.Category][]*scannedSection
	warnings   []string
	sheetNames []string
}

// scan reads both category sheets. A missing or headerless sheet is a
// warning as long as the other sheet can be read.
func (d *Document) scan() (*documentScan, error) {
	scan := &documentScan{sections: make(map[types.Category][]*scannedSection, 2)}

	var lastErr error
	usable := 0
	for _, c := range categoryOrder {
		sheet, ok := d.sheets[c]
		if !ok {
			scan.warnings = append(scan.warnings, fmt.Sprintf("sheet %q not found; %s sections skipped", d.layout.sheetFor(c), c))
			lastErr = &StructuralError{Sheet: d.layout.sheetFor(c), Reason: "sheet not found"}
			continue
		}
		scan.sheetNames = append(scan.sheetNames, fmt.Sprintf("%q", sheet))

		sections, warnings, err := d.scanSheet(sheet, c)
		if err != nil {
			var se *StructuralError
			if !errors.As(err, &se) {
				return nil, err
			}
			scan.warnings = append(scan.warnings, err.Error())
			lastErr = err
			continue
		}
		usable++
		scan.sections[c] = sections
		scan.warnings = append(scan.warnings, warnings...)
	}

	if usable == 0 {
		if len(d.sheets) == 0 {
			return nil, &StructuralError{Reason: fmt.Sprintf("no %q or %q sheet found", d.layout.PoolSheet, d.layout.SimpleSheet)}
		}
		return nil, lastErr
	}

	return scan, nil
}

// scanSheet walks one category sheet and decodes its sections.
func (d *Document) scanSheet(sheet string, c types.Category) ([]*scannedSection, []string, error) {
	hdr, err := d.headerRowOf(sheet)
	if err != nil {
		return nil, nil, err
	}
	rows, err := d.rows(sheet)
	if err != nil {
		return nil, nil, err
	}

	var (
		sections []*scannedSection
		byKey    = make(map[string]*scannedSection)
		current  *scannedSection
		warnings []string
		orphans  int
	)

	for r := hdr + 1; r <= len(rows); r++ {
		cells := rows[r-1]
		lead, org := at(cells, 0), at(cells, 1)
		cls := Classify(RowCells{Leading: lead, Organization: org})

		switch cls.Kind {
		case KindSectionStart:
			s, seen := byKey[cls.Key]
			if seen {
				warnings = append(warnings, fmt.Sprintf("sheet %q row %d: section %s appears more than once; rows combined", sheet, r, cls.Key))
			} else {
				s = &scannedSection{key: cls.Key, date: cls.Date, seq: cls.Sequence, category: c}
				byKey[cls.Key] = s
				sections = append(sections, s)
			}
			current = s
			if cls.HasData {
				current.rows = append(current.rows, d.decodeRow(sheet, c, r, current, org, &warnings))
			}

		case KindSkip:
			if cls.Malformed {
				warnings = append(warnings, fmt.Sprintf("sheet %q row %d: unreadable section marker %q", sheet, r, lead))
				// Rows up to the next readable marker belong to no section.
				current = nil
				if org != "" {
					orphans++
				}
				continue
			}
			if current == nil || c != types.CategoryPool {
				continue
			}
			switch {
			case strings.EqualFold(lead, LabelSubtotal):
				current.subtotal = d.readTotal(sheet, r, &warnings)
			case strings.EqualFold(lead, LabelRemaining):
				current.remaining = d.readTotal(sheet, r, &warnings)
			}

		case KindData:
			if current == nil {
				orphans++
				continue
			}
			current.rows = append(current.rows, d.decodeRow(sheet, c, r, current, org, &warnings))
		}
	}

	if orphans > 0 {
		warnings = append(warnings, fmt.Sprintf("sheet %q: %d row(s) outside a readable section ignored", sheet, orphans))
	}

	return sections, warnings, nil
}

// decodeRow builds a LedgerRow. Unreadable cells become warnings naming the
// section, row and organization, and decode as blank.
func (d *Document) decodeRow(sheet string, c types.Category, r int, s *scannedSection, name string, warnings *[]string) types.LedgerRow {
	warn := func(field string, err error) {
		*warnings = append(*warnings, fmt.Sprintf("section %s, sheet %q row %d (%s): %s: %v", s.key, sheet, r, name, field, err))
	}
	amount := func(field, col string) decimal.Decimal {
		v, err := d.amount(sheet, cell(col, r))
		if err != nil {
			warn(field, err)
		}
		return v
	}
	number := func(field, col string) decimal.NullDecimal {
		v, err := d.number(sheet, cell(col, r))
		if err != nil {
			warn(field, err)
		}
		return v
	}
	text := func(field, col string) string {
		v, err := d.text(sheet, cell(col, r))
		if err != nil {
			warn(field, err)
		}
		return v
	}

	row := types.LedgerRow{
		SectionKey:       s.key,
		MeetingDate:      s.date,
		Category:         c,
		SheetRow:         r,
		DisplayName:      name,
		RequestedAmount:  amount("requested", colRequested),
		AccountReference: text("account", colAccount),
		Note:             text("note", colNote),
		AfterAdjustment:  number("after adjustment", colAfter),
		FinalAmount:      amount("final amount", finalColumn(c)),
	}
	if c == types.CategoryPool {
		row.AmendedAmount = number("amended amount", colAmended)
	}

	raw := text("status", colStatus)
	status, ok := normalizeStatus(raw)
	if !ok {
		warn("status", fmt.Errorf("unrecognized value %q treated as blank", raw))
	}
	row.DecisionStatus = status

	return row
}

func (d *Document) readTotal(sheet string, r int, warnings *[]string) decimal.NullDecimal {
	v, err := d.number(sheet, cell(colPoolFinal, r))
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("sheet %q row %d: %v", sheet, r, err))
	}
	return v
}

// normalizeStatus maps a status cell to "Approved", "Denied" or "".
// ok is false for values that are neither blank nor a known status.
func normalizeStatus(raw string) (string, bool) {
	switch {
	case raw == "":
		return "", true
	case strings.EqualFold(raw, types.StatusApproved):
		return types.StatusApproved, true
	case strings.EqualFold(raw, types.StatusDenied):
		return types.StatusDenied, true
	default:
		return "", false
	}
}
