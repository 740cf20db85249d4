package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// Typed cell access. Reader and writer code never inspects raw cell values;
// it goes through text, resolved and number so that blank cells, formula
// cells and formatted currency all decode the same way.

// text returns the trimmed raw value of a cell. Blank cells return "".
func (d *Document) text(sheet, ref string) (string, error) {
	v, err := d.file.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("failed to read %s!%s: %w", sheet, ref, err)
	}
	return strings.TrimSpace(v), nil
}

// resolved returns the value of a cell, using the cached formula result when
// one is stored and evaluating the formula otherwise.
func (d *Document) resolved(sheet, ref string) (string, error) {
	v, err := d.text(sheet, ref)
	if err != nil || v != "" {
		return v, err
	}

	formula, err := d.file.GetCellFormula(sheet, ref)
	if err != nil {
		return "", fmt.Errorf("failed to read formula %s!%s: %w", sheet, ref, err)
	}
	if formula == "" {
		return "", nil
	}

	out, err := d.file.CalcCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("failed to evaluate %s!%s (=%s): %w", sheet, ref, formula, err)
	}
	return strings.TrimSpace(out), nil
}

// number returns the resolved numeric value of a cell rounded to cents.
// Blank cells give an invalid NullDecimal.
func (d *Document) number(sheet, ref string) (decimal.NullDecimal, error) {
	v, err := d.resolved(sheet, ref)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	n, err := types.ParseAmount(v)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s!%s: %w", sheet, ref, err)
	}
	return n, nil
}

// amount is number with blank treated as zero.
func (d *Document) amount(sheet, ref string) (decimal.Decimal, error) {
	n, err := d.number(sheet, ref)
	if err != nil {
		return decimal.Zero, err
	}
	if !n.Valid {
		return decimal.Zero, nil
	}
	return n.Decimal, nil
}

// =============================================================================
// WRITES
// =============================================================================

func (d *Document) setText(sheet, ref, value string) error {
	if err := d.file.SetCellStr(sheet, ref, value); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, ref, err)
	}
	return nil
}

func (d *Document) setAmount(sheet, ref string, value decimal.Decimal) error {
	if err := d.file.SetCellFloat(sheet, ref, value.InexactFloat64(), 2, 64); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, ref, err)
	}
	return nil
}

// setFormula writes a native formula. The formula text has no leading "=".
func (d *Document) setFormula(sheet, ref, formula string) error {
	if err := d.file.SetCellFormula(sheet, ref, formula); err != nil {
		return fmt.Errorf("failed to write formula %s!%s: %w", sheet, ref, err)
	}
	return nil
}

func (d *Document) setStyle(sheet, from, to string, style int) error {
	if err := d.file.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("failed to style %s!%s:%s: %w", sheet, from, to, err)
	}
	return nil
}
