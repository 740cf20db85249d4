// =============================================================================
// Budget Ledger - Validation Engine
// =============================================================================
//
// This module runs soft checks over a batch of request records before it is
// merged into the ledger. Checks never drop a record: they produce issues that
// travel with the merge result so reviewers can see them.
//
// CHECKS:
//   - Field rules (struct tags, go-playground/validator):
//       display name present, known category, non-negative amount,
//       account reference present, description present
//   - Zero amount
//   - Amount at or above the configured large-amount threshold
//   - Display name repeated within the batch
//
// SEVERITY:
//   - "error"   : the ledger writer would reject the batch
//   - "warning" : the record is merged as is
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ISSUE
// =============================================================================

// Issue is one failed check.
type Issue struct {
	Severity string

	// Index is the 0-based position of the record in the batch.
	Index       int
	DisplayName string

	Field   string
	Value   string
	Rule    string
	Message string
}

// Error implements the error interface.
func (e *Issue) Error() string {
	return fmt.Sprintf("[%s] record %d (%s), field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Index+1,
		e.DisplayName,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the results of validation.
type Result struct {
	// IsValid is true if there are no error-severity issues.
	IsValid bool

	Issues []*Issue

	ErrorCount   int
	WarningCount int

	RecordsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Options tunes the checks.
type Options struct {
	// TreatWarningsAsErrors makes any warning invalidate the batch.
	TreatWarningsAsErrors bool

	// LargeAmount flags requests at or above this amount. Zero disables the
	// check.
	LargeAmount decimal.Decimal
}

// DefaultOptions returns options with warnings kept as warnings and the
// large-amount check disabled.
func DefaultOptions() Options {
	return Options{}
}

// Validator checks request records.
type Validator struct {
	options Options
	rules   *validator.Validate
}

// New creates a Validator.
func New(options Options) *Validator {
	return &Validator{
		options: options,
		rules:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// recordFields is the tagged view of a record used for field rules.
type recordFields struct {
	DisplayName string  `validate:"required"`
	Category    string  `validate:"oneof=AFR Reallocation"`
	Amount      float64 `validate:"gte=0"`
	Account     string  `validate:"required"`
	Description string  `validate:"required"`
}

// fieldRules maps a struct field to its issue field, severity and message.
var fieldRules = map[string]struct {
	field    string
	severity string
	message  string
}{
	"DisplayName": {"organization", SeverityError, "missing organization name"},
	"Category":    {"category", SeverityError, "unknown category"},
	"Amount":      {"amount", SeverityError, "negative amount"},
	"Account":     {"account", SeverityWarning, "missing account reference"},
	"Description": {"description", SeverityWarning, "missing description"},
}

// ValidateAll validates every record and the batch as a whole.
func (v *Validator) ValidateAll(records []types.RequestRecord) *Result {
	result := &Result{IsValid: true, RecordsValidated: len(records)}

	var issues []*Issue
	for i, rec := range records {
		issues = append(issues, v.ValidateRecord(i, rec)...)
	}
	issues = append(issues, duplicateNames(records)...)

	for _, issue := range issues {
		result.Issues = append(result.Issues, issue)
		if issue.Severity == SeverityError {
			result.ErrorCount++
			result.IsValid = false
			continue
		}
		result.WarningCount++
		if v.options.TreatWarningsAsErrors {
			result.IsValid = false
		}
	}

	return result
}

// ValidateRecord checks a single record at batch position i.
func (v *Validator) ValidateRecord(i int, rec types.RequestRecord) []*Issue {
	var issues []*Issue
	name := rec.Name()

	view := recordFields{
		DisplayName: strings.TrimSpace(name),
		Category:    string(rec.Category),
		Amount:      rec.RequestedAmount.InexactFloat64(),
		Account:     strings.TrimSpace(rec.AccountReference),
		Description: strings.TrimSpace(rec.Description),
	}

	if err := v.rules.Struct(view); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []*Issue{{Severity: SeverityError, Index: i, DisplayName: name, Field: "record", Rule: "struct", Message: err.Error()}}
		}
		for _, fe := range fieldErrs {
			rule, ok := fieldRules[fe.StructField()]
			if !ok {
				continue
			}
			issues = append(issues, &Issue{
				Severity:    rule.severity,
				Index:       i,
				DisplayName: name,
				Field:       rule.field,
				Value:       fmt.Sprint(fe.Value()),
				Rule:        fe.Tag(),
				Message:     rule.message,
			})
		}
	}

	if rec.RequestedAmount.IsZero() {
		issues = append(issues, &Issue{
			Severity: SeverityWarning, Index: i, DisplayName: name,
			Field: "amount", Value: "0", Rule: "nonzero", Message: "zero amount requested",
		})
	}

	if large := v.options.LargeAmount; large.IsPositive() && rec.RequestedAmount.GreaterThanOrEqual(large) {
		issues = append(issues, &Issue{
			Severity: SeverityWarning, Index: i, DisplayName: name,
			Field: "amount", Value: rec.RequestedAmount.StringFixed(2), Rule: "large",
			Message: fmt.Sprintf("amount at or above %s", large.StringFixed(2)),
		})
	}

	return issues
}

// duplicateNames reports display names that occur more than once. This can
// happen when one organization submits as "Acme 1" and another batch member
// is numbered into the same name.
func duplicateNames(records []types.RequestRecord) []*Issue {
	first := make(map[string]int, len(records))
	var issues []*Issue
	for i, rec := range records {
		key := strings.ToLower(strings.TrimSpace(rec.Name()))
		if key == "" {
			continue
		}
		if j, seen := first[key]; seen {
			issues = append(issues, &Issue{
				Severity: SeverityWarning, Index: i, DisplayName: rec.Name(),
				Field: "organization", Value: rec.Name(), Rule: "unique",
				Message: fmt.Sprintf("display name repeats record %d", j+1),
			})
			continue
		}
		first[key] = i
	}
	return issues
}

// =============================================================================
// OUTPUT
// =============================================================================

// FormatIssues renders issues one per line for a warning list.
func FormatIssues(issues []*Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Error())
	}
	return out
}
