// =============================================================================
// Budget Ledger - Shared Types
// =============================================================================
//
// This package contains the domain types shared by the intake, naming,
// validation, ledger, deck and pipeline packages. Keeping them here avoids
// import cycles between the ledger engine and its collaborators.
//
// TYPES:
//   - RequestRecord : one normalized funding ask (input to the Ledger Writer)
//   - LedgerRow     : one decoded worksheet row (output of the Ledger Reader)
//   - WeekSummary   : per-section counts for the section selector
//   - DecidedRow    : presentation-ready row handed to the slide compiler
//
// =============================================================================

package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// Category is the request kind. Each category owns one worksheet.
type Category string

const (
	// CategoryPool draws from the shared, depletable budget ("AFR").
	CategoryPool Category = "AFR"

	// CategorySimple is tracked per request with no shared pool ("Reallocation").
	CategorySimple Category = "Reallocation"
)

// Valid reports whether c is one of the two known categories.
func (c Category) Valid() bool {
	return c == CategoryPool || c == CategorySimple
}

// LifecycleState is the upstream decision state of a request.
type LifecycleState string

const (
	StateUndecided LifecycleState = "Undecided"
	StateApproved  LifecycleState = "Decided-Approved"
	StateDenied    LifecycleState = "Decided-Denied"
)

// RoutingClass describes how a request reached the ledger.
type RoutingClass string

const (
	RouteAutoCleared   RoutingClass = "Auto-Cleared"
	RoutePreReviewed   RoutingClass = "Pre-Reviewed"
	RouteSessionReview RoutingClass = "Session-Review"
	RouteLateArrival   RoutingClass = "Late-Arrival"
)

// KnownRoutingTags returns the routing classes recognised as note tags.
func KnownRoutingTags() []RoutingClass {
	return []RoutingClass{RouteAutoCleared, RoutePreReviewed, RouteSessionReview, RouteLateArrival}
}

// Decision status values written to the worksheet status column.
const (
	StatusApproved = "Approved"
	StatusDenied   = "Denied"
)

// =============================================================================
// REQUEST RECORD
// =============================================================================

// RequestRecord is one funding ask as produced by the normalizer.
type RequestRecord struct {
	// ID is the opaque identifier from the source system.
	ID string

	// OrganizationName is the raw name as submitted.
	OrganizationName string

	// DisplayName is OrganizationName plus a disambiguating suffix when the
	// batch holds more than one record for the same organization.
	DisplayName string

	Category         Category
	RequestedAmount  decimal.Decimal
	LifecycleState   LifecycleState
	RoutingClass     RoutingClass
	AccountReference string

	// Description is the free-text purpose of the request.
	Description string
}

// Name returns DisplayName, falling back to OrganizationName when no display
// name has been allocated.
func (r RequestRecord) Name() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.OrganizationName
}

// PreApproved reports whether the request was approved before the session.
func (r RequestRecord) PreApproved() bool {
	return r.LifecycleState == StateApproved
}

// Note returns the worksheet note for the record.
// Pre-decided records carry "<RoutingClass>: <description>"; everything else
// carries the raw description.
func (r RequestRecord) Note() string {
	if r.PreApproved() && r.RoutingClass != "" {
		return string(r.RoutingClass) + ": " + r.Description
	}
	return r.Description
}

// ParseNote splits a worksheet note into its routing class and description.
// Notes without a known tag default to session review with the raw note.
func ParseNote(note string) (RoutingClass, string) {
	tag, rest, found := strings.Cut(note, ":")
	if !found {
		return RouteSessionReview, note
	}
	tag = strings.TrimSpace(tag)
	for _, known := range KnownRoutingTags() {
		if strings.EqualFold(tag, string(known)) {
			return known, strings.TrimSpace(rest)
		}
	}
	return RouteSessionReview, note
}

// =============================================================================
// LEDGER ROW
// =============================================================================

// LedgerRow is the decoded form of one worksheet data row.
type LedgerRow struct {
	SectionKey  string
	MeetingDate string
	Category    Category

	// SheetRow is the 1-based worksheet row number.
	SheetRow int

	DisplayName      string
	RequestedAmount  decimal.Decimal
	AccountReference string
	Note             string

	// AfterAdjustment is entered by reviewers; Valid is false while blank.
	AfterAdjustment decimal.NullDecimal

	// DecisionStatus is "Approved", "Denied" or empty.
	DecisionStatus string

	// AmendedAmount is only populated for pool-tracked rows.
	AmendedAmount decimal.NullDecimal

	FinalAmount decimal.Decimal
}

// Decided reports whether reviewers have recorded a decision for the row.
func (r LedgerRow) Decided() bool {
	return r.DecisionStatus != ""
}

// =============================================================================
// WEEK SUMMARY
// =============================================================================

// WeekSummary aggregates one section across both category sheets.
type WeekSummary struct {
	// Key identifies the section, e.g. "2026-02-01" or "2026-02-01 #2".
	Key string

	// MeetingDate is the ISO date shared by every row in the section.
	MeetingDate string

	// Sequence is 1 for the first section on a date, 2 for the second, ...
	Sequence int

	RequestCount  int
	ApprovedCount int
	DeniedCount   int
	NoStatusCount int
	PoolCount     int
	SimpleCount   int

	// PoolFinalTotal is the resolved subtotal of pool-tracked final amounts.
	PoolFinalTotal decimal.Decimal

	// RemainingBalance is the resolved pool balance after this section.
	RemainingBalance decimal.NullDecimal
}

// =============================================================================
// DECIDED ROW
// =============================================================================

// DecidedRow is a presentation-ready row for the slide compiler.
type DecidedRow struct {
	DisplayName      string
	Category         Category
	RoutingClass     RoutingClass
	Description      string
	RequestedAmount  decimal.Decimal
	FinalAmount      decimal.Decimal
	AccountReference string
	DecisionStatus   string
}

// =============================================================================
// AMOUNTS
// =============================================================================

// ParseAmount decodes a currency value such as "1,250.00", "$75" or
// "(12.50)" and rounds it to cents. Blank input gives an invalid NullDecimal.
func ParseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("not a number: %q", s)
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d.Round(2)), nil
}
