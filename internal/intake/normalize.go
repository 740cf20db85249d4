package intake

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lukebrevoort/sga-finance-platform/internal/config"
	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// ErrMissingColumn is returned when a required column is absent from the
// export headers.
var ErrMissingColumn = errors.New("missing column")

// RowError reports an export row that could not become a request record.
type RowError struct {
	// Row is the 1-based row in the export file.
	Row   int
	Field string
	Value string
	Msg   string
}

func (e *RowError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Msg)
	}
	return fmt.Sprintf("row %d: %s %q: %s", e.Row, e.Field, e.Value, e.Msg)
}

// Result is the output of Normalize.
type Result struct {
	Records  []types.RequestRecord
	Warnings []string
	Errors   []error
}

// Normalize maps export rows to request records.
//
// Category, status and routing values are translated through the lookup
// tables of mapping (matched case-insensitively); the enumerated values
// themselves are always accepted. Rows with an empty organization, an unknown
// category or an unreadable amount are reported in Errors and left out.
// Unknown status and routing values fall back to Undecided and Session-Review
// with a warning.
func Normalize(table *Table, mapping config.ColumnMapping) (*Result, error) {
	cols, err := resolveColumns(table.Headers, mapping)
	if err != nil {
		return nil, err
	}

	categories := lowerKeys(mapping.CategoryMap)
	statuses := lowerKeys(mapping.StatusMap)
	routes := lowerKeys(mapping.RoutingMap)

	result := &Result{}
	for i, row := range table.Rows {
		line := i + 1
		if i < len(table.RowNumbers) {
			line = table.RowNumbers[i]
		}
		get := func(header string) string {
			if header == "" {
				return ""
			}
			return strings.TrimSpace(row[header])
		}

		rec := types.RequestRecord{
			ID:               get(cols.id),
			OrganizationName: get(cols.org),
			AccountReference: get(cols.account),
			Description:      get(cols.description),
		}

		if rec.OrganizationName == "" {
			result.Errors = append(result.Errors, &RowError{Row: line, Field: "organization", Msg: "empty"})
			continue
		}

		rawCategory := get(cols.category)
		category, ok := lookupCategory(rawCategory, categories)
		if !ok {
			result.Errors = append(result.Errors, &RowError{Row: line, Field: "category", Value: rawCategory, Msg: "unknown request type"})
			continue
		}
		rec.Category = category

		rawAmount := get(cols.amount)
		amount, err := types.ParseAmount(rawAmount)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, &RowError{Row: line, Field: "amount", Value: rawAmount, Msg: "not a number"})
			continue
		case !amount.Valid:
			result.Errors = append(result.Errors, &RowError{Row: line, Field: "amount", Msg: "empty"})
			continue
		case amount.Decimal.IsNegative():
			result.Errors = append(result.Errors, &RowError{Row: line, Field: "amount", Value: rawAmount, Msg: "negative"})
			continue
		}
		rec.RequestedAmount = amount.Decimal

		rawStatus := get(cols.status)
		state, ok := lookupState(rawStatus, statuses)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d (%s): unknown status %q treated as %s", line, rec.OrganizationName, rawStatus, types.StateUndecided))
		}
		rec.LifecycleState = state

		rawRoute := get(cols.routing)
		route, ok := lookupRoute(rawRoute, routes)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d (%s): unknown routing %q treated as %s", line, rec.OrganizationName, rawRoute, types.RouteSessionReview))
		}
		rec.RoutingClass = route

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// =============================================================================
// COLUMN RESOLUTION
// =============================================================================

type columns struct {
	id, org, category, amount, status, routing, account, description string
}

// resolveColumns matches the configured headers against the table headers,
// ignoring case. Organization, category and amount are required; the rest
// resolve to "" when absent.
func resolveColumns(headers []string, mapping config.ColumnMapping) (columns, error) {
	byLower := make(map[string]string, len(headers))
	for _, h := range headers {
		byLower[strings.ToLower(strings.TrimSpace(h))] = h
	}
	find := func(name string) string {
		return byLower[strings.ToLower(strings.TrimSpace(name))]
	}

	cols := columns{
		id:          find(mapping.ID),
		org:         find(mapping.Organization),
		category:    find(mapping.Category),
		amount:      find(mapping.Amount),
		status:      find(mapping.Status),
		routing:     find(mapping.Routing),
		account:     find(mapping.Account),
		description: find(mapping.Description),
	}

	var missing []string
	for name, got := range map[string]string{
		mapping.Organization: cols.org,
		mapping.Category:     cols.category,
		mapping.Amount:       cols.amount,
	} {
		if got == "" {
			missing = append(missing, fmt.Sprintf("%q", name))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return columns{}, fmt.Errorf("%w: %s (headers: %s)", ErrMissingColumn, strings.Join(missing, ", "), strings.Join(headers, ", "))
	}

	return cols, nil
}

// =============================================================================
// VALUE LOOKUPS
// =============================================================================

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func lookupCategory(raw string, table map[string]string) (types.Category, bool) {
	key := strings.ToLower(raw)
	if v, ok := table[key]; ok {
		return types.Category(v), types.Category(v).Valid()
	}
	for _, c := range []types.Category{types.CategoryPool, types.CategorySimple} {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}

func lookupState(raw string, table map[string]string) (types.LifecycleState, bool) {
	key := strings.ToLower(raw)
	if v, ok := table[key]; ok {
		return types.LifecycleState(v), true
	}
	for _, s := range []types.LifecycleState{types.StateUndecided, types.StateApproved, types.StateDenied} {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	if raw == "" {
		return types.StateUndecided, true
	}
	return types.StateUndecided, false
}

func lookupRoute(raw string, table map[string]string) (types.RoutingClass, bool) {
	key := strings.ToLower(raw)
	if v, ok := table[key]; ok {
		return types.RoutingClass(v), true
	}
	for _, r := range types.KnownRoutingTags() {
		if strings.EqualFold(raw, string(r)) {
			return r, true
		}
	}
	if raw == "" {
		return types.RouteSessionReview, true
	}
	return types.RouteSessionReview, false
}
