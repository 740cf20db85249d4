// =============================================================================
// Budget Ledger - Display-Name Allocator
// =============================================================================
//
// Assigns disambiguating suffixes to records that share an organization name
// within one batch, so that every row in a merged section can be told apart
// on the worksheet and on the slides.
//
// NUMBERING RULES:
//   - Names are grouped by trim + lower-case.
//   - Groups of one keep the organization name unchanged.
//   - Larger groups get " 1", " 2", ... in input order, original casing kept.
//   - Numbering restarts at 1 on every call; there is no cross-batch memory.
//
// =============================================================================

package naming

import (
	"strconv"
	"strings"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// Allocate returns a copy of records with DisplayName set.
// The input slice is not modified.
func Allocate(records []types.RequestRecord) []types.RequestRecord {
	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[groupKey(r.OrganizationName)]++
	}

	out := make([]types.RequestRecord, len(records))
	seen := make(map[string]int, len(counts))

	for i, r := range records {
		key := groupKey(r.OrganizationName)
		if counts[key] > 1 {
			seen[key]++
			r.DisplayName = r.OrganizationName + " " + strconv.Itoa(seen[key])
		} else {
			r.DisplayName = r.OrganizationName
		}
		out[i] = r
	}

	return out
}

// groupKey is the case-insensitive grouping key for an organization name.
// Empty and whitespace-only names share the key "".
func groupKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
