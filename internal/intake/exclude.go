package intake

import (
	"fmt"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

// Exclusions counts records dropped before the ledger.
type Exclusions struct {
	Denied int
	Late   int
}

// Total is the number of excluded records.
func (e Exclusions) Total() int {
	return e.Denied + e.Late
}

// Messages returns one caller-visible line per non-zero count.
func (e Exclusions) Messages() []string {
	var msgs []string
	if e.Denied > 0 {
		msgs = append(msgs, fmt.Sprintf("excluded %d denied request(s)", e.Denied))
	}
	if e.Late > 0 {
		msgs = append(msgs, fmt.Sprintf("excluded %d late-arrival request(s)", e.Late))
	}
	return msgs
}

// Exclude drops records that must not reach the ledger: requests already
// denied upstream and late arrivals. A denied late arrival counts as denied.
// Kept records that were not approved upstream are reset to Undecided.
func Exclude(records []types.RequestRecord) ([]types.RequestRecord, Exclusions) {
	var ex Exclusions
	kept := make([]types.RequestRecord, 0, len(records))

	for _, r := range records {
		switch {
		case r.LifecycleState == types.StateDenied:
			ex.Denied++
		case r.RoutingClass == types.RouteLateArrival:
			ex.Late++
		default:
			if !r.PreApproved() {
				r.LifecycleState = types.StateUndecided
			}
			kept = append(kept, r)
		}
	}

	return kept, ex
}
