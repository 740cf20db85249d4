package ledger

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

func TestParse_RequestCountAfterMerge(t *testing.T) {
	batch := []types.RequestRecord{
		pool("Acme 1", "10"),
		pool("Acme 2", "20"),
		preApproved(pool("Snacks", "5"), types.RouteAutoCleared, "Chips"),
		pool("Beta", "30"),
	}
	res := merge(t, newLedger(t, "1000"), "2026-02-01", batch...)

	parsed, err := Parse(reupload(t, res.Document))
	require.NoError(t, err)
	require.Len(t, parsed.Sections, 1)

	s := parsed.Sections[0]
	assert.Equal(t, "2026-02-01", s.Key)
	assert.Equal(t, "2026-02-01", s.MeetingDate)
	assert.Equal(t, 1, s.Sequence)
	assert.Equal(t, len(batch), s.RequestCount)
	assert.Equal(t, 1, s.ApprovedCount)
	assert.Equal(t, 0, s.DeniedCount)
	assert.Equal(t, 3, s.NoStatusCount)
	assert.LessOrEqual(t, s.ApprovedCount+s.DeniedCount, s.RequestCount)
	assert.Equal(t, len(batch), s.PoolCount)
	assert.Zero(t, s.SimpleCount)

	assert.True(t, s.PoolFinalTotal.Equal(decimal.NewFromInt(5)))
	require.True(t, s.RemainingBalance.Valid)
	assert.True(t, s.RemainingBalance.Decimal.Equal(decimal.NewFromInt(995)))

	require.Len(t, parsed.Warnings, 1)
	assert.Contains(t, parsed.Warnings[0], "2026-02-01")
	assert.Contains(t, parsed.Warnings[0], "3 of 4")
}

func TestParse_AllPreDecidedHasNoWarnings(t *testing.T) {
	res := merge(t, newLedger(t, "1000"), "2026-02-01",
		preApproved(pool("Acme", "10"), types.RouteAutoCleared, "Pens"),
		preApproved(simple("Chess", "20"), types.RoutePreReviewed, "Boards"))

	parsed, err := Parse(reupload(t, res.Document))
	require.NoError(t, err)
	require.Len(t, parsed.Sections, 1)
	assert.Equal(t, 2, parsed.Sections[0].ApprovedCount)
	assert.Equal(t, parsed.Sections[0].RequestCount, parsed.Sections[0].ApprovedCount)
	assert.Empty(t, parsed.Warnings)
}

func TestParse_MostRecentFirst(t *testing.T) {
	res := merge(t, newLedger(t, "1000"), "2026-02-01", pool("Acme", "10"))
	res = merge(t, reupload(t, res.Document), "2026-02-08", simple("Chess", "10"))

	parsed, err := Parse(reupload(t, res.Document))
	require.NoError(t, err)

	var keys []string
	for _, s := range parsed.Sections {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"2026-02-08", "2026-02-01"}, keys)
}

func TestParse_NoSections(t *testing.T) {
	_, err := Parse(newLedger(t, "1000"))
	require.ErrorIs(t, err, ErrNoSections)
}

func TestParse_NoCategorySheets(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	doc, err := OpenBytes(buf.Bytes(), DefaultLayout())
	require.NoError(t, err)

	_, err = Parse(doc)
	require.ErrorIs(t, err, ErrStructural)
}

func TestParse_MissingSheetIsWarning(t *testing.T) {
	res := merge(t, newLedger(t, "1000"), "2026-02-01", pool("Acme", "10"))
	require.NoError(t, res.Document.file.DeleteSheet("Reallocation"))

	parsed, err := Parse(reupload(t, res.Document))
	require.NoError(t, err)
	require.Len(t, parsed.Sections, 1)

	found := false
	for _, w := range parsed.Warnings {
		if strings.Contains(w, `"Reallocation" not found`) {
			found = true
		}
	}
	assert.True(t, found, "warnings: %v", parsed.Warnings)
}

// A sheet typed by hand: cached values, a long-form marker, a lower-case
// status, a stray row above the first marker and a Total row.
func TestParse_HandEditedSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Reallocation"))

	rows := [][]interface{}{
		{"Reallocation Ledger"},
		{},
		{},
		{"Meeting Date", "Organization", "Requested", "Account", "Note", "After Adjustment", "Status", "Final Amount"},
		{nil, "Stray Org", 5},
		{"Week of February 1, 2026", "Chess", 40, "ACC-1", "Pre-Reviewed: Boards", 40, "approved", 40},
		{nil, "Drama", "1,200.00", nil, "Costumes", 1000, "DENIED", 1000},
		{nil, "Film", 15, nil, "Projector", nil, "maybe", nil},
		{"Total", nil, nil, nil, nil, nil, nil, 1040},
	}
	for i, r := range rows {
		row := r
		require.NoError(t, f.SetSheetRow("Reallocation", cell(colDate, i+1), &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	doc, err := OpenBytes(buf.Bytes(), DefaultLayout())
	require.NoError(t, err)

	parsed, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, parsed.Sections, 1)

	s := parsed.Sections[0]
	assert.Equal(t, "2026-02-01", s.Key)
	assert.Equal(t, 3, s.RequestCount)
	assert.Equal(t, 1, s.ApprovedCount)
	assert.Equal(t, 1, s.DeniedCount)
	assert.Equal(t, 1, s.NoStatusCount)
	assert.Equal(t, 3, s.SimpleCount)

	joined := strings.Join(parsed.Warnings, "\n")
	assert.Contains(t, joined, `sheet "AFR" not found`)
	assert.Contains(t, joined, "1 row(s) outside a readable section")
	assert.Contains(t, joined, `"maybe"`)
	assert.Contains(t, joined, "Film")

	rowsOut, err := LedgerRows(doc, "2/1/2026")
	require.NoError(t, err)
	require.Len(t, rowsOut, 3)
	assert.True(t, rowsOut[1].RequestedAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, types.StatusDenied, rowsOut[1].DecisionStatus)
	assert.Equal(t, 7, rowsOut[1].SheetRow)
	assert.False(t, rowsOut[2].AfterAdjustment.Valid)
}

func TestParse_UnreadableMarkerDoesNotLeak(t *testing.T) {
	res := merge(t, newLedger(t, "1000"), "2026-02-01", pool("Acme", "10"))
	res = merge(t, reupload(t, res.Document), "2026-02-08", pool("Beta", "20"), pool("Gamma", "30"))

	doc := reupload(t, res.Document)
	second := res.Sections[0].FirstRow
	require.NoError(t, doc.file.SetCellStr("AFR", cell(colDate, second), "Week of Feb 31st"))

	parsed, err := Parse(reupload(t, doc))
	require.NoError(t, err)
	require.Len(t, parsed.Sections, 1)

	s := parsed.Sections[0]
	assert.Equal(t, "2026-02-01", s.Key)
	assert.Equal(t, 1, s.RequestCount)
	require.True(t, s.RemainingBalance.Valid)
	assert.True(t, s.RemainingBalance.Decimal.Equal(decimal.NewFromInt(1000)))

	joined := strings.Join(parsed.Warnings, "\n")
	assert.Contains(t, joined, `unreadable section marker "Week of Feb 31st"`)
	assert.Contains(t, joined, "2 row(s) outside a readable section")

	rows, err := LedgerRows(reupload(t, doc), "2026-02-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].DisplayName)
}

func TestRowsForSection(t *testing.T) {
	res := merge(t, newLedger(t, "1000"), "2026-02-01",
		preApproved(pool("Snack Club", "75"), types.RouteAutoCleared, "Snacks"),
		pool("Acme", "120"),
		pool("Beta", "80"),
		simple("Chess", "40"),
	)
	doc := reupload(t, res.Document)

	// Reviewers approve Acme, deny Chess and leave Beta open.
	decide(t, doc, types.CategoryPool, 6, 6, types.StatusApproved)
	decide(t, doc, types.CategorySimple, 5, 5, types.StatusDenied)
	doc = reupload(t, doc)

	out, err := RowsForSection(doc, "2026-02-01")
	require.NoError(t, err)

	assert.Equal(t, "2026-02-01", out.Key)
	assert.Equal(t, 4, out.Total)
	assert.Equal(t, 1, out.Excluded)
	require.Len(t, out.Rows, 3)
	require.NotEmpty(t, out.Warnings)
	assert.Contains(t, out.Warnings[len(out.Warnings)-1], "1 of 4")

	snacks := out.Rows[0]
	assert.Equal(t, "Snack Club", snacks.DisplayName)
	assert.Equal(t, types.RouteAutoCleared, snacks.RoutingClass)
	assert.Equal(t, "Snacks", snacks.Description)
	assert.True(t, snacks.FinalAmount.Equal(decimal.NewFromInt(75)))

	acme := out.Rows[1]
	assert.Equal(t, "Acme", acme.DisplayName)
	assert.Equal(t, types.RouteSessionReview, acme.RoutingClass)
	assert.Equal(t, "Acme request", acme.Description)
	assert.Equal(t, types.StatusApproved, acme.DecisionStatus)
	assert.True(t, acme.FinalAmount.Equal(decimal.NewFromInt(120)))

	chess := out.Rows[2]
	assert.Equal(t, types.CategorySimple, chess.Category)
	assert.Equal(t, types.StatusDenied, chess.DecisionStatus)
	assert.True(t, chess.FinalAmount.Equal(decimal.NewFromInt(40)))
}

func TestRowsForSection_NotFound(t *testing.T) {
	res := merge(t, newLedger(t, "1000"), "2026-02-01", pool("Acme", "10"))

	_, err := RowsForSection(res.Document, "2026-03-01")
	require.ErrorIs(t, err, ErrSectionNotFound)

	_, err = RowsForSection(res.Document, "not a date")
	require.ErrorIs(t, err, ErrSectionNotFound)
}
