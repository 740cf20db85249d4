package deck

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

func decided(name string, c types.Category, status, final string) types.DecidedRow {
	return types.DecidedRow{
		DisplayName:     name,
		Category:        c,
		RoutingClass:    types.RouteSessionReview,
		Description:     "Café supplies for the spring showcase",
		RequestedAmount: decimal.RequireFromString(final),
		FinalAmount:     decimal.RequireFromString(final),
		DecisionStatus:  status,
	}
}

func TestSummarize(t *testing.T) {
	totals := Summarize([]types.DecidedRow{
		decided("Acme", types.CategoryPool, types.StatusApproved, "120"),
		decided("Beta", types.CategoryPool, types.StatusDenied, "0"),
		decided("Chess", types.CategorySimple, types.StatusApproved, "40.50"),
	})

	assert.Equal(t, 2, totals.Approved)
	assert.Equal(t, 1, totals.Denied)
	assert.True(t, totals.PoolApproved.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, "40.50", totals.SimpleApproved.StringFixed(2))
}

func TestPDFCompiler(t *testing.T) {
	rows := []types.DecidedRow{
		decided("Acme 1", types.CategoryPool, types.StatusApproved, "120"),
		decided("Chess", types.CategorySimple, types.StatusDenied, "0"),
	}
	c := NewPDFCompiler("")
	c.Now = func() time.Time { return time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC) }

	pdf, err := c.render(rows, "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, len(rows)+2, pdf.PageNo())

	out, err := c.Compile(rows, "2026-02-01")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFCompiler_NoRows(t *testing.T) {
	_, err := NewPDFCompiler("Deck").Compile(nil, "2026-02-01")
	require.ErrorIs(t, err, ErrNoRows)
}
