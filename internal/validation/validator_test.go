package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

func record(name, amount, account string) types.RequestRecord {
	return types.RequestRecord{
		OrganizationName: name,
		DisplayName:      name,
		Category:         types.CategoryPool,
		RequestedAmount:  decimal.RequireFromString(amount),
		AccountReference: account,
		Description:      "Supplies",
	}
}

func TestValidateAll_Clean(t *testing.T) {
	res := New(DefaultOptions()).ValidateAll([]types.RequestRecord{
		record("Acme 1", "10", "ACC-1"),
		record("Acme 2", "20", "ACC-1"),
	})
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Issues)
}

func TestValidateAll_SoftChecks(t *testing.T) {
	res := New(DefaultOptions()).ValidateAll([]types.RequestRecord{
		record("Acme", "0", "ACC-1"),
		record("Beta", "15", ""),
	})
	assert.True(t, res.IsValid, "warnings never block a merge")
	issues := res.Issues
	require.Len(t, issues, 2)

	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "nonzero", issues[0].Rule)
	assert.Equal(t, 0, issues[0].Index)

	assert.Equal(t, SeverityWarning, issues[1].Severity)
	assert.Equal(t, "account", issues[1].Field)
	assert.Equal(t, "required", issues[1].Rule)
	assert.Equal(t, "Beta", issues[1].DisplayName)
	assert.Equal(t, "[WARNING] record 2 (Beta), field 'account': missing account reference (value: '')", issues[1].Error())
}

func TestValidateAll_Errors(t *testing.T) {
	bad := record("Gamma", "-5", "ACC")
	bad.Category = "Other"

	res := New(DefaultOptions()).ValidateAll([]types.RequestRecord{record("Acme", "5", "A"), bad})
	assert.False(t, res.IsValid)
	assert.Equal(t, 2, res.ErrorCount)
	assert.Equal(t, 0, res.WarningCount)
	assert.Equal(t, 2, res.RecordsValidated)

	rules := map[string]bool{}
	for _, issue := range res.Issues {
		rules[issue.Field+"/"+issue.Rule] = true
		assert.Equal(t, 1, issue.Index)
	}
	assert.True(t, rules["category/oneof"])
	assert.True(t, rules["amount/gte"])
}

func TestValidateAll_OptionsAndDuplicates(t *testing.T) {
	v := New(Options{TreatWarningsAsErrors: true, LargeAmount: decimal.NewFromInt(1000)})
	res := v.ValidateAll([]types.RequestRecord{
		record("Acme 1", "1500", "A"),
		record("acme 1", "10", "A"),
	})

	assert.False(t, res.IsValid)
	assert.Equal(t, 0, res.ErrorCount)
	require.Equal(t, 2, res.WarningCount)
	assert.Equal(t, "large", res.Issues[0].Rule)
	assert.Equal(t, "unique", res.Issues[1].Rule)
	assert.Equal(t, 1, res.Issues[1].Index)

	lines := FormatIssues(res.Issues)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "display name repeats record 1")
}
