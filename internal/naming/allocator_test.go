package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

func recs(names ...string) []types.RequestRecord {
	out := make([]types.RequestRecord, len(names))
	for i, n := range names {
		out[i] = types.RequestRecord{ID: n, OrganizationName: n}
	}
	return out
}

func displayNames(records []types.RequestRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.DisplayName
	}
	return out
}

func TestAllocate_UniqueNamesUnchanged(t *testing.T) {
	in := recs("Chess Club", "Robotics", "Dance Team")
	got := Allocate(in)
	for i, r := range got {
		assert.Equal(t, r.OrganizationName, r.DisplayName, "record %d", i)
	}
}

func TestAllocate_CaseInsensitiveNumbering(t *testing.T) {
	got := Allocate(recs("Acme", "acme", "Beta"))
	assert.Equal(t, []string{"Acme 1", "acme 2", "Beta"}, displayNames(got))
}

func TestAllocate_InputOrderAndTrim(t *testing.T) {
	got := Allocate(recs("Beta", " Acme ", "Gamma", "ACME", "Beta"))
	assert.Equal(t, []string{"Beta 1", " Acme  1", "Gamma", "ACME 2", "Beta 2"}, displayNames(got))
}

func TestAllocate_EmptyNamesGroupTogether(t *testing.T) {
	got := Allocate(recs("", "  ", "Solo"))
	assert.Equal(t, []string{" 1", "   2", "Solo"}, displayNames(got))
}

func TestAllocate_NonDestructive(t *testing.T) {
	in := recs("Acme", "Acme")
	_ = Allocate(in)
	assert.Empty(t, in[0].DisplayName)
	assert.Empty(t, in[1].DisplayName)
}

func TestAllocate_NoCrossBatchMemory(t *testing.T) {
	first := Allocate(recs("Acme", "Acme"))
	second := Allocate(recs("Acme", "Acme"))
	require.Len(t, second, 2)
	assert.Equal(t, displayNames(first), displayNames(second))
	assert.Equal(t, "Acme 1", second[0].DisplayName)
}

func TestAllocate_Empty(t *testing.T) {
	assert.Empty(t, Allocate(nil))
}
