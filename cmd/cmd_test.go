package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), buf.String())
	return buf.String()
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2026-02-01", "2/1/2026", "02/01/2026"} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := parseDate("Feb 1")
	require.Error(t, err)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.xlsx")
	exportPath := filepath.Join(dir, "requests.csv")
	deckPath := filepath.Join(dir, "recap.pdf")

	require.NoError(t, os.WriteFile(exportPath, []byte(
		"Organization,Request Type,Amount,Status,Routing,Account,Description\n"+
			"Chess,AFR,30,Approved,auto,ACC-3,Boards\n"+
			"Band,AFR,60,,,ACC-6,Strings\n"+
			"Film,Reallocation,25,,late,ACC-5,Projector\n",
	), 0o644))

	out := execute(t, "init", "--out", ledgerPath, "--starting-balance", "500")
	assert.Contains(t, out, "Created ledger")

	out = execute(t, "merge", "--export", exportPath, "--date", "2026-02-01", "--ledger", ledgerPath, "--in-place")
	assert.Contains(t, out, "Records merged:  2")
	assert.Contains(t, out, "excluded 1 late-arrival request(s)")

	out = execute(t, "sections", "--ledger", ledgerPath)
	assert.Contains(t, out, "2026-02-01")
	assert.Contains(t, out, "470.00")
	assert.Nil(t, closeLog, "log resources are released after each command")

	out = execute(t, "rows", "--ledger", ledgerPath, "--section", "2026-02-01")
	assert.Contains(t, out, "Chess")
	assert.Contains(t, out, "1 of 2 row(s) decided")

	out = execute(t, "deck", "--ledger", ledgerPath, "--section", "2026-02-01", "--out", deckPath)
	assert.Contains(t, out, "1 slide(s)")
	data, err := os.ReadFile(deckPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	out = execute(t, "version")
	assert.Contains(t, out, "Budget Ledger")
}
