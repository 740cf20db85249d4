package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "AFR", cfg.Ledger.PoolSheet)
	assert.Equal(t, "Reallocation", cfg.Ledger.SimpleSheet)
	assert.Equal(t, 5000, cfg.Ledger.MaxRows)
	assert.Equal(t, ",", cfg.Intake.CSV.Delimiter)
	assert.Equal(t, 2, cfg.Intake.CSV.DataStartRow)
	assert.Equal(t, "Decided-Denied", cfg.Intake.Columns.StatusMap["rejected"])
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, Validate(cfg))
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	content := `
log_level: debug
ledger:
  pool_sheet: Pool
  starting_balance: "1500.00"
intake:
  csv:
    delimiter: "|"
    header_rows: 2
  columns:
    organization: Club
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Pool", cfg.Ledger.PoolSheet)
	assert.Equal(t, "Reallocation", cfg.Ledger.SimpleSheet)
	assert.Equal(t, "1500.00", cfg.Ledger.StartingBalance)
	assert.Equal(t, "|", cfg.Intake.CSV.Delimiter)
	assert.Equal(t, 3, cfg.Intake.CSV.DataStartRow)
	assert.Equal(t, "Club", cfg.Intake.Columns.Organization)
	assert.Equal(t, "Amount", cfg.Intake.Columns.Amount)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad log level", "log_level: loud\n", "LogLevel"},
		{"same sheet names", "ledger:\n  pool_sheet: AFR\n  simple_sheet: AFR\n", "SimpleSheet"},
		{"non-numeric balance", "ledger:\n  starting_balance: lots\n", "StartingBalance"},
		{"bad category target", "intake:\n  columns:\n    category_map:\n      club: Other\n", "CategoryMap"},
		{"bad encoding", "intake:\n  csv:\n    encoding: EBCDIC\n", "Encoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
