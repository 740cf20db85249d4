// =============================================================================
// Budget Ledger - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Every setting has a
// default, so the tool runs without a configuration file; a YAML file passed
// with --config overrides individual values.
//
// CONFIGURATION SECTIONS:
//   ledger : worksheet names, titles, starting balance, row ceiling
//   intake : how upstream exports are read and mapped to request records
//   output : where generated workbooks and decks are written
//   log_*  : logging level and optional log file
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	Ledger LedgerSettings `yaml:"ledger"`
	Intake IntakeSettings `yaml:"intake"`
	Output OutputSettings `yaml:"output"`

	// LogFile is an optional path; when set, logs are written there as well
	// as to stdout.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// LedgerSettings describes the ledger workbook layout.
type LedgerSettings struct {
	// PoolSheet is the worksheet holding pool-tracked (AFR) sections.
	PoolSheet string `yaml:"pool_sheet" validate:"required,max=31"`

	// SimpleSheet is the worksheet holding simple (Reallocation) sections.
	SimpleSheet string `yaml:"simple_sheet" validate:"required,max=31,nefield=PoolSheet"`

	PoolTitle   string `yaml:"pool_title"`
	SimpleTitle string `yaml:"simple_title"`

	// StartingBalance seeds the starting-balance cell of a new ledger.
	// Leave empty to have reviewers fill it in by hand.
	StartingBalance string `yaml:"starting_balance" validate:"omitempty,numeric"`

	// LargeAmount flags requests at or above this amount during validation.
	// Empty disables the check.
	LargeAmount string `yaml:"large_amount" validate:"omitempty,numeric"`

	// MaxRows rejects batches and sheets above this many rows.
	MaxRows int `yaml:"max_rows" validate:"gt=0"`
}

// IntakeSettings controls how upstream exports are read.
type IntakeSettings struct {
	CSV CSVSettings `yaml:"csv"`

	// Sheet is the worksheet to read from .xlsx exports.
	// Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	Columns ColumnMapping `yaml:"columns"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV exports.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" (pipe), "\t" or "tab", ";"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows; multi-row headers are joined
	// with a space per column.
	HeaderRows int `yaml:"header_rows" validate:"gte=1"`

	// DataStartRow is the 1-based row where data begins.
	DataStartRow int `yaml:"data_start_row" validate:"gtfield=HeaderRows"`

	// Encoding is the character encoding of the export.
	// Supported: "UTF-8", "ISO-8859-1", "Windows-1252"
	Encoding string `yaml:"encoding" validate:"oneof=UTF-8 ISO-8859-1 Windows-1252"`
}

// =============================================================================
// COLUMN MAPPING STRUCTURE
// =============================================================================

// ColumnMapping names the export headers that feed each record field and the
// lookup tables that translate raw values into enumerated ones. Header names
// and lookup keys are matched case-insensitively.
type ColumnMapping struct {
	ID           string `yaml:"id"`
	Organization string `yaml:"organization" validate:"required"`
	Category     string `yaml:"category" validate:"required"`
	Amount       string `yaml:"amount" validate:"required"`
	Status       string `yaml:"status"`
	Routing      string `yaml:"routing"`
	Account      string `yaml:"account"`
	Description  string `yaml:"description"`

	// CategoryMap maps raw category values to "AFR" or "Reallocation".
	CategoryMap map[string]string `yaml:"category_map" validate:"dive,oneof=AFR Reallocation"`

	// StatusMap maps raw status values to "Undecided", "Decided-Approved"
	// or "Decided-Denied".
	StatusMap map[string]string `yaml:"status_map" validate:"dive,oneof=Undecided Decided-Approved Decided-Denied"`

	// RoutingMap maps raw routing values to "Auto-Cleared", "Pre-Reviewed",
	// "Session-Review" or "Late-Arrival".
	RoutingMap map[string]string `yaml:"routing_map" validate:"dive,oneof=Auto-Cleared Pre-Reviewed Session-Review Late-Arrival"`
}

// OutputSettings controls generated file placement and naming.
type OutputSettings struct {
	// Dir is the directory for generated workbooks and decks.
	Dir string `yaml:"dir" validate:"required"`

	// NameFormat names generated files.
	// Placeholders: {uuid}, {timestamp}, {date}, {section}
	NameFormat string `yaml:"name_format" validate:"required"`

	// ArchiveDir receives a copy of a ledger before a merge overwrites it.
	// Empty disables archiving.
	ArchiveDir string `yaml:"archive_dir"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is given.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from a YAML file.
// An empty path returns Default().
func Load(path string) (*MainConfig, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the struct tags on cfg and returns a readable error listing
// every failing field.
func Validate(cfg *MainConfig) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *MainConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Ledger defaults.
	if cfg.Ledger.PoolSheet == "" {
		cfg.Ledger.PoolSheet = "AFR"
	}
	if cfg.Ledger.SimpleSheet == "" {
		cfg.Ledger.SimpleSheet = "Reallocation"
	}
	if cfg.Ledger.PoolTitle == "" {
		cfg.Ledger.PoolTitle = "AFR Budget Ledger"
	}
	if cfg.Ledger.SimpleTitle == "" {
		cfg.Ledger.SimpleTitle = "Reallocation Ledger"
	}
	if cfg.Ledger.MaxRows == 0 {
		cfg.Ledger.MaxRows = 5000
	}

	// CSV settings defaults.
	csv := &cfg.Intake.CSV
	if csv.Delimiter == "" {
		csv.Delimiter = ","
	}
	if csv.HeaderRows == 0 {
		csv.HeaderRows = 1
	}
	if csv.DataStartRow == 0 {
		csv.DataStartRow = csv.HeaderRows + 1
	}
	if csv.Encoding == "" {
		csv.Encoding = "UTF-8"
	}

	// Column mapping defaults.
	cols := &cfg.Intake.Columns
	setDefault(&cols.ID, "Request ID")
	setDefault(&cols.Organization, "Organization")
	setDefault(&cols.Category, "Request Type")
	setDefault(&cols.Amount, "Amount")
	setDefault(&cols.Status, "Status")
	setDefault(&cols.Routing, "Routing")
	setDefault(&cols.Account, "Account")
	setDefault(&cols.Description, "Description")

	if cols.CategoryMap == nil {
		cols.CategoryMap = map[string]string{
			"afr":          "AFR",
			"pool":         "AFR",
			"reallocation": "Reallocation",
			"realloc":      "Reallocation",
			"simple":       "Reallocation",
		}
	}
	if cols.StatusMap == nil {
		cols.StatusMap = map[string]string{
			"":          "Undecided",
			"pending":   "Undecided",
			"submitted": "Undecided",
			"undecided": "Undecided",
			"approved":  "Decided-Approved",
			"denied":    "Decided-Denied",
			"rejected":  "Decided-Denied",
		}
	}
	if cols.RoutingMap == nil {
		cols.RoutingMap = map[string]string{
			"":               "Session-Review",
			"auto":           "Auto-Cleared",
			"auto-cleared":   "Auto-Cleared",
			"pre-reviewed":   "Pre-Reviewed",
			"reviewed":       "Pre-Reviewed",
			"session":        "Session-Review",
			"session-review": "Session-Review",
			"late":           "Late-Arrival",
			"late-arrival":   "Late-Arrival",
		}
	}

	// Output defaults.
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./output"
	}
	if cfg.Output.NameFormat == "" {
		cfg.Output.NameFormat = "{section}_{timestamp}"
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
