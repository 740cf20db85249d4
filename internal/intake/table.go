// =============================================================================
// Budget Ledger - Export Reader
// =============================================================================
//
// This module reads the request export of the upstream funding system. The
// export arrives as CSV or as an XLSX workbook, and is turned into a Table of
// header -> value rows for the normalizer.
//
// CSV FEATURES:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Multi-row headers, joined per column
//   - Configurable data start row
//   - UTF-8 (BOM tolerated), ISO-8859-1 and Windows-1252 encodings
//
// XLSX FEATURES:
//   - First worksheet, or the worksheet named in the settings
//   - Same header and data start rules as CSV
//
// =============================================================================

package intake

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/lukebrevoort/sga-finance-platform/internal/config"
)

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is a parsed export.
type Table struct {
	// Headers are the merged, cleaned column headers.
	Headers []string

	// Rows are the data rows as header -> value maps. Blank rows are dropped.
	Rows []map[string]string

	// RowNumbers holds the 1-based source row of each entry in Rows, for
	// error messages.
	RowNumbers []int

	// SourceFile is the path the table was read from, if any.
	SourceFile string
}

// =============================================================================
// READERS
// =============================================================================

// ReadExport reads an export file, choosing the format by extension.
//
// PARAMETERS:
//   - path: the export file (.csv, .tsv, .txt, .xlsx or .xlsm)
//   - settings: intake settings from the configuration
//
// RETURNS:
//   - *Table: the parsed rows
//   - error: if the file cannot be opened or parsed
func ReadExport(path string, settings config.IntakeSettings) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSXFile(path, settings)
	case ".csv", ".tsv", ".txt":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		table, err := ReadCSV(file, settings.CSV)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		table.SourceFile = path
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// ReadCSV parses CSV data from r.
func ReadCSV(r io.Reader, settings config.CSVSettings) (*Table, error) {
	decoded, err := decode(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	return buildTable(allRows, settings)
}

// readXLSXFile reads the configured worksheet of an XLSX export.
func readXLSXFile(path string, settings config.IntakeSettings) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := ReadXLSX(f, settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.SourceFile = path
	return table, nil
}

// ReadXLSX reads one worksheet of an open workbook. Cell values are read as
// displayed, so formatted currency is accepted.
func ReadXLSX(f *excelize.File, settings config.IntakeSettings) (*Table, error) {
	sheet := settings.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no worksheets")
		}
		sheet = sheets[0]
	}

	allRows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("worksheet %q is empty", sheet)
	}

	return buildTable(allRows, settings.CSV)
}

// decode wraps r with a decoder for the configured encoding.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToUpper(strings.TrimSpace(encoding)) {
	case "", "UTF-8", "UTF8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "ISO-8859-1", "LATIN1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// configureReader applies the delimiter and leniency settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Ragged rows and stray quotes are accepted.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// encoding/csv counts a tab as leading space, which would swallow empty
	// TSV cells. Values are trimmed in buildTable either way.
	reader.TrimLeadingSpace = reader.Comma != '\t'
}

// =============================================================================
// TABLE BUILDING
// =============================================================================

func buildTable(allRows [][]string, settings config.CSVSettings) (*Table, error) {
	headers, err := extractHeaders(allRows, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	start := settings.DataStartRow - 1
	if start < settings.HeaderRows {
		start = settings.HeaderRows
	}

	table := &Table{Headers: headers}
	for i := start; i < len(allRows); i++ {
		row := allRows[i]
		if isRowEmpty(row) {
			continue
		}

		values := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(row) {
				values[header] = strings.TrimSpace(row[col])
			} else {
				values[header] = ""
			}
		}
		table.Rows = append(table.Rows, values)
		table.RowNumbers = append(table.RowNumbers, i+1)
	}

	return table, nil
}

// extractHeaders merges the header rows into one header per column.
//
// Example with two header rows:
//
//	Row 1: "Request", "",       "Organization"
//	Row 2: "ID",      "Amount", ""
//	Result: "Request ID", "Amount", "Organization"
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	if settings.HeaderRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}
	if len(allRows) < settings.HeaderRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if settings.HeaderRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < settings.HeaderRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < settings.HeaderRows; row++ {
			if col < len(allRows[row]) {
				if v := strings.TrimSpace(allRows[row][col]); v != "" {
					parts = append(parts, v)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
