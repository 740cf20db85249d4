package intake

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/lukebrevoort/sga-finance-platform/internal/config"
	"github.com/lukebrevoort/sga-finance-platform/internal/types"
)

const sampleCSV = `Request ID,Organization,Request Type,Amount,Status,Routing,Account,Description
R1,Acme,AFR,"$1,200.00",Pending,,ACC-1,Speaker fee
R2,acme,AFR,80,Approved,auto,ACC-1,Snacks
,,,,,,,
R3,Chess Club,realloc,40,,,ACC-2,Boards
R4,Drama,AFR,15,Rejected,,,Costumes
R5,Film,AFR,abc,,,,Projector
R6,Band,Grant,10,,,,Strings
`

func defaults() config.IntakeSettings {
	return config.Default().Intake
}

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV), defaults().CSV)
	require.NoError(t, err)

	assert.Equal(t, "Request ID", table.Headers[0])
	require.Len(t, table.Rows, 6)
	assert.Equal(t, []int{2, 3, 5, 6, 7, 8}, table.RowNumbers)
	assert.Equal(t, "$1,200.00", table.Rows[0]["Amount"])
	assert.Equal(t, "Chess Club", table.Rows[2]["Organization"])
}

func TestReadCSV_DelimitersAndHeaders(t *testing.T) {
	data := "Request|Org|\nID|Name|Amount\nR1|Acme|10\n"
	settings := config.CSVSettings{Delimiter: "pipe", HeaderRows: 2, DataStartRow: 3, Encoding: "UTF-8"}

	table, err := ReadCSV(strings.NewReader(data), settings)
	require.NoError(t, err)
	assert.Equal(t, []string{"Request ID", "Org Name", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Acme", table.Rows[0]["Org Name"])

	tabbed, err := ReadCSV(strings.NewReader("a\t\tc\n1\t2\t3\n"), config.CSVSettings{Delimiter: "tab", HeaderRows: 1, DataStartRow: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Column_2", "c"}, tabbed.Headers)
	assert.Equal(t, "2", tabbed.Rows[0]["Column_2"])
}

func TestReadCSV_TabKeepsEmptyCells(t *testing.T) {
	data := "Organization\tAccount\tRequest Type\tAmount\nAcme\t\tAFR\t10\n"
	settings := defaults().CSV
	settings.Delimiter = "tab"

	table, err := ReadCSV(strings.NewReader(data), settings)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0]["Account"])
	assert.Equal(t, "AFR", table.Rows[0]["Request Type"])
	assert.Equal(t, "10", table.Rows[0]["Amount"])

	res, err := Normalize(table, defaults().Columns)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Records, 1)
	assert.Equal(t, types.CategoryPool, res.Records[0].Category)
	assert.True(t, res.Records[0].RequestedAmount.Equal(decimal.NewFromInt(10)))
}

func TestReadCSV_Encodings(t *testing.T) {
	latin, err := charmap.Windows1252.NewEncoder().String("Organization,Amount\nCafé Club,5\n")
	require.NoError(t, err)

	settings := defaults().CSV
	settings.Encoding = "Windows-1252"
	table, err := ReadCSV(strings.NewReader(latin), settings)
	require.NoError(t, err)
	assert.Equal(t, "Café Club", table.Rows[0]["Organization"])

	bom := "\uFEFFOrganization,Amount\nAcme,5\n"
	table, err = ReadCSV(strings.NewReader(bom), defaults().CSV)
	require.NoError(t, err)
	assert.Equal(t, "Organization", table.Headers[0])

	settings.Encoding = "EBCDIC"
	_, err = ReadCSV(strings.NewReader(bom), settings)
	require.Error(t, err)
}

func TestReadExport_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Organization", "Request Type", "Amount"},
		{"Acme", "AFR", 25.5},
		{"Chess", "Reallocation", 10},
	}
	for i, r := range rows {
		row := r
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := ReadExport(path, defaults())
	require.NoError(t, err)
	assert.Equal(t, path, table.SourceFile)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "25.5", table.Rows[0]["Amount"])

	res, err := Normalize(table, defaults().Columns)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, types.CategorySimple, res.Records[1].Category)
}

func TestReadExport_CSVFileAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	table, err := ReadExport(path, defaults())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 6)

	_, err = ReadExport(filepath.Join(dir, "export.json"), defaults())
	require.Error(t, err)
	_, err = ReadExport(filepath.Join(dir, "missing.csv"), defaults())
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV), defaults().CSV)
	require.NoError(t, err)

	res, err := Normalize(table, defaults().Columns)
	require.NoError(t, err)

	require.Len(t, res.Records, 4)
	acme := res.Records[0]
	assert.Equal(t, "R1", acme.ID)
	assert.Equal(t, "Acme", acme.OrganizationName)
	assert.Equal(t, types.CategoryPool, acme.Category)
	assert.True(t, acme.RequestedAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, types.StateUndecided, acme.LifecycleState)
	assert.Equal(t, types.RouteSessionReview, acme.RoutingClass)
	assert.Equal(t, "ACC-1", acme.AccountReference)
	assert.Equal(t, "Speaker fee", acme.Description)

	assert.Equal(t, types.StateApproved, res.Records[1].LifecycleState)
	assert.Equal(t, types.RouteAutoCleared, res.Records[1].RoutingClass)
	assert.Equal(t, types.CategorySimple, res.Records[2].Category)
	assert.Equal(t, types.StateDenied, res.Records[3].LifecycleState)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, `row 7: amount "abc": not a number`, res.Errors[0].Error())
	var rowErr *RowError
	require.ErrorAs(t, res.Errors[1], &rowErr)
	assert.Equal(t, 8, rowErr.Row)
	assert.Equal(t, "category", rowErr.Field)
	assert.Empty(t, res.Warnings)
}

func TestNormalize_WarningsAndMissingColumns(t *testing.T) {
	data := "Organization,Request Type,Amount,Status,Routing\nAcme,AFR,5,Tabled,by fax\n,AFR,5,,\n"
	table, err := ReadCSV(strings.NewReader(data), defaults().CSV)
	require.NoError(t, err)

	res, err := Normalize(table, defaults().Columns)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, types.StateUndecided, res.Records[0].LifecycleState)
	assert.Equal(t, types.RouteSessionReview, res.Records[0].RoutingClass)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], `"Tabled"`)
	assert.Contains(t, res.Warnings[1], `"by fax"`)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "organization")

	missing, err := ReadCSV(strings.NewReader("Org,Amount\nAcme,5\n"), defaults().CSV)
	require.NoError(t, err)
	_, err = Normalize(missing, defaults().Columns)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), `"Organization"`)
	assert.Contains(t, err.Error(), `"Request Type"`)
}

func TestExclude(t *testing.T) {
	var batch []types.RequestRecord
	for i := 0; i < 10; i++ {
		batch = append(batch, types.RequestRecord{
			OrganizationName: string(rune('A' + i)),
			Category:         types.CategoryPool,
			LifecycleState:   types.StateUndecided,
			RoutingClass:     types.RouteSessionReview,
		})
	}
	batch[1].LifecycleState = types.StateDenied
	batch[4].LifecycleState = types.StateDenied
	batch[7].RoutingClass = types.RouteLateArrival
	batch[9].LifecycleState = types.StateApproved
	batch[9].RoutingClass = types.RouteAutoCleared

	kept, ex := Exclude(batch)

	assert.Len(t, kept, 7)
	assert.Equal(t, Exclusions{Denied: 2, Late: 1}, ex)
	assert.Equal(t, 3, ex.Total())
	assert.Equal(t, []string{
		"excluded 2 denied request(s)",
		"excluded 1 late-arrival request(s)",
	}, ex.Messages())
	assert.Equal(t, types.StateApproved, kept[6].LifecycleState)

	// Input is untouched.
	assert.Equal(t, types.StateDenied, batch[1].LifecycleState)

	_, none := Exclude(kept)
	assert.Empty(t, none.Messages())
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(bytes.NewReader(nil), defaults().CSV)
	require.Error(t, err)
}
