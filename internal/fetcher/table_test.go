package fetcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	return createTestWorkbook(t, map[string][][]string{sheetName: rows}, sheetName)
}

// createTestWorkbook writes the named sheets in order.
func createTestWorkbook(t *testing.T, sheets map[string][][]string, order ...string) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range order {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range sheets[name] {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("rules.csv"))
	assert.Equal(t, FormatXLSX, DetectFormat("rules.XLSX"))
	assert.Equal(t, FormatCSV, DetectFormat("rules"))
}

func TestReadCSV_Ragged(t *testing.T) {
	input := "id,r1,r2\nquestion_00,A-x,\nquestion_01\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"question_00", "A-x", ""}, rows[1])
	assert.Equal(t, []string{"question_01"}, rows[2])
}

func TestReadCSV_Delimiter(t *testing.T) {
	input := "id;rule\nquestion_00;Size-small, medium\n"
	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{Delimiter: ';'})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"question_00", "Size-small, medium"}, rows[1])
}

func TestReadCSV_BadQuote(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,\"b\nc"), CSVOptions{})
	assert.Error(t, err)
}

func TestReadTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,rule\nquestion_00,Size-small\n"), 0o644))

	rows, err := ReadTable(path, TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "rule"}, {"question_00", "Size-small"}}, rows)
}

func TestReadTable_XLSX(t *testing.T) {
	path := createTestXLSX(t, "Rules", [][]string{
		{"id", "rule1", "rule2"},
		{"question_00", "Size-small or medium", "Model-B2B"},
	})

	rows, err := ReadTable(path, TableOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"question_00", "Size-small or medium", "Model-B2B"}, rows[1])
}

func TestReadTable_Missing(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"), TableOptions{})
	assert.Error(t, err)

	_, err = ReadTable(filepath.Join(t.TempDir(), "nope.xlsx"), TableOptions{})
	assert.Error(t, err)
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	path := createTestWorkbook(t, map[string][][]string{
		"Notes": {{"draft"}},
		"Rules": {{"id"}, {"question_00"}},
	}, "Notes", "Rules")

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"draft"}}, rows)

	rows, err = ReadXLSX(path, XLSXOptions{SheetName: "Rules"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id"}, {"question_00"}}, rows)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Other" not found`)
}

func TestReadTable_Options(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id\trule\nquestion_00\tSize-small, medium\n"), 0o644))

	rows, err := ReadTable(csvPath, TableOptions{Delimiter: '\t'})
	require.NoError(t, err)
	assert.Equal(t, []string{"question_00", "Size-small, medium"}, rows[1])

	xlsxPath := createTestWorkbook(t, map[string][][]string{
		"Notes": {{"draft"}},
		"Rules": {{"id", "rule1"}, {"question_00", "Model-B2B"}},
	}, "Notes", "Rules")

	rows, err = ReadTable(xlsxPath, TableOptions{Sheet: "Rules"})
	require.NoError(t, err)
	assert.Equal(t, []string{"question_00", "Model-B2B"}, rows[1])
}
