package reference

import (
	"os"
	"path/filepath"
	"testing"

	"cropcast/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const incomeCSV = "\ufeff작물명,시점,소득 (원),소득률 (%),부가가치율 (%),농가수취가격 (원/kg),총수입 (원),경영비 (원),비고\n" +
	"감자,2021,1000000,40.1,55.2,900,2500000,1500000,노지\n" +
	"감자,2022,1210000,42.3,57.0,950,2700000,1490000,노지\n" +
	"배추,2022,\"3,025,000\",38.0,50.1,450,6000000,,노지\n"

const codeCSV = "품목명,부류코드,품목코드\n" +
	"감자,100,152\n" +
	"배추,200,211\n" +
	"감자,100,152\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func metricNames(metrics []models.Metric) []string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.Name
	}
	return names
}

func TestLoadTablesFromCSV(t *testing.T) {
	tables, err := LoadTables(writeFile(t, "income.csv", incomeCSV), writeFile(t, "codes.csv", codeCSV))
	require.NoError(t, err)

	latest, ok := tables.Latest("감자")
	require.True(t, ok)
	assert.Equal(t, 2022, latest.Period)
	assert.Equal(t, 1210000.0, latest.Income)
	assert.Equal(t, "42.3", latest.IncomeRate)
	assert.Equal(t, "950", latest.FarmGatePrice)
	require.Len(t, latest.Metrics, 2)
	assert.Equal(t, "총수입 (원)", latest.Metrics[0].Name)
	assert.Equal(t, 2700000.0, latest.Metrics[0].Value)

	cabbage, ok := tables.Latest("배추")
	require.True(t, ok)
	assert.Equal(t, 3025000.0, cabbage.Income)
	assert.Len(t, cabbage.Metrics, 1, "empty cells are left out")

	code, ok := tables.Code("배추")
	require.True(t, ok)
	assert.Equal(t, 200, code.CategoryCode)
	assert.Equal(t, 211, code.ItemCode)

	_, ok = tables.Latest("고구마")
	assert.False(t, ok)
}

func TestParseCodeRowsRejectsConflicts(t *testing.T) {
	_, err := ParseCodeRows([][]string{
		{"품목명", "부류코드", "품목코드"},
		{"감자", "100", "152"},
		{"감자", "100", "153"},
	})
	assert.ErrorContains(t, err, "conflicting codes")
}

func TestParseIncomeRowsRequiresColumns(t *testing.T) {
	_, err := ParseIncomeRows([][]string{{"작물명", "시점"}, {"감자", "2022"}})
	assert.ErrorContains(t, err, "income")
}

func TestLoadTablesFromXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "income.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"crop_name", "observation_period", "income", "yield"},
		{"potato", 2023, 605000, 3100},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tables, err := LoadTables(path, writeFile(t, "codes.csv", "crop_name,category_code,item_code\npotato,100,152\n"))
	require.NoError(t, err)

	latest, ok := tables.Latest("potato")
	require.True(t, ok)
	assert.Equal(t, 605000.0, latest.Income)
	assert.Equal(t, []string{"yield"}, metricNames(latest.Metrics))

	crops := tables.Crops()
	require.Len(t, crops, 1)
	assert.True(t, crops[0].Forecastable)
	assert.Equal(t, 2023, crops[0].LatestYear)
}
