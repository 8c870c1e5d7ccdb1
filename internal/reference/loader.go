package reference

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cropcast/internal/models"

	"github.com/xuri/excelize/v2"
)

// Header aliases: the Korean names are the ones used by the published
// statistics tables, the English ones are accepted for hand-made files.
var (
	colCropName       = []string{"작물명", "crop_name"}
	colPeriod         = []string{"시점", "observation_period"}
	colIncome         = []string{"소득 (원)", "income"}
	colIncomeRate     = []string{"소득률 (%)", "income_rate"}
	colValueAddedRate = []string{"부가가치율 (%)", "value_added_rate"}
	colFarmGatePrice  = []string{"농가수취가격 (원/kg)", "farm_gate_price"}

	colItemName     = []string{"품목명", "crop_name"}
	colCategoryCode = []string{"부류코드", "category_code"}
	colItemCode     = []string{"품목코드", "item_code"}
)

// LoadTables reads the crop income table and the crop code table.
func LoadTables(incomePath, codePath string) (*Tables, error) {
	incomeRows, err := readRows(incomePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read crop income table: %w", err)
	}
	records, err := ParseIncomeRows(incomeRows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse crop income table: %w", err)
	}

	codeRows, err := readRows(codePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read crop code table: %w", err)
	}
	codes, err := ParseCodeRows(codeRows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse crop code table: %w", err)
	}

	log.Printf("Loaded %d crop income records and %d crop codes", len(records), len(codes))
	return NewTables(records, codes), nil
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readCSV(f)
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return f.GetRows(sheets[0])
}

type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		h[strings.TrimSpace(name)] = i
	}
	return h
}

func (h header) find(aliases []string) (int, bool) {
	for _, alias := range aliases {
		if i, ok := h[alias]; ok {
			return i, true
		}
	}
	return 0, false
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseIncomeRows converts the rows of a crop income table (header first)
// into records. Every column other than crop name, period and the three
// text columns whose non-empty cells are all numeric becomes a Metric.
func ParseIncomeRows(rows [][]string) ([]models.CropReferenceRecord, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("table has no data rows")
	}
	h := newHeader(rows[0])

	nameCol, ok := h.find(colCropName)
	if !ok {
		return nil, fmt.Errorf("missing crop name column")
	}
	periodCol, ok := h.find(colPeriod)
	if !ok {
		return nil, fmt.Errorf("missing observation period column")
	}
	incomeCol, ok := h.find(colIncome)
	if !ok {
		return nil, fmt.Errorf("missing income column")
	}
	incomeRateCol, hasIncomeRate := h.find(colIncomeRate)
	valueAddedCol, hasValueAdded := h.find(colValueAddedRate)
	farmGateCol, hasFarmGate := h.find(colFarmGatePrice)

	reserved := map[int]bool{nameCol: true, periodCol: true, incomeCol: true}
	if hasIncomeRate {
		reserved[incomeRateCol] = true
	}
	if hasValueAdded {
		reserved[valueAddedCol] = true
	}
	if hasFarmGate {
		reserved[farmGateCol] = true
	}

	var metricCols []int
	for i := range rows[0] {
		if !reserved[i] && numericColumn(rows[1:], i) {
			metricCols = append(metricCols, i)
		}
	}

	records := make([]models.CropReferenceRecord, 0, len(rows)-1)
	for line, row := range rows[1:] {
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		period, ok := parseNumber(cell(row, periodCol))
		if !ok {
			log.Printf("Skipping crop income row %d (%s): invalid period %q", line+2, name, cell(row, periodCol))
			continue
		}
		income, ok := parseNumber(cell(row, incomeCol))
		if !ok {
			log.Printf("Skipping crop income row %d (%s): invalid income %q", line+2, name, cell(row, incomeCol))
			continue
		}

		record := models.CropReferenceRecord{
			CropName: name,
			Period:   int(period),
			Income:   income,
		}
		if hasIncomeRate {
			record.IncomeRate = cell(row, incomeRateCol)
		}
		if hasValueAdded {
			record.ValueAddedRate = cell(row, valueAddedCol)
		}
		if hasFarmGate {
			record.FarmGatePrice = cell(row, farmGateCol)
		}
		for _, col := range metricCols {
			if v, ok := parseNumber(cell(row, col)); ok {
				record.Metrics = append(record.Metrics, models.Metric{Name: strings.TrimSpace(rows[0][col]), Value: v})
			}
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("table has no valid records")
	}
	return records, nil
}

func numericColumn(rows [][]string, col int) bool {
	seen := false
	for _, row := range rows {
		s := cell(row, col)
		if s == "" {
			continue
		}
		if _, ok := parseNumber(s); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// ParseCodeRows converts the rows of a crop code table (header first).
// A crop listed twice with different codes is an error.
func ParseCodeRows(rows [][]string) ([]models.CropCode, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("table has no data rows")
	}
	h := newHeader(rows[0])

	nameCol, ok := h.find(colItemName)
	if !ok {
		return nil, fmt.Errorf("missing item name column")
	}
	categoryCol, ok := h.find(colCategoryCode)
	if !ok {
		return nil, fmt.Errorf("missing category code column")
	}
	itemCol, ok := h.find(colItemCode)
	if !ok {
		return nil, fmt.Errorf("missing item code column")
	}

	seen := make(map[string]models.CropCode)
	var codes []models.CropCode
	for line, row := range rows[1:] {
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		category, okCategory := parseNumber(cell(row, categoryCol))
		item, okItem := parseNumber(cell(row, itemCol))
		if !okCategory || !okItem {
			return nil, fmt.Errorf("row %d (%s): invalid category or item code", line+2, name)
		}

		code := models.CropCode{CropName: name, CategoryCode: int(category), ItemCode: int(item)}
		if prev, dup := seen[name]; dup {
			if prev != code {
				return nil, fmt.Errorf("crop %s has conflicting codes %d/%d and %d/%d",
					name, prev.CategoryCode, prev.ItemCode, code.CategoryCode, code.ItemCode)
			}
			continue
		}
		seen[name] = code
		codes = append(codes, code)
	}
	return codes, nil
}
