package reference

import (
	"sort"

	"cropcast/internal/models"
)

// Tables is the read-only reference data shared by all requests.
type Tables struct {
	incomes map[string][]models.CropReferenceRecord
	codes   map[string]models.CropCode
}

func NewTables(records []models.CropReferenceRecord, codes []models.CropCode) *Tables {
	t := &Tables{
		incomes: make(map[string][]models.CropReferenceRecord),
		codes:   make(map[string]models.CropCode, len(codes)),
	}
	for _, r := range records {
		t.incomes[r.CropName] = append(t.incomes[r.CropName], r)
	}
	for _, c := range codes {
		t.codes[c.CropName] = c
	}
	return t
}

// Latest returns the record with the most recent observation period for the
// crop. The first such row wins when two rows share a period.
func (t *Tables) Latest(cropName string) (models.CropReferenceRecord, bool) {
	records := t.incomes[cropName]
	if len(records) == 0 {
		return models.CropReferenceRecord{}, false
	}
	latest := records[0]
	for _, r := range records[1:] {
		if r.Period > latest.Period {
			latest = r
		}
	}
	return latest, true
}

func (t *Tables) Code(cropName string) (models.CropCode, bool) {
	code, ok := t.codes[cropName]
	return code, ok
}

// CropInfo describes a crop known to the reference tables.
type CropInfo struct {
	CropName     string `json:"crop_name"`
	LatestYear   int    `json:"latest_year,omitempty"`
	HasIncome    bool   `json:"has_income"`
	Forecastable bool   `json:"forecastable"`
}

// Crops lists every crop present in either table, sorted by name.
func (t *Tables) Crops() []CropInfo {
	names := make(map[string]struct{})
	for name := range t.incomes {
		names[name] = struct{}{}
	}
	for name := range t.codes {
		names[name] = struct{}{}
	}

	out := make([]CropInfo, 0, len(names))
	for name := range names {
		info := CropInfo{CropName: name}
		if latest, ok := t.Latest(name); ok {
			info.HasIncome = true
			info.LatestYear = latest.Period
		}
		_, info.Forecastable = t.codes[name]
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CropName < out[j].CropName })
	return out
}
