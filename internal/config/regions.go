package config

import (
	"fmt"
	"os"

	"cropcast/internal/models"

	"gopkg.in/yaml.v3"
)

// Regions is the closed set of supported regions, in display order.
type Regions struct {
	list   []models.Region
	byName map[string]models.Region
}

// DefaultRegions returns the built-in region table.
func DefaultRegions() *Regions {
	r, _ := NewRegions([]models.Region{
		{Name: "서울", MarketCountryCode: "1101", WeatherStationID: "108"},
		{Name: "부산", MarketCountryCode: "2100", WeatherStationID: "159"},
		{Name: "대구", MarketCountryCode: "2200", WeatherStationID: "143"},
		{Name: "광주", MarketCountryCode: "2401", WeatherStationID: "156"},
		{Name: "대전", MarketCountryCode: "2501", WeatherStationID: "133"},
	})
	return r
}

func NewRegions(list []models.Region) (*Regions, error) {
	r := &Regions{byName: make(map[string]models.Region, len(list))}
	for _, region := range list {
		if region.Name == "" || region.MarketCountryCode == "" || region.WeatherStationID == "" {
			return nil, fmt.Errorf("region %q is missing a name or code", region.Name)
		}
		if _, dup := r.byName[region.Name]; dup {
			return nil, fmt.Errorf("region %q is defined twice", region.Name)
		}
		r.byName[region.Name] = region
		r.list = append(r.list, region)
	}
	if len(r.list) == 0 {
		return nil, fmt.Errorf("region table is empty")
	}
	return r, nil
}

// LoadRegions reads a YAML region table, falling back to the defaults when
// path is empty.
//
//	regions:
//	  - name: 서울
//	    market_country_code: "1101"
//	    weather_station_id: "108"
func LoadRegions(path string) (*Regions, error) {
	if path == "" {
		return DefaultRegions(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions file: %w", err)
	}
	var doc struct {
		Regions []models.Region `yaml:"regions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse regions file: %w", err)
	}
	return NewRegions(doc.Regions)
}

func (r *Regions) Lookup(name string) (models.Region, bool) {
	region, ok := r.byName[name]
	return region, ok
}

func (r *Regions) List() []models.Region {
	out := make([]models.Region, len(r.list))
	copy(out, r.list)
	return out
}
