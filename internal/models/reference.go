package models

// Metric is a numeric column of the crop income table other than income.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// CropReferenceRecord is one row of the crop income table. The rate and
// farm gate price columns are kept as the text found in the table.
type CropReferenceRecord struct {
	CropName       string   `json:"crop_name"`
	Period         int      `json:"observation_period"`
	Income         float64  `json:"income"`
	IncomeRate     string   `json:"income_rate"`
	ValueAddedRate string   `json:"value_added_rate"`
	FarmGatePrice  string   `json:"farm_gate_price"`
	Metrics        []Metric `json:"metrics"`
}

type CropCode struct {
	CropName     string `json:"crop_name"`
	CategoryCode int    `json:"category_code"`
	ItemCode     int    `json:"item_code"`
}

type Region struct {
	Name              string `json:"name" yaml:"name"`
	MarketCountryCode string `json:"market_country_code" yaml:"market_country_code"`
	WeatherStationID  string `json:"weather_station_id" yaml:"weather_station_id"`
}

// AdjustedIncome is a crop's latest reference record scaled to the
// requested land area and crop ratio.
type AdjustedIncome struct {
	CropName string              `json:"crop_name"`
	Year     int                 `json:"latest_year"`
	Income   int64               `json:"income"`
	Record   CropReferenceRecord `json:"adjusted_data"`
}
