package models

import (
	"encoding/json"
	"time"
)

const DateLayout = "2006-01-02"

// WeatherRow is one day of ASOS observations. Missing measures are zero.
type WeatherRow struct {
	Date          time.Time `json:"date"`
	AvgHumidity   float64   `json:"avg_humidity"`
	MinTemp       float64   `json:"min_temp"`
	MaxTemp       float64   `json:"max_temp"`
	MaxWind       float64   `json:"max_wind"`
	AvgTemp       float64   `json:"avg_temp"`
	AvgWind       float64   `json:"avg_wind"`
	Precipitation float64   `json:"precipitation"`
	OtherCode     float64   `json:"other_code"`
}

// WeatherSeries is ordered by date with at most one row per calendar day.
type WeatherSeries []WeatherRow

func (s WeatherSeries) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Date
}

func (s WeatherSeries) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

type PriceRow struct {
	Date     time.Time `json:"date"`
	ItemName string    `json:"item_name"`
	Variety  string    `json:"variety"`
	Price    float64   `json:"price"`
}

// PriceSeries holds the market prices of a single variety in upstream order.
type PriceSeries []PriceRow

// ChartPoint is one entry of the price history returned for charting.
type ChartPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

func (s PriceSeries) Chart() []ChartPoint {
	points := make([]ChartPoint, len(s))
	for i, row := range s {
		points[i] = ChartPoint{Date: row.Date.Format(DateLayout), Price: row.Price}
	}
	return points
}

func (s PriceSeries) ChartJSON() ([]byte, error) {
	return json.Marshal(s.Chart())
}

// ParseChart decodes a chart history previously produced by ChartJSON.
func ParseChart(data []byte) ([]ChartPoint, error) {
	var points []ChartPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, err
	}
	return points, nil
}
