package forecast

import (
	"time"

	"cropcast/internal/models"
)

// MergedRow is one weather day joined with at most one price observation.
type MergedRow struct {
	models.WeatherRow
	Price    float64
	HasPrice bool
}

type MergedSeries []MergedRow

// Merge left-joins weather with prices on date. Days without a price keep
// HasPrice false; a date with several prices yields one row per price, in
// the order the prices were given.
func Merge(weather models.WeatherSeries, prices models.PriceSeries) MergedSeries {
	byDate := make(map[time.Time][]float64, len(prices))
	for _, p := range prices {
		byDate[p.Date] = append(byDate[p.Date], p.Price)
	}

	merged := make(MergedSeries, 0, len(weather))
	for _, w := range weather {
		matches := byDate[w.Date]
		if len(matches) == 0 {
			merged = append(merged, MergedRow{WeatherRow: w})
			continue
		}
		for _, price := range matches {
			merged = append(merged, MergedRow{WeatherRow: w, Price: price, HasPrice: true})
		}
	}
	return merged
}

// PriceCount returns the number of rows carrying an observed price.
func (m MergedSeries) PriceCount() int {
	n := 0
	for _, row := range m {
		if row.HasPrice {
			n++
		}
	}
	return n
}
