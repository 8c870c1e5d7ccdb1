package forecast

import (
	"math"
	"time"

	"cropcast/internal/apperror"
)

const (
	maxLag      = 7
	shortWindow = 7
	longWindow  = 30
)

// FeatureNames lists the model inputs in column order.
var FeatureNames = []string{
	"avg_humidity", "min_temp", "max_temp", "max_wind", "avg_temp", "avg_wind", "precipitation", "other_code",
	"year", "month", "day",
	"month_sin", "month_cos", "day_sin", "day_cos",
	"price_lag_1", "price_lag_2", "price_lag_3", "price_lag_4", "price_lag_5", "price_lag_6", "price_lag_7",
	"price_ma_7", "price_ma_30",
	"temp_diff",
}

// FeatureSet is the supervised table built from a merged series. X and Y
// hold only rows whose next-step target is defined; Last is the feature row
// of the final merged date, used for the forecast.
type FeatureSet struct {
	X        [][]float64
	Y        []float64
	Dates    []time.Time
	Last     []float64
	LastDate time.Time
}

// BuildFeatures forward-fills the price, shifts it one step ahead as the
// target and derives the feature columns. Undefined features are zero.
func BuildFeatures(merged MergedSeries) (*FeatureSet, error) {
	if merged.PriceCount() == 0 {
		return nil, apperror.MissingFeature("No market price overlaps the weather window.")
	}

	n := len(merged)
	filled := make([]float64, n)
	defined := make([]bool, n)
	for i, row := range merged {
		switch {
		case row.HasPrice:
			filled[i], defined[i] = row.Price, true
		case i > 0:
			filled[i], defined[i] = filled[i-1], defined[i-1]
		}
	}

	fs := &FeatureSet{}
	for i, row := range merged {
		x := featureRow(merged, filled, defined, i)
		if i == n-1 {
			fs.Last = x
			fs.LastDate = row.Date
		}
		if i+1 < n && defined[i+1] {
			fs.X = append(fs.X, x)
			fs.Y = append(fs.Y, filled[i+1])
			fs.Dates = append(fs.Dates, row.Date)
		}
	}

	if len(fs.Y) == 0 {
		return nil, apperror.MissingFeature("Not enough market prices to build a training set.")
	}
	return fs, nil
}

func featureRow(merged MergedSeries, filled []float64, defined []bool, i int) []float64 {
	row := merged[i]
	month := float64(row.Date.Month())
	day := float64(row.Date.Day())

	x := make([]float64, 0, len(FeatureNames))
	x = append(x,
		row.AvgHumidity, row.MinTemp, row.MaxTemp, row.MaxWind,
		row.AvgTemp, row.AvgWind, row.Precipitation, row.OtherCode,
		float64(row.Date.Year()), month, day,
		math.Sin(2*math.Pi*month/12), math.Cos(2*math.Pi*month/12),
		math.Sin(2*math.Pi*day/31), math.Cos(2*math.Pi*day/31),
	)
	for lag := 1; lag <= maxLag; lag++ {
		if j := i - lag; j >= 0 && defined[j] {
			x = append(x, filled[j])
		} else {
			x = append(x, 0)
		}
	}
	x = append(x, movingAverage(filled, defined, i, shortWindow), movingAverage(filled, defined, i, longWindow))
	x = append(x, row.MaxTemp-row.MinTemp)
	return x
}

// movingAverage is the trailing mean over window rows ending at i, or zero
// unless every row in the window has a price.
func movingAverage(filled []float64, defined []bool, i, window int) float64 {
	start := i - window + 1
	if start < 0 {
		return 0
	}
	sum := 0.0
	for j := start; j <= i; j++ {
		if !defined[j] {
			return 0
		}
		sum += filled[j]
	}
	return sum / float64(window)
}
