package forecast

import (
	"log"
	"math"

	"cropcast/internal/apperror"
	"cropcast/internal/models"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultAlpha        = 0.1
	DefaultL1Ratio      = 0.5
	DefaultMaxIter      = 10000
	DefaultTol          = 1e-4
	DefaultTestFraction = 0.2
)

// Engine trains a fresh model per call; it holds no state between calls.
type Engine struct {
	Alpha        float64
	L1Ratio      float64
	MaxIter      int
	Tol          float64
	TestFraction float64
	// HoldoutRows, when positive, replaces TestFraction with a fixed count.
	HoldoutRows int
}

func NewEngine(testFraction float64, holdoutRows int) *Engine {
	if testFraction < 0 || testFraction >= 1 {
		testFraction = DefaultTestFraction
	}
	return &Engine{
		Alpha:        DefaultAlpha,
		L1Ratio:      DefaultL1Ratio,
		MaxIter:      DefaultMaxIter,
		Tol:          DefaultTol,
		TestFraction: testFraction,
		HoldoutRows:  holdoutRows,
	}
}

// Forecast predicts the price one step after the last merged date and
// reports R² and RMSE on the chronological hold-out.
func (e *Engine) Forecast(weather models.WeatherSeries, prices models.PriceSeries) (*models.ForecastResult, error) {
	fs, err := BuildFeatures(Merge(weather, prices))
	if err != nil {
		return nil, err
	}

	n := len(fs.Y)
	nTest := e.testRows(n)
	nTrain := n - nTest
	if nTrain < 1 {
		return nil, apperror.MissingFeature("Not enough market prices to train a model.")
	}

	model := NewElasticNet(e.Alpha, e.L1Ratio, e.MaxIter, e.Tol)
	if err := model.Fit(fs.X[:nTrain], fs.Y[:nTrain]); err != nil {
		return nil, apperror.Internal("Failed to train the price model.", err)
	}

	testX, testY := fs.X[nTrain:], fs.Y[nTrain:]
	predicted := make([]float64, len(testY))
	for i, x := range testX {
		predicted[i] = model.Predict(x)
	}

	forecast := model.Predict(fs.Last)
	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return nil, apperror.Internal("Price model produced an invalid forecast.", nil)
	}

	result := &models.ForecastResult{
		PredictedPrice: int64(forecast),
		R2Score:        rSquared(predicted, testY),
		RMSE:           rmse(predicted, testY),
		TrainRows:      nTrain,
		TestRows:       nTest,
		TargetDate:     fs.LastDate.AddDate(0, 0, 1),
	}
	log.Printf("Trained price model on %d rows in %d sweeps, holdout %d rows, forecast %d for %s",
		nTrain, model.Iterations, nTest, result.PredictedPrice, result.TargetDate.Format(models.DateLayout))
	return result, nil
}

func (e *Engine) testRows(n int) int {
	if e.HoldoutRows > 0 {
		return e.HoldoutRows
	}
	return int(math.Ceil(e.TestFraction * float64(n)))
}

// rSquared is nil for fewer than two rows. A constant target scores 1 when
// matched exactly and 0 otherwise.
func rSquared(predicted, actual []float64) *float64 {
	if len(actual) < 2 {
		return nil
	}
	var r2 float64
	if stat.Variance(actual, nil) == 0 {
		r2 = 0
		if sumSquaredError(predicted, actual) == 0 {
			r2 = 1
		}
	} else {
		r2 = stat.RSquaredFrom(predicted, actual, nil)
	}
	return &r2
}

func rmse(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	return math.Sqrt(sumSquaredError(predicted, actual) / float64(len(actual)))
}

func sumSquaredError(predicted, actual []float64) float64 {
	sum := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum
}
