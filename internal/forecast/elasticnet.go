package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ElasticNet is a linear model fitted by cyclic coordinate descent on
//
//	1/(2n)·‖y − Xw − b‖² + α·ρ·‖w‖₁ + ½·α·(1−ρ)·‖w‖²
//
// with the intercept b recovered from the column means.
type ElasticNet struct {
	Alpha   float64
	L1Ratio float64
	MaxIter int
	Tol     float64

	Coef       []float64
	Intercept  float64
	Iterations int
}

func NewElasticNet(alpha, l1Ratio float64, maxIter int, tol float64) *ElasticNet {
	return &ElasticNet{Alpha: alpha, L1Ratio: l1Ratio, MaxIter: maxIter, Tol: tol}
}

// Fit estimates the coefficients from the row-major matrix X and targets y.
func (m *ElasticNet) Fit(X [][]float64, y []float64) error {
	n := len(y)
	if n == 0 || len(X) != n {
		return fmt.Errorf("elastic net: %d rows for %d targets", len(X), n)
	}
	p := len(X[0])

	yMean := floats.Sum(y) / float64(n)
	yc := make([]float64, n)
	copy(yc, y)
	floats.AddConst(-yMean, yc)

	// Centered columns.
	cols := make([][]float64, p)
	means := make([]float64, p)
	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			if len(X[i]) != p {
				return fmt.Errorf("elastic net: row %d has %d features, want %d", i, len(X[i]), p)
			}
			col[i] = X[i][j]
		}
		means[j] = floats.Sum(col) / float64(n)
		floats.AddConst(-means[j], col)
		cols[j] = col
		norms[j] = floats.Dot(col, col)
	}

	l1 := float64(n) * m.Alpha * m.L1Ratio
	l2 := float64(n) * m.Alpha * (1 - m.L1Ratio)

	w := make([]float64, p)
	residual := yc
	m.Iterations = 0
	for iter := 0; iter < m.MaxIter; iter++ {
		m.Iterations = iter + 1
		maxDelta, maxW := 0.0, 0.0
		for j := 0; j < p; j++ {
			if norms[j] == 0 {
				continue
			}
			old := w[j]
			rho := floats.Dot(cols[j], residual) + norms[j]*old
			w[j] = softThreshold(rho, l1) / (norms[j] + l2)
			if delta := w[j] - old; delta != 0 {
				floats.AddScaled(residual, -delta, cols[j])
				maxDelta = math.Max(maxDelta, math.Abs(delta))
			}
			maxW = math.Max(maxW, math.Abs(w[j]))
		}
		if maxW == 0 || maxDelta <= m.Tol*maxW {
			break
		}
	}

	m.Coef = w
	m.Intercept = yMean - floats.Dot(means, w)
	return nil
}

func (m *ElasticNet) Predict(x []float64) float64 {
	return floats.Dot(m.Coef, x) + m.Intercept
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}
