// Package regression implements the fit/predict capabilities injected into
// the fitted pickup models. All regressors consume gonum matrices, so sparse
// and dense feature representations are interchangeable where the algorithm
// allows it.
package regression

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned by Predict before a successful Fit.
var ErrNotFitted = errors.New("regressor has not been fitted")

// Regressor is the capability a fitted model needs from its estimator.
type Regressor interface {
	// Fit learns parameters from the feature matrix and label vector. The
	// whole train set is fitted in one call; there is no incremental fit.
	Fit(x mat.Matrix, y []float64) error
	// Predict returns one estimate per row of x.
	Predict(x mat.Matrix) ([]float64, error)
}

// Coefficienter is implemented by regressors that expose per-feature weights,
// indexed like the extractor's feature-name mapping.
type Coefficienter interface {
	Coefficients() []float64
}

func checkFitArgs(x mat.Matrix, y []float64) (rows, cols int, err error) {
	rows, cols = x.Dims()
	if rows == 0 {
		return 0, 0, errors.New("cannot fit on an empty train set")
	}
	if len(y) != rows {
		return 0, 0, errors.New("label vector length does not match feature matrix rows")
	}
	return rows, cols, nil
}

func dotRow(x mat.Matrix, i int, w []float64) float64 {
	var sum float64
	for j := range w {
		if v := x.At(i, j); v != 0 {
			sum += v * w[j]
		}
	}
	return sum
}
