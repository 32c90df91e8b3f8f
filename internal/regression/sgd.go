package regression

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// SGDRegressor fits a linear model with stochastic gradient descent on a
// squared loss, using an inverse-scaling learning rate eta0 / t^power.
type SGDRegressor struct {
	// Epochs is the number of full passes over the train set. Convergence
	// without regularization takes many passes.
	Epochs int
	// Eta0 is the initial learning rate. A higher-than-usual rate converges
	// faster on the one-hot pickup features.
	Eta0 float64
	// Power is the inverse-scaling exponent of the learning rate schedule.
	Power float64
	// Alpha is the L2 regularization strength. Zero disables regularization,
	// which works better on this data.
	Alpha float64
	// Seed fixes the per-epoch shuffle order.
	Seed int64

	weights   []float64
	intercept float64
}

// NewSGDRegressor returns an SGDRegressor with the harness defaults.
func NewSGDRegressor() *SGDRegressor {
	return &SGDRegressor{
		Epochs: 1000,
		Eta0:   0.1,
		Power:  0.1,
		Alpha:  0,
		Seed:   42,
	}
}

// Fit learns weights and intercept from x and y.
func (r *SGDRegressor) Fit(x mat.Matrix, y []float64) error {
	rows, cols, err := checkFitArgs(x, y)
	if err != nil {
		return err
	}

	w := make([]float64, cols)
	var b float64
	rng := rand.New(rand.NewSource(r.Seed))
	t := 1

	for epoch := 0; epoch < r.Epochs; epoch++ {
		for _, i := range rng.Perm(rows) {
			eta := r.Eta0 / math.Pow(float64(t), r.Power)
			grad := dotRow(x, i, w) + b - y[i]
			for j := range w {
				if v := x.At(i, j); v != 0 {
					w[j] -= eta * grad * v
				}
				if r.Alpha > 0 {
					w[j] -= eta * r.Alpha * w[j]
				}
			}
			b -= eta * grad
			t++
		}
	}

	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sgd diverged: non-finite weights (eta0=%v)", r.Eta0)
		}
	}

	r.weights = w
	r.intercept = b
	return nil
}

// Predict returns one estimate per row of x.
func (r *SGDRegressor) Predict(x mat.Matrix) ([]float64, error) {
	if r.weights == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(r.weights) {
		return nil, fmt.Errorf("feature matrix has %d columns, model was fitted with %d", cols, len(r.weights))
	}
	out := make([]float64, rows)
	for i := range out {
		out[i] = dotRow(x, i, r.weights) + r.intercept
	}
	return out, nil
}

// Coefficients returns a copy of the fitted per-feature weights.
func (r *SGDRegressor) Coefficients() []float64 {
	if r.weights == nil {
		return nil
	}
	out := make([]float64, len(r.weights))
	copy(out, r.weights)
	return out
}
