package regression

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// LinearSVR fits a linear support vector regressor by subgradient descent on
// the epsilon-insensitive loss. The penalty C scales inversely with the L2
// regularization: a very large C means the model is all but unregularized,
// which is what keeps it from underfitting the pickup counts.
//
// LinearSVR deliberately does not expose per-feature coefficients; diagnostics
// that need them are skipped for this variant.
type LinearSVR struct {
	// C is the error penalty. Regularization strength is 1/C.
	C float64
	// Epsilon is the width of the insensitive tube around the target.
	Epsilon float64
	// Epochs is the number of full passes over the train set.
	Epochs int
	// Eta0 and Power define the inverse-scaling learning rate schedule.
	Eta0  float64
	Power float64
	// Seed fixes the per-epoch shuffle order.
	Seed int64

	weights   []float64
	intercept float64
}

// NewLinearSVR returns a LinearSVR with the harness defaults.
func NewLinearSVR() *LinearSVR {
	return &LinearSVR{
		C:       1e7,
		Epsilon: 0.1,
		Epochs:  1000,
		Eta0:    0.1,
		Power:   0.1,
		Seed:    42,
	}
}

// Fit learns weights and intercept from x and y.
func (r *LinearSVR) Fit(x mat.Matrix, y []float64) error {
	rows, cols, err := checkFitArgs(x, y)
	if err != nil {
		return err
	}
	if r.C <= 0 {
		return fmt.Errorf("penalty C must be positive, got %v", r.C)
	}

	lambda := 1 / r.C
	w := make([]float64, cols)
	var b float64
	rng := rand.New(rand.NewSource(r.Seed))
	t := 1

	for epoch := 0; epoch < r.Epochs; epoch++ {
		for _, i := range rng.Perm(rows) {
			eta := r.Eta0 / math.Pow(float64(t), r.Power)
			residual := dotRow(x, i, w) + b - y[i]

			// Inside the tube only the regularizer pulls on the weights.
			var g float64
			switch {
			case residual > r.Epsilon:
				g = 1
			case residual < -r.Epsilon:
				g = -1
			}

			for j := range w {
				w[j] -= eta * lambda * w[j]
				if g != 0 {
					if v := x.At(i, j); v != 0 {
						w[j] -= eta * g * v
					}
				}
			}
			if g != 0 {
				b -= eta * g
			}
			t++
		}
	}

	r.weights = w
	r.intercept = b
	return nil
}

// Predict returns one estimate per row of x.
func (r *LinearSVR) Predict(x mat.Matrix) ([]float64, error) {
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
