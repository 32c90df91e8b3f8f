// Package evaluator drives a trained model over the test region of a dataset
// and reports the aggregate prediction error.
package evaluator

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/taxi-pickups/internal/datastore"
	"github.com/your-org/taxi-pickups/internal/model"
)

// TestSet is the dataset capability the evaluator consumes: single-example
// iteration over the test region.
type TestSet interface {
	HasMoreTestExamples() bool
	GetTestExample(ctx context.Context) (datastore.Example, error)
}

// Result holds the outcome of one evaluation run. The label slices are
// index-aligned with ExampleIDs.
type Result struct {
	RunID           uuid.UUID
	Model           string
	ExampleIDs      []int64
	TrueLabels      []float64
	PredictedLabels []float64
	RMSD            float64
}

// Evaluator evaluates a trained model against the test region of a dataset.
type Evaluator struct {
	model   model.Model
	dataset TestSet
	logger  *zap.Logger
}

// New creates an Evaluator. A nil logger disables logging.
func New(m model.Model, ds TestSet, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{model: m, dataset: ds, logger: logger}
}

// Evaluate predicts every remaining test example and computes the RMSD of
// the predictions against the observed pickup counts. Any fetch or predict
// failure aborts the run; a half-evaluated test set has no value.
func (ev *Evaluator) Evaluate(ctx context.Context) (Result, error) {
	result := Result{
		RunID: uuid.New(),
		Model: ev.model.Describe(),
	}

	for ev.dataset.HasMoreTestExamples() {
		example, err := ev.dataset.GetTestExample(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("fetching test example: %w", err)
		}
		predicted, err := ev.model.Predict(ctx, example)
		if err != nil {
			return Result{}, fmt.Errorf("predicting test example %d: %w", example.ID, err)
		}
		result.ExampleIDs = append(result.ExampleIDs, example.ID)
		result.TrueLabels = append(result.TrueLabels, example.NumPickups)
		result.PredictedLabels = append(result.PredictedLabels, predicted)
	}

	if len(result.TrueLabels) != len(result.PredictedLabels) {
		// Internal consistency, not a user-facing error path.
		panic(fmt.Sprintf("evaluator collected %d true labels but %d predictions",
			len(result.TrueLabels), len(result.PredictedLabels)))
	}

	result.RMSD = RMSD(result.TrueLabels, result.PredictedLabels)
	return result, nil
}

// Log writes the true and predicted label sequences and the RMSD. This is a
// diagnostic surface for offline runs, not a machine-readable API.
func (r Result) Log(logger *zap.Logger) {
	logger.Info("evaluation complete",
		zap.Stringer("run_id", r.RunID),
		zap.String("model", r.Model),
		zap.Int("test_examples", len(r.TrueLabels)),
		zap.Float64s("true_num_pickups", r.TrueLabels),
		zap.Float64s("predicted_num_pickups", r.PredictedLabels),
		zap.Float64("rmsd", r.RMSD),
	)
}

// RMSD computes the root-mean-square deviation between two equal-length
// label sequences. Empty input yields 0.
func RMSD(truth, predicted []float64) float64 {
	if len(truth) != len(predicted) {
		panic(fmt.Sprintf("rmsd: length mismatch %d != %d", len(truth), len(predicted)))
	}
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for i := range truth {
		d := truth[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(truth)))
}
