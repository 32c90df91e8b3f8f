package evaluator_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/taxi-pickups/internal/dataset"
	"github.com/your-org/taxi-pickups/internal/datastore"
	"github.com/your-org/taxi-pickups/internal/evaluator"
)

func TestRMSD(t *testing.T) {
	tests := []struct {
		name      string
		truth     []float64
		predicted []float64
		want      float64
	}{
		{"perfect predictions", []float64{3, 5, 2}, []float64{3, 5, 2}, 0},
		{"constant error of one", []float64{0, 0}, []float64{1, 1}, 1},
		{"symmetric under swap", []float64{1, 1}, []float64{0, 0}, 1},
		{"mixed errors", []float64{1, 2, 3}, []float64{1, 2, 6}, 1.7320508075688772},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluator.RMSD(tt.truth, tt.predicted)
			if !cmp.Equal(tt.want, got, cmpopts.EquateApprox(0.000001, 0)) {
				t.Errorf("RMSD() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMSD_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { evaluator.RMSD([]float64{1}, []float64{1, 2}) })
}

// echoModel predicts the true label, so the evaluated RMSD must be zero.
type echoModel struct{}

func (echoModel) Train(ctx context.Context) error { return nil }
func (echoModel) Predict(ctx context.Context, e datastore.Example) (float64, error) {
	return e.NumPickups, nil
}
func (echoModel) Describe() string { return "echo [test model]" }

// offByOneModel overshoots every label by exactly one.
type offByOneModel struct{}

func (offByOneModel) Train(ctx context.Context) error { return nil }
func (offByOneModel) Predict(ctx context.Context, e datastore.Example) (float64, error) {
	return e.NumPickups + 1, nil
}
func (offByOneModel) Describe() string { return "offbyone [test model]" }

func testDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	repo := datastore.NewInMemRepository()
	examples := make([]datastore.Example, 0, n)
	for i := 1; i <= n; i++ {
		examples = append(examples, datastore.Example{
			ID:            int64(i),
			StartDatetime: time.Date(2014, 1, 1, i%24, 0, 0, 0, time.UTC),
			ZoneID:        int64(i % 4),
			NumPickups:    float64(i % 6),
		})
	}
	repo.SeedExamples(examples)
	ds, err := dataset.New(repo, 0.7, int64(n))
	require.NoError(t, err)
	return ds
}

func TestEvaluate_CollectsEveryTestExample(t *testing.T) {
	ds := testDataset(t, 20)
	result, err := evaluator.New(echoModel{}, ds, zap.NewNop()).Evaluate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "echo [test model]", result.Model)
	assert.Equal(t, []int64{15, 16, 17, 18, 19, 20}, result.ExampleIDs)
	assert.Len(t, result.TrueLabels, 6)
	assert.Len(t, result.PredictedLabels, 6)
	assert.Equal(t, 0.0, result.RMSD)
	assert.NotEqual(t, result.RunID.String(), "00000000-0000-0000-0000-000000000000")
	assert.False(t, ds.HasMoreTestExamples())
}

func TestEvaluate_RMSDReflectsError(t *testing.T) {
	ds := testDataset(t, 20)
	result, err := evaluator.New(offByOneModel{}, ds, zap.NewNop()).Evaluate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.RMSD, 1e-9)
}

// failingModel errors on the third prediction.
type failingModel struct{ calls int }

func (m *failingModel) Train(ctx context.Context) error { return nil }
func (m *failingModel) Predict(ctx context.Context, e datastore.Example) (float64, error) {
	m.calls++
	if m.calls == 3 {
		return 0, assert.AnError
	}
	return 0, nil
}
func (m *failingModel) Describe() string { return "failing [test model]" }

func TestEvaluate_PredictErrorAbortsRun(t *testing.T) {
	ds := testDataset(t, 20)
	_, err := evaluator.New(&failingModel{}, ds, zap.NewNop()).Evaluate(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEvaluate_EmptyTestRegion(t *testing.T) {
	ds := testDataset(t, 20)
	// Drain the test region first; a second evaluation sees nothing and
	// reports a zero RMSD over zero examples.
	_, err := evaluator.New(echoModel{}, ds, zap.NewNop()).Evaluate(context.Background())
	require.NoError(t, err)

	result, err := evaluator.New(echoModel{}, ds, zap.NewNop()).Evaluate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.ExampleIDs)
	assert.Equal(t, 0.0, result.RMSD)
}
