package csvwriter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/taxi-pickups/internal/evaluator"
)

func TestResultWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w, err := NewResultWriter(path, zap.NewNop())
	require.NoError(t, err)

	result := evaluator.Result{
		RunID:           uuid.New(),
		Model:           "baseline [baseline version 1]",
		ExampleIDs:      []int64{15, 16, 17},
		TrueLabels:      []float64{3, 5, 2},
		PredictedLabels: []float64{3, 4.5, 0},
		RMSD:            0.5,
	}
	require.NoError(t, w.WriteResult(result))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"example_id", "true_num_pickups", "predicted_num_pickups"}, records[0])
	assert.Equal(t, []string{"15", "3", "3"}, records[1])
	assert.Equal(t, []string{"16", "5", "4.5"}, records[2])
	assert.Equal(t, []string{"17", "2", "0"}, records[3])
}

func TestNewResultWriter_BadPath(t *testing.T) {
	_, err := NewResultWriter(filepath.Join(t.TempDir(), "missing", "results.csv"), zap.NewNop())
	assert.Error(t, err)
}
