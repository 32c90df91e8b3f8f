package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/your-org/taxi-pickups/internal/datastore"
)

func example(id, zone int64, hour int) datastore.Example {
	return datastore.Example{
		ID:            id,
		StartDatetime: time.Date(2014, 1, 1, hour, 30, 0, 0, time.UTC),
		ZoneID:        zone,
	}
}

func TestVectorize_FitsVocabularyAndEncodesOneHot(t *testing.T) {
	e := NewExtractor(false)
	examples := []datastore.Example{
		example(1, 100, 8),
		example(2, 200, 8),
		example(3, 100, 9),
	}

	x, err := e.Vectorize(examples, true)
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 3, rows)
	// zone_id=100, zone_id=200, hour=8, hour=9
	assert.Equal(t, 4, cols)

	indices := e.FeatureNameIndices()
	require.Contains(t, indices, "zone_id=100")
	require.Contains(t, indices, "zone_id=200")
	require.Contains(t, indices, "hour=8")
	require.Contains(t, indices, "hour=9")

	// Each row has exactly its zone and hour set.
	for i, ex := range examples {
		var sum float64
		for j := 0; j < cols; j++ {
			sum += x.At(i, j)
		}
		assert.Equal(t, 2.0, sum, "row %d", i)
		assert.Equal(t, 1.0, x.At(i, indices[featureNames(ex)[0]]))
		assert.Equal(t, 1.0, x.At(i, indices[featureNames(ex)[1]]))
	}
}

func TestVectorize_ReuseModeDropsUnknownFeatures(t *testing.T) {
	e := NewExtractor(false)
	_, err := e.Vectorize([]datastore.Example{example(1, 100, 8)}, true)
	require.NoError(t, err)
	fittedSize := len(e.FeatureNameIndices())

	// A test example from an unseen zone and hour maps to nothing; the
	// vocabulary must never grow at inference time.
	x, err := e.Vectorize([]datastore.Example{example(2, 999, 23)}, false)
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 1, rows)
	assert.Equal(t, fittedSize, cols)
	assert.Equal(t, fittedSize, len(e.FeatureNameIndices()))
	for j := 0; j < cols; j++ {
		assert.Equal(t, 0.0, x.At(0, j))
	}
}

func TestVectorize_ReuseBeforeFit(t *testing.T) {
	e := NewExtractor(false)
	_, err := e.Vectorize([]datastore.Example{example(1, 100, 8)}, false)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestVectorize_EmptyInput(t *testing.T) {
	e := NewExtractor(false)
	_, err := e.Vectorize(nil, true)
	assert.Error(t, err)
}

func TestVectorize_SparseMatchesDense(t *testing.T) {
	examples := []datastore.Example{
		example(1, 100, 8),
		example(2, 200, 9),
		example(3, 100, 10),
		example(4, 300, 8),
	}

	dense := NewExtractor(false)
	sparse := NewExtractor(true)

	xd, err := dense.Vectorize(examples, true)
	require.NoError(t, err)
	xs, err := sparse.Vectorize(examples, true)
	require.NoError(t, err)

	require.Equal(t, dense.FeatureNameIndices(), sparse.FeatureNameIndices())
	assert.True(t, mat.Equal(xd, xs), "sparse and dense encodings differ")

	csr, ok := xs.(*csrMatrix)
	require.True(t, ok)
	assert.Equal(t, 8, csr.NNZ())
}

func TestCSRMatrix_Transpose(t *testing.T) {
	e := NewExtractor(true)
	x, err := e.Vectorize([]datastore.Example{example(1, 100, 8), example(2, 200, 9)}, true)
	require.NoError(t, err)

	xt := x.T()
	r, c := x.Dims()
	tr, tc := xt.Dims()
	assert.Equal(t, r, tc)
	assert.Equal(t, c, tr)
	assert.Equal(t, x.At(1, 2), xt.At(2, 1))
}
