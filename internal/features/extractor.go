// Package features turns raw pickup examples into numeric feature vectors.
//
// The extractor one-hot encodes the spatial zone and the hour-of-day bucket of
// each example against a vocabulary established during training. Extraction at
// inference time reuses the trained vocabulary and never grows it.
package features

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/your-org/taxi-pickups/internal/datastore"
)

// ErrNotFitted is returned when vectorizing in reuse mode before any
// vocabulary has been fitted.
var ErrNotFitted = errors.New("feature vocabulary has not been fitted")

// Extractor converts batches of examples into feature matrices. A single
// extractor instance is bound to one model: its vocabulary is fitted once
// during training and reused for every prediction.
type Extractor struct {
	// sparse selects the matrix representation. The decision tree regressor
	// needs dense input; the linear family works on either.
	sparse bool
	vocab  map[string]int
}

// NewExtractor creates an Extractor. sparse selects a compressed sparse row
// representation for the returned matrices instead of a dense one.
func NewExtractor(sparse bool) *Extractor {
	return &Extractor{sparse: sparse}
}

// Vectorize turns examples into a feature matrix with one row per example.
// With fitVocabulary set, previously unseen feature names are added to the
// vocabulary; otherwise unseen features are dropped and the matrix width is
// fixed at the fitted vocabulary size.
func (e *Extractor) Vectorize(examples []datastore.Example, fitVocabulary bool) (mat.Matrix, error) {
	if fitVocabulary {
		if e.vocab == nil {
			e.vocab = make(map[string]int)
		}
		for _, ex := range examples {
			for _, name := range featureNames(ex) {
				if _, ok := e.vocab[name]; !ok {
					e.vocab[name] = len(e.vocab)
				}
			}
		}
	} else if e.vocab == nil {
		return nil, ErrNotFitted
	}

	rows := len(examples)
	cols := len(e.vocab)
	if rows == 0 {
		return nil, errors.New("no examples to vectorize")
	}
	if cols == 0 {
		return nil, errors.New("feature vocabulary is empty")
	}

	if e.sparse {
		return e.vectorizeSparse(examples, rows, cols), nil
	}

	dense := mat.NewDense(rows, cols, nil)
	for i, ex := range examples {
		for _, name := range featureNames(ex) {
			if j, ok := e.vocab[name]; ok {
				dense.Set(i, j, 1)
			}
		}
	}
	return dense, nil
}

func (e *Extractor) vectorizeSparse(examples []datastore.Example, rows, cols int) *csrMatrix {
	m := &csrMatrix{
		rows:   rows,
		cols:   cols,
		rowPtr: make([]int, 1, rows+1),
	}
	for _, ex := range examples {
		var indices []int
		for _, name := range featureNames(ex) {
			if j, ok := e.vocab[name]; ok {
				indices = append(indices, j)
			}
		}
		sort.Ints(indices)
		for _, j := range indices {
			m.colIdx = append(m.colIdx, j)
			m.data = append(m.data, 1)
		}
		m.rowPtr = append(m.rowPtr, len(m.colIdx))
	}
	return m
}

// FeatureNameIndices returns the fitted feature-name-to-column mapping. The
// map is shared, not copied; callers must not mutate it.
func (e *Extractor) FeatureNameIndices() map[string]int {
	return e.vocab
}

func featureNames(ex datastore.Example) []string {
	return []string{
		fmt.Sprintf("zone_id=%d", ex.ZoneID),
		fmt.Sprintf("hour=%d", ex.Hour()),
	}
}
