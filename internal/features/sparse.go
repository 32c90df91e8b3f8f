package features

import "gonum.org/v1/gonum/mat"

// csrMatrix is a minimal compressed-sparse-row matrix. It implements
// mat.Matrix so the regressors can consume sparse and dense feature matrices
// interchangeably. One-hot pickup features are overwhelmingly zero, so this
// keeps large train sets cheap to hold.
type csrMatrix struct {
	rows, cols int
	rowPtr     []int
	colIdx     []int
	data       []float64
}

var _ mat.Matrix = (*csrMatrix)(nil)

func (m *csrMatrix) Dims() (r, c int) { return m.rows, m.cols }

func (m *csrMatrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	for k := lo; k < hi; k++ {
		if m.colIdx[k] == j {
			return m.data[k]
		}
		if m.colIdx[k] > j {
			break
		}
	}
	return 0
}

func (m *csrMatrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored non-zero entries.
func (m *csrMatrix) NNZ() int { return len(m.data) }
