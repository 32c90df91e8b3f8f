package regression

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DecisionTreeRegressor is a CART regression tree minimizing within-node
// squared error. Depth and leaf-size limits control over/under-fitting and
// should track the train set size.
//
// The tree reads every cell of the feature matrix while fitting, so it wants
// a dense representation.
type DecisionTreeRegressor struct {
	// MaxDepth bounds the tree depth. Zero or negative means unbounded.
	MaxDepth int
	// MinSamplesLeaf is the minimum number of samples each leaf must keep.
	MinSamplesLeaf int

	root *treeNode
}

// NewDecisionTreeRegressor returns a DecisionTreeRegressor with the harness
// defaults.
func NewDecisionTreeRegressor() *DecisionTreeRegressor {
	return &DecisionTreeRegressor{
		MaxDepth:       50,
		MinSamplesLeaf: 2,
	}
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// Fit builds the tree from x and y.
func (r *DecisionTreeRegressor) Fit(x mat.Matrix, y []float64) error {
	rows, _, err := checkFitArgs(x, y)
	if err != nil {
		return err
	}
	if r.MinSamplesLeaf < 1 {
		return fmt.Errorf("min samples per leaf must be at least 1, got %d", r.MinSamplesLeaf)
	}

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	r.root = r.build(x, y, indices, 0)
	return nil
}

func (r *DecisionTreeRegressor) build(x mat.Matrix, y []float64, indices []int, depth int) *treeNode {
	node := &treeNode{value: meanAt(y, indices), leaf: true}
	if r.MaxDepth > 0 && depth >= r.MaxDepth {
		return node
	}
	if len(indices) < 2*r.MinSamplesLeaf {
		return node
	}

	feature, threshold, ok := r.bestSplit(x, y, indices)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range indices {
		if x.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = r.build(x, y, left, depth+1)
	node.right = r.build(x, y, right, depth+1)
	return node
}

// bestSplit scans every feature for the threshold that minimizes the summed
// squared error of the two children. Prefix sums over the sorted samples make
// each candidate split O(1) to score.
func (r *DecisionTreeRegressor) bestSplit(x mat.Matrix, y []float64, indices []int) (feature int, threshold float64, ok bool) {
	_, cols := x.Dims()
	n := len(indices)

	parentSSE := sseAt(y, indices)
	best := parentSSE

	type sample struct {
		v float64
		y float64
	}
	samples := make([]sample, n)

	for j := 0; j < cols; j++ {
		for k, i := range indices {
			samples[k] = sample{v: x.At(i, j), y: y[i]}
		}
		sort.Slice(samples, func(a, b int) bool { return samples[a].v < samples[b].v })

		var leftSum, leftSumSq float64
		totalSum, totalSumSq := 0.0, 0.0
		for _, s := range samples {
			totalSum += s.y
			totalSumSq += s.y * s.y
		}

		for k := 0; k < n-1; k++ {
			leftSum += samples[k].y
			leftSumSq += samples[k].y * samples[k].y

			// Splits are only valid between distinct feature values.
			if samples[k].v == samples[k+1].v {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < r.MinSamplesLeaf || nr < r.MinSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSumSq := totalSumSq - leftSumSq
			sse := (leftSumSq - leftSum*leftSum/float64(nl)) +
				(rightSumSq - rightSum*rightSum/float64(nr))

			if sse < best {
				best = sse
				feature = j
				threshold = (samples[k].v + samples[k+1].v) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// Predict returns one estimate per row of x.
func (r *DecisionTreeRegressor) Predict(x mat.Matrix) ([]float64, error) {
	if r.root == nil {
		return nil, ErrNotFitted
	}
	rows, _ := x.Dims()
	out := make([]float64, rows)
	for i := range out {
		node := r.root
		for !node.leaf {
			if x.At(i, node.feature) <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		out[i] = node.value
	}
	return out, nil
}

func meanAt(y []float64, indices []int) float64 {
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

func sseAt(y []float64, indices []int) float64 {
	m := meanAt(y, indices)
	var sse float64
	for _, i := range indices {
		d := y[i] - m
		sse += d * d
	}
	return sse
}
