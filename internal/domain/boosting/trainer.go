package boosting

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fit trains an ensemble on scaled rows X and targets y.
//
// The base score is mean(y). Each round fits a tree to the current residuals
// with exact greedy splits; with squared error the gradient is the negative
// residual and the hessian is 1, so a leaf holding rows R has weight
// sum(residual[R]) / (|R| + Lambda). Given the same inputs and Seed the result
// is identical across runs.
func Fit(features []string, X [][]float64, y []float64, p Params) (*Ensemble, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, ErrEmptyInput
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}
	width := len(features)
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), width)
		}
		for _, x := range row {
			if !isFinite(x) {
				return nil, fmt.Errorf("%w: row %d", ErrNonFinite, i)
			}
		}
		if !isFinite(y[i]) {
			return nil, fmt.Errorf("%w: target %d", ErrNonFinite, i)
		}
	}

	base := stat.Mean(y, nil)
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = base
	}

	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // deterministic seed for reproducible training
	b := &treeBuilder{
		x:        X,
		residual: make([]float64, len(y)),
		params:   p,
	}
	trees := make([]Tree, 0, p.NTrees)
	for round := 0; round < p.NTrees; round++ {
		for i := range y {
			b.residual[i] = y[i] - pred[i]
		}
		tree := b.fit(sampleRows(rng, len(y), p.Subsample))
		for i, row := range X {
			pred[i] += p.LearningRate * tree.Leaf(row)
		}
		trees = append(trees, tree)
	}

	return New(features, base, p.LearningRate, trees)
}

// sampleRows draws floor(n*fraction) distinct rows, at least one, in
// ascending order. A fraction of 1 returns every row without using rng.
func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	if fraction >= 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	idx := rng.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

type treeBuilder struct {
	x        [][]float64
	residual []float64
	params   Params
	nodes    []Node
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) fit(rows []int) Tree {
	b.nodes = nil
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

// grow appends the subtree for rows and returns its root index.
func (b *treeBuilder) grow(rows []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{})

	sum := 0.0
	for _, i := range rows {
		sum += b.residual[i]
	}
	leaf := Node{Leaf: true, Value: sum / (float64(len(rows)) + b.params.Lambda)}

	if depth >= b.params.MaxDepth || len(rows) < 2*b.params.MinChildSamples {
		b.nodes[id] = leaf
		return id
	}
	best, ok := b.bestSplit(rows, sum)
	if !ok {
		b.nodes[id] = leaf
		return id
	}

	var left, right []int
	for _, i := range rows {
		if b.x[i][best.feature] < best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      l,
		Right:     r,
		Gain:      best.gain,
	}
	return id
}

// bestSplit scans every feature and every boundary between distinct values.
// Ties keep the earliest feature and the smallest threshold.
func (b *treeBuilder) bestSplit(rows []int, total float64) (split, bool) {
	n := len(rows)
	lambda := b.params.Lambda
	minChild := b.params.MinChildSamples
	parent := total * total / (float64(n) + lambda)

	best := split{gain: b.params.MinSplitGain}
	found := false
	sorted := make([]int, n)
	width := len(b.x[rows[0]])

	for f := 0; f < width; f++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		left := 0.0
		for k := 1; k < n; k++ {
			left += b.residual[sorted[k-1]]
			lo, hi := b.x[sorted[k-1]][f], b.x[sorted[k]][f]
			if lo == hi || k < minChild || n-k < minChild {
				continue
			}
			right := total - left
			gain := 0.5 * (left*left/(float64(k)+lambda) +
				right*right/(float64(n-k)+lambda) - parent)
			if gain <= best.gain {
				continue
			}
			threshold := lo + (hi-lo)/2
			if threshold <= lo {
				threshold = hi
			}
			best = split{feature: f, threshold: threshold, gain: gain}
			found = true
		}
	}
	return best, found
}
