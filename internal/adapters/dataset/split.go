package dataset

import (
	"math"
	"math/rand"
)

// Split partitions row indices 0..n-1 into train and test sets using a
// permutation seeded by seed. The test side gets ceil(n*ratio) rows and both
// sides keep at least one row.
func Split(n int, ratio float64, seed int64) (train, test []int, err error) {
	if !(ratio > 0 && ratio < 1) {
		return nil, nil, ErrInvalidRatio
	}
	nTest := int(math.Ceil(float64(n) * ratio))
	if n < 2 || nTest >= n {
		return nil, nil, ErrTooFewRows
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Take returns the rows of m selected by idx, in idx order.
func (m *Matrix) Take(idx []int) (x [][]float64, y []float64) {
	x = make([][]float64, len(idx))
	y = make([]float64, len(idx))
	for i, r := range idx {
		x[i] = m.X[r]
		y[i] = m.Y[r]
	}
	return x, y
}
