package boosting

import (
	"fmt"
	"math"
)

// Node is one entry of a flattened regression tree. Internal nodes send a
// vector left when v[Feature] < Threshold. Children always have a larger
// index than their parent; node 0 is the root.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Gain      float64 `json:"gain,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// Tree is a regression tree stored as a node array.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Leaf returns the leaf value v falls into. The tree must have been validated.
func (t Tree) Leaf(v []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if v[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrMalformedTree)
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			if !isFinite(n.Value) {
				return fmt.Errorf("%w: node %d has non-finite value", ErrMalformedTree, i)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrMalformedTree, i, n.Feature, width)
		}
		if !isFinite(n.Threshold) {
			return fmt.Errorf("%w: node %d has non-finite threshold", ErrMalformedTree, i)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d has children %d/%d", ErrMalformedTree, i, n.Left, n.Right)
		}
	}
	return nil
}

func (t Tree) clone() Tree {
	return Tree{Nodes: append([]Node(nil), t.Nodes...)}
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
