package matrix

import "fmt"

// Sum merges per-worker partial results by elementwise addition.
//
// Each partial must have the final result's shape. A partial only holds
// nonzero values in the rows its worker owned, and the partitions are
// disjoint, so the sum equals the single-threaded product regardless of
// summation order.
func Sum(partials ...*Matrix) (*Matrix, error) {
	if len(partials) == 0 {
		return nil, fmt.Errorf("%w: nothing to merge", ErrShape)
	}

	first := partials[0]
	for i, p := range partials[1:] {
		if !first.SameShape(p) {
			return nil, fmt.Errorf("%w: partial %d is %dx%d, want %dx%d",
				ErrShape, i+1, p.rows, p.cols, first.rows, first.cols)
		}
	}

	out := New(first.rows, first.cols)
	for _, p := range partials {
		for i, v := range p.data {
			out.data[i] += v
		}
	}
	return out, nil
}
