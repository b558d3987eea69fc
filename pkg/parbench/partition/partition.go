// Package partition splits a flat range of work items into contiguous,
// disjoint partitions for static dispatch, or streams item indices one at a
// time for pull-based dispatch.
package partition

import (
	"fmt"
	"iter"

	"github.com/jamesainslie/parbench/pkg/parbench/types"
)

// Partition is the half-open item range [Start, End) owned by one worker.
type Partition struct {
	// Index is the worker slot this partition belongs to.
	Index int
	Start int
	End   int
}

// Len returns the number of items in the partition.
func (p Partition) Len() int {
	return p.End - p.Start
}

// Empty reports whether the partition holds no items.
func (p Partition) Empty() bool {
	return p.End <= p.Start
}

func (p Partition) String() string {
	return fmt.Sprintf("#%d[%d,%d)", p.Index, p.Start, p.End)
}

// Split divides n items among w workers.
//
// Every partition but the last gets floor(n/w) items and the last absorbs
// the remainder, so sizes always sum to n. When n < w the leading
// partitions are empty and the last one holds all items.
func Split(n, w int) ([]Partition, error) {
	if w < 1 {
		return nil, fmt.Errorf("%w: worker count %d < 1", types.ErrPartition, w)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: item count %d < 0", types.ErrPartition, n)
	}

	chunk := n / w
	parts := make([]Partition, w)
	for i := range parts {
		start := i * chunk
		end := start + chunk
		if i == w-1 {
			end = n
		}
		parts[i] = Partition{Index: i, Start: start, End: end}
	}
	return parts, nil
}

// Validate checks that parts are ordered, disjoint and cover [0, n) exactly.
func Validate(parts []Partition, n int) error {
	next := 0
	for i, p := range parts {
		if p.Index != i {
			return fmt.Errorf("%w: partition %d has index %d", types.ErrPartition, i, p.Index)
		}
		if p.Start != next || p.End < p.Start {
			return fmt.Errorf("%w: partition %v does not continue at %d", types.ErrPartition, p, next)
		}
		next = p.End
	}
	if next != n {
		return fmt.Errorf("%w: partitions cover [0,%d), want [0,%d)", types.ErrPartition, next, n)
	}
	return nil
}

// Stream yields the item indices 0..n-1 in order.
func Stream(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range n {
			if !yield(i) {
				return
			}
		}
	}
}

// Items yields the item indices of p in order.
func (p Partition) Items() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := p.Start; i < p.End; i++ {
			if !yield(i) {
				return
			}
		}
	}
}
