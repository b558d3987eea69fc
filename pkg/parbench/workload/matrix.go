package workload

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/jamesainslie/parbench/pkg/parbench/matrix"
	"github.com/jamesainslie/parbench/pkg/parbench/partition"
)

// Fill selects how matrix inputs are initialized.
type Fill string

const (
	// FillOnes sets every input entry to 1, so every result entry equals size.
	FillOnes Fill = "ones"

	// FillRandom draws inputs from a seeded PRNG.
	FillRandom Fill = "random"
)

// MatrixOptions configures the matrix-multiply workload.
type MatrixOptions struct {
	Size int
	Fill Fill
	Seed uint64
}

// Matrix multiplies two Size×Size matrices; one work item per result row.
//
// In streaming mode each item writes its row straight into the result,
// which is safe because rows are disjoint. In static mode each partition
// writes into a private full-size partial that Merge sums.
type Matrix struct {
	opts MatrixOptions

	a, b     *matrix.Matrix
	result   *matrix.Matrix
	partials []*matrix.Matrix
}

var (
	_ Streamer = (*Matrix)(nil)
	_ Reducer  = (*Matrix)(nil)
)

// NewMatrix returns a matrix workload. Inputs are built by Prepare.
func NewMatrix(opts MatrixOptions) *Matrix {
	if opts.Fill == "" {
		opts.Fill = FillOnes
	}
	return &Matrix{opts: opts}
}

// Name implements Workload.
func (m *Matrix) Name() string {
	return fmt.Sprintf("matrix %dx%d", m.opts.Size, m.opts.Size)
}

// Prepare allocates the inputs, the result and one partial slot per worker.
func (m *Matrix) Prepare(_ context.Context, workers int) error {
	size := m.opts.Size
	if size < 0 {
		return fmt.Errorf("matrix size %d < 0", size)
	}

	switch m.opts.Fill {
	case FillOnes:
		m.a = matrix.Filled(size, size, 1)
		m.b = matrix.Filled(size, size, 1)
	case FillRandom:
		r := rand.New(rand.NewPCG(m.opts.Seed, m.opts.Seed^0x9e3779b97f4a7c15))
		m.a = matrix.Random(size, size, r)
		m.b = matrix.Random(size, size, r)
	default:
		return fmt.Errorf("unknown matrix fill %q", m.opts.Fill)
	}

	m.result = matrix.New(size, size)
	m.partials = make([]*matrix.Matrix, max(workers, 1))

	logger.Debug("matrix inputs ready", "size", size, "fill", m.opts.Fill, "bytes", 3*m.a.Bytes())
	return nil
}

// Len implements Workload.
func (m *Matrix) Len() int {
	return m.opts.Size
}

// Process computes result row i directly into the shared result.
func (m *Matrix) Process(i int) error {
	matrix.MultiplyRows(m.a, m.b, i, i+1, m.result)
	return nil
}

// ProcessPartition computes the rows of p into a partial owned by p's worker.
func (m *Matrix) ProcessPartition(p partition.Partition, onItem func() error) error {
	if p.Empty() {
		return nil
	}
	if p.Index < 0 || p.Index >= len(m.partials) {
		return fmt.Errorf("partition %v outside %d prepared slots", p, len(m.partials))
	}

	partial := matrix.New(m.opts.Size, m.opts.Size)
	m.partials[p.Index] = partial

	for i := range p.Items() {
		matrix.MultiplyRows(m.a, m.b, i, i+1, partial)
		if err := onItem(); err != nil {
			return err
		}
	}
	return nil
}

// Merge sums the partials into the result. A streaming run has no
// partials and Merge is a no-op.
func (m *Matrix) Merge() error {
	var used []*matrix.Matrix
	for _, p := range m.partials {
		if p != nil {
			used = append(used, p)
		}
	}
	if len(used) == 0 {
		return nil
	}

	merged, err := matrix.Sum(used...)
	if err != nil {
		return err
	}
	m.result = merged
	m.partials = nil
	return nil
}

// Result returns the product. Valid after the run (and Merge in static mode).
func (m *Matrix) Result() *matrix.Matrix {
	return m.result
}

// Verify recomputes the product on one goroutine and compares.
func (m *Matrix) Verify() error {
	want, err := matrix.Multiply(m.a, m.b)
	if err != nil {
		return err
	}
	if !m.result.Equal(want, 1e-9*float64(max(m.opts.Size, 1))) {
		return fmt.Errorf("parallel product differs from reference product")
	}
	return nil
}
