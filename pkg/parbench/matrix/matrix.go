// Package matrix provides the dense float64 matrices used by the
// matrix-multiply workload and the elementwise-sum merge of per-worker
// partial results.
package matrix

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrShape is returned when matrix dimensions do not line up.
var ErrShape = errors.New("matrix shape mismatch")

// Matrix is a dense row-major matrix.
type Matrix struct {
	rows, cols int
	data       []float64
}

// New returns a rows×cols zero matrix.
func New(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Filled returns a rows×cols matrix with every entry set to v.
func Filled(rows, cols int, v float64) *Matrix {
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = v
	}
	return m
}

// Random returns a rows×cols matrix of values in [-1, 1) drawn from r.
func Random(rows, cols int, r *rand.Rand) *Matrix {
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = r.Float64()*2 - 1
	}
	return m
}

// Rows returns the row count.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Matrix) Cols() int { return m.cols }

// At returns the entry at (i, j).
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set sets the entry at (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Row returns row i as a slice aliasing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// SameShape reports whether m and o have equal dimensions.
func (m *Matrix) SameShape(o *Matrix) bool {
	return m.rows == o.rows && m.cols == o.cols
}

// Equal reports whether every entry of m and o differs by at most tol.
func (m *Matrix) Equal(o *Matrix, tol float64) bool {
	if !m.SameShape(o) {
		return false
	}
	for i, v := range m.data {
		d := v - o.data[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}

// Bytes returns the size of the backing storage in bytes.
func (m *Matrix) Bytes() int64 {
	return int64(len(m.data)) * 8
}

// MultiplyRows adds rows [start, end) of a×b into dst. a and b are only
// read, so any number of goroutines may share them. dst must be zero in
// those rows for the result to equal the product.
func MultiplyRows(a, b *Matrix, start, end int, dst *Matrix) {
	n := a.cols
	for i := start; i < end; i++ {
		out := dst.Row(i)
		arow := a.Row(i)
		for k := range n {
			aik := arow[k]
			if aik == 0 {
				continue
			}
			brow := b.Row(k)
			for j, bkj := range brow {
				out[j] += aik * bkj
			}
		}
	}
}

// CheckMultiply verifies that a×b is defined and dst can hold it.
func CheckMultiply(a, b, dst *Matrix) error {
	if a.cols != b.rows {
		return fmt.Errorf("%w: %dx%d times %dx%d", ErrShape, a.rows, a.cols, b.rows, b.cols)
	}
	if dst.rows != a.rows || dst.cols != b.cols {
		return fmt.Errorf("%w: result is %dx%d, want %dx%d", ErrShape, dst.rows, dst.cols, a.rows, b.cols)
	}
	return nil
}

// Multiply returns a×b computed on the calling goroutine. It is the
// reference the parallel result is checked against.
func Multiply(a, b *Matrix) (*Matrix, error) {
	dst := New(a.rows, b.cols)
	if err := CheckMultiply(a, b, dst); err != nil {
		return nil, err
	}
	MultiplyRows(a, b, 0, a.rows, dst)
	return dst, nil
}
