// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bigmat provides read-only column-major views over numeric
// matrices that may live in memory, in a memory-mapped file or in a
// binary file read in column chunks.
//
// Every view exposes whole physical columns. Callers address a subset of
// physical rows through their own row-selection slice, so a single
// backing matrix can serve training and prediction on different rows.
//
// The binary layout shared by Mapped, ChunkFile and WriteFile is raw
// little-endian float64 values in column-major order: column j occupies
// bytes [j×rows×8, (j+1)×rows×8).
package bigmat

import (
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a read-only column-major matrix.
// Col must be safe for concurrent use by multiple goroutines.
type Matrix interface {
	// Rows returns the number of physical rows.
	Rows() int
	// Cols returns the number of columns.
	Cols() int
	// Col returns the j-th column over all physical rows.
	// The returned slice must not be modified.
	Col(j int) []float64
}

// Dense is an in-memory column-major matrix.
type Dense struct {
	rows, cols int
	data       []float64
}

// NewDense wraps data, laid out column by column, as a rows × cols matrix.
// The slice is not copied.
func NewDense(rows, cols int, data []float64) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrBadShape, "rows=%d cols=%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, errors.Wrapf(ErrBadShape, "data length %d != %d×%d", len(data), rows, cols)
	}
	return &Dense{rows: rows, cols: cols, data: data}, nil
}

// FromMatrix copies a gonum matrix into column-major storage.
func FromMatrix(m mat.Matrix) *Dense {
	r, c := m.Dims()
	data := make([]float64, r*c)
	for j := 0; j < c; j++ {
		col := data[j*r : (j+1)*r]
		for i := range col {
			col[i] = m.At(i, j)
		}
	}
	return &Dense{rows: r, cols: c, data: data}
}

func (d *Dense) Rows() int { return d.rows }

func (d *Dense) Cols() int { return d.cols }

func (d *Dense) Col(j int) []float64 {
	return d.data[j*d.rows : (j+1)*d.rows : (j+1)*d.rows]
}

// At returns the element at row i and column j. It makes Dense a gonum mat.Matrix.
func (d *Dense) At(i, j int) float64 {
	return d.data[j*d.rows+i]
}

// Dims returns the matrix dimensions.
func (d *Dense) Dims() (r, c int) {
	return d.rows, d.cols
}

// T returns the implicit transpose.
func (d *Dense) T() mat.Matrix {
	return mat.Transpose{Matrix: d}
}
