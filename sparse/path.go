// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse implements the append-only compressed sparse column
// matrix used to store a regularization path: one column per penalty
// level, one row per predictor, mostly zero.
package sparse

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Path is a rows × cols matrix in compressed sparse column form.
// Columns can only be appended; a finished column is never modified.
type Path struct {
	rows   int
	colPtr []int // cols+1 offsets into rowIdx/val
	rowIdx []int
	val    []float64
}

// NewPath creates an empty path for the given number of predictors.
func NewPath(rows int) *Path {
	return &Path{rows: rows, colPtr: []int{0}}
}

// Rows returns the number of predictors.
func (p *Path) Rows() int { return p.rows }

// Cols returns the number of appended columns.
func (p *Path) Cols() int { return len(p.colPtr) - 1 }

// Dims returns the matrix dimensions.
func (p *Path) Dims() (r, c int) { return p.rows, p.Cols() }

// Append stores the nonzero entries of the dense column.
func (p *Path) Append(col []float64) {
	if len(col) != p.rows {
		panic(fmt.Sprintf("sparse: column length %d != %d", len(col), p.rows))
	}
	for i, v := range col {
		if v != 0 {
			p.rowIdx = append(p.rowIdx, i)
			p.val = append(p.val, v)
		}
	}
	p.colPtr = append(p.colPtr, len(p.rowIdx))
}

// AppendZero stores an all-zero column.
func (p *Path) AppendZero() {
	p.colPtr = append(p.colPtr, len(p.rowIdx))
}

// NonZero returns the row indices and values of column l in ascending row order.
// The slices alias internal storage.
func (p *Path) NonZero(l int) (idx []int, val []float64) {
	lo, hi := p.colPtr[l], p.colPtr[l+1]
	return p.rowIdx[lo:hi:hi], p.val[lo:hi:hi]
}

// NNZ returns the number of nonzero entries in column l.
func (p *Path) NNZ(l int) int {
	return p.colPtr[l+1] - p.colPtr[l]
}

// At returns the element at row i and column l.
func (p *Path) At(i, l int) float64 {
	if i < 0 || i >= p.rows {
		panic(mat.ErrRowAccess)
	}
	idx, val := p.NonZero(l)
	k := sort.SearchInts(idx, i)
	if k < len(idx) && idx[k] == i {
		return val[k]
	}
	return 0
}

// T returns the implicit transpose.
func (p *Path) T() mat.Matrix {
	return mat.Transpose{Matrix: p}
}

// Column writes column l into dst, allocating when dst is too short.
func (p *Path) Column(l int, dst []float64) []float64 {
	if len(dst) < p.rows {
		dst = make([]float64, p.rows)
	}
	dst = dst[:p.rows]
	clear(dst)
	idx, val := p.NonZero(l)
	for k, i := range idx {
		dst[i] = val[k]
	}
	return dst
}

// Dense expands the path into a gonum dense matrix.
func (p *Path) Dense() *mat.Dense {
	d := mat.NewDense(p.rows, max(p.Cols(), 1), nil)
	for l := 0; l < p.Cols(); l++ {
		idx, val := p.NonZero(l)
		for k, i := range idx {
			d.Set(i, l, val[k])
		}
	}
	return d
}

// Scaled returns a copy whose row i is multiplied by w[i].
func (p *Path) Scaled(w []float64) *Path {
	q := &Path{
		rows:   p.rows,
		colPtr: append([]int(nil), p.colPtr...),
		rowIdx: append([]int(nil), p.rowIdx...),
		val:    make([]float64, len(p.val)),
	}
	for k, i := range p.rowIdx {
		q.val[k] = p.val[k] * w[i]
	}
	return q
}
