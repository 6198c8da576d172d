// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/sparselr/bigmat"
	"github.com/curioloop/sparselr/sparse"
)

// Model is a fitted path on the original column scale: the linear
// predictor of row i at level l is Intercept[l] + Σⱼ x[i][j]·Beta[j][l],
// with no standardization applied.
type Model struct {
	Intercept []float64
	Beta      *sparse.Path // p × L over the columns of X
	Lambda    []float64
}

// Model converts the standardized path into raw-scale coefficients.
// Levels that were not computed keep a NaN intercept and zero coefficients.
func (r *Result) Model() *Model {
	p, L := len(r.Center), len(r.Lambda)
	m := &Model{
		Intercept: make([]float64, L),
		Beta:      sparse.NewPath(p),
		Lambda:    append([]float64(nil), r.Lambda...),
	}
	col := make([]float64, p)
	for l := 0; l < L; l++ {
		clear(col)
		a0 := r.Intercept[l]
		idx, val := r.Beta.NonZero(l)
		for k, j := range idx {
			jj := r.Kept[j]
			b := val[k] / r.Scale[jj]
			col[jj] = b
			a0 -= r.Center[jj] * b
		}
		m.Intercept[l] = a0
		m.Beta.Append(col)
	}
	return m
}

// Nonzero returns the number of nonzero coefficients at level l.
func (m *Model) Nonzero(l int) int {
	return m.Beta.NNZ(l)
}

// PredictKind selects the scale of predictions.
type PredictKind int

const (
	// PredictLink returns the linear predictor.
	PredictLink PredictKind = iota
	// PredictResponse returns the fitted probability.
	PredictResponse
	// PredictClass returns 1 when the probability is at least ½, else 0.
	PredictClass
)

// Predict evaluates the model on the given physical rows of x and returns
// an len(rows) × L matrix, one column per penalty level.
func Predict(x bigmat.Matrix, rows []int, model *Model, kind PredictKind) (*mat.Dense, error) {
	if r, _ := model.Beta.Dims(); r != x.Cols() {
		return nil, errors.Wrapf(ErrDimension, "model has %d predictors, matrix has %d columns", r, x.Cols())
	}
	for _, i := range rows {
		if i < 0 || i >= x.Rows() {
			return nil, errors.Wrapf(ErrDimension, "row index %d out of range [0, %d)", i, x.Rows())
		}
	}

	n, L := len(rows), len(model.Intercept)
	if n == 0 || L == 0 {
		return nil, errors.Wrapf(ErrDimension, "empty prediction %d × %d", n, L)
	}
	out := mat.NewDense(n, L, nil)
	eta := make([]float64, n)
	for l := 0; l < L; l++ {
		for i := range eta {
			eta[i] = model.Intercept[l]
		}
		idx, val := model.Beta.NonZero(l)
		for k, j := range idx {
			col, b := x.Col(j), val[k]
			for i, row := range rows {
				eta[i] += col[row] * b
			}
		}
		for i, v := range eta {
			switch kind {
			case PredictResponse:
				v = one / (one + math.Exp(-v))
			case PredictClass:
				if v >= zero {
					v = one
				} else {
					v = zero
				}
			}
			out.Set(i, l, v)
		}
	}
	return out, nil
}
