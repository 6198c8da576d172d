// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/sparselr/bigmat"
)

// EDPP is the enhanced dual polytope projection rule of one penalty level
// for the lasso
//
//	minimize 1/(2n)‖y - Xβ‖² + λ Σⱼ mⱼ|βⱼ|
//
// over standardized columns (‖xⱼ‖² = n). A predictor is discarded when
//
//	|xⱼᵀo| < n·mⱼ - ½‖v₂⊥‖·√n,   o = θ₀ + ½v₂⊥
//
// where θ₀ = (y - Xβ₀)/λ₀ is the dual point of the previous solution,
// v₁ = y/λ₀ - θ₀ (or sign(x*ᵀy)·x* at λ₀ = λmax), v₂ = y/λ - θ₀ and
// v₂⊥ is v₂ projected orthogonally against v₁. The rule never discards a
// predictor that is nonzero in the exact solution at λ.
type EDPP struct {
	o      []float64
	sumO   float64
	radius float64
	n      float64
}

// NewEDPP builds the rule for lambda from the solution at lambdaPrev.
// fitted is Xβ₀ over the selected rows. ref is the reference direction
// sign(x*ᵀy)·x* used when fitted is identically zero. The direction is
// written into o when it has length len(y).
func NewEDPP(y, fitted []float64, lambdaPrev, lambda float64, ref, o []float64) *EDPP {
	n := len(y)
	if len(o) != n {
		o = make([]float64, n)
	}

	v1 := func(i int) float64 { return fitted[i] / lambdaPrev }
	if floats.Norm(fitted, 2) == zero && ref != nil {
		v1 = func(i int) float64 { return ref[i] }
	}

	// o ← v₂
	var v1v2, v1v1 float64
	for i := range o {
		theta := (y[i] - fitted[i]) / lambdaPrev
		o[i] = y[i]/lambda - theta
		a := v1(i)
		v1v2 += a * o[i]
		v1v1 += a * a
	}

	// o ← v₂⊥
	if v1v1 > zero {
		c := v1v2 / v1v1
		for i := range o {
			o[i] -= v1(i) * c
		}
	}
	norm := floats.Norm(o, 2)

	// o ← θ₀ + ½v₂⊥
	for i := range o {
		o[i] = (y[i]-fitted[i])/lambdaPrev + half*o[i]
	}

	return &EDPP{
		o:      o,
		sumO:   floats.Sum(o),
		radius: half * norm * math.Sqrt(float64(n)),
		n:      float64(n),
	}
}

// Radius returns ½‖v₂⊥‖·√n.
func (e *EDPP) Radius() float64 { return e.radius }

func (e *EDPP) discards(col []float64, rows []int, c, s, m float64) bool {
	lhs := math.Abs(gcross(col, rows, e.o, e.sumO, c, s))
	return lhs < e.n*m-e.radius
}

// ScreenMatrix evaluates the rule on every kept column of x and stores the
// decisions in discard, indexed like st.Kept.
func (e *EDPP) ScreenMatrix(x bigmat.Matrix, rows []int, st *Standardization, m []float64, threads int, discard []bool) error {
	if len(discard) < len(st.Kept) {
		return errors.Wrapf(ErrDimension, "len(discard)=%d < %d", len(discard), len(st.Kept))
	}
	_, err := parallelFor(threads, len(st.Kept), func(lo, hi int) int {
		for j := lo; j < hi; j++ {
			jj := st.Kept[j]
			discard[j] = e.discards(x.Col(jj), rows, st.Center[jj], st.Scale[jj], m[jj])
		}
		return 0
	})
	return err
}

// ScreenFile evaluates the rule against a disk copy of the matrix stored in
// the bigmat binary layout with nTotal physical rows, reading chunkCols
// columns per physical read. With threads > 1 the columns of each chunk are
// screened in parallel; the decisions are the same as with one thread.
func (e *EDPP) ScreenFile(path string, nTotal, chunkCols int, rows []int, st *Standardization,
	m []float64, threads int, discard []bool) error {

	if len(discard) < len(st.Kept) {
		return errors.Wrapf(ErrDimension, "len(discard)=%d < %d", len(discard), len(st.Kept))
	}
	if chunkCols <= 0 {
		return errors.Wrapf(bigmat.ErrBadChunk, "chunk columns %d", chunkCols)
	}
	p := len(st.Center)
	chunkSize := int64(chunkCols) * 8 * int64(nTotal)
	file, err := bigmat.OpenChunkFile(path, nTotal, p)
	if err != nil {
		return errors.Wrapf(err, "edpp screen: filename = %s, chunk_size = %d", path, chunkSize)
	}
	defer file.Close()

	pos := make([]int, p)
	for j := range pos {
		pos[j] = -1
	}
	for j, jj := range st.Kept {
		pos[jj] = j
	}

	err = file.ForEachChunk(chunkCols, func(first int, cols [][]float64) error {
		_, err := parallelFor(threads, len(cols), func(lo, hi int) int {
			for k := lo; k < hi; k++ {
				jj := first + k
				if j := pos[jj]; j >= 0 {
					discard[j] = e.discards(cols[k], rows, st.Center[jj], st.Scale[jj], m[jj])
				}
			}
			return 0
		})
		return err
	})
	return errors.Wrapf(err, "edpp screen: filename = %s, chunk_size = %d", path, chunkSize)
}

// edppScreen evaluates EDPP on the quadratic working problem of the fit:
// working response eta - a0 + r, fitted values eta - a0 and penalties
// scaled by α/w. The decisions only veto strong-rule admission.
func edppScreen(x bigmat.Matrix, spec *fitSpec, ctx *fitCtx, lambda, lambdaPrev float64, yw, fw []float64) error {
	for i := range yw {
		fw[i] = ctx.eta[i] - ctx.a0
		yw[i] = fw[i] + ctx.r[i]
	}

	st := ctx.st
	var ref []float64
	if floats.Norm(fw, 2) == zero {
		jj := st.Kept[st.XMax]
		ref = make([]float64, spec.n)
		col, c, s := x.Col(jj), st.Center[jj], st.Scale[jj]
		for i, k := range spec.rows {
			ref[i] = (col[k] - c) / s
		}
		if floats.Dot(ref, yw) < zero {
			floats.Scale(-one, ref)
		}
	}

	scale := spec.alpha / weight
	rule := NewEDPP(yw, fw, lambdaPrev*scale, lambda*scale, ref, ctx.o)
	if spec.chunkFile != "" {
		return rule.ScreenFile(spec.chunkFile, x.Rows(), spec.chunkCols, spec.rows, st, spec.m, spec.threads, ctx.discard)
	}
	return rule.ScreenMatrix(x, spec.rows, st, spec.m, spec.threads, ctx.discard)
}
