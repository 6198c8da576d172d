// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/sparselr/bigmat"
)

// strongRule admits into the strong set every predictor whose last known
// correlation exceeds (2λ - λprev)·α·m, where m is the multiplier of the
// most correlated predictor at λmax. Predictors vetoed by discard (when not
// nil) stay out. The strong set only grows. It returns the number of
// predictors left outside.
func strongRule(spec *fitSpec, ctx *fitCtx, lambda, lambdaPrev float64, discard []bool) (rejected int) {
	st := ctx.st
	cutoff := (two*lambda - lambdaPrev) * spec.alpha * spec.m[st.Kept[st.XMax]]
	for j := range st.Kept {
		if !ctx.e2[j] && math.Abs(ctx.z[j]) > cutoff && (discard == nil || !discard[j]) {
			ctx.e2[j] = true
		}
		if !ctx.e2[j] {
			rejected++
		}
	}
	return
}

// scanStrong recomputes the correlation of every strong but not yet active
// predictor with s = y-π and promotes violators of the KKT condition
// |z| ≤ λ·m·α into the ever-active set. It stores Σs for scanRest.
func scanStrong(x bigmat.Matrix, spec *fitSpec, ctx *fitCtx, lambda float64) (int, error) {
	ctx.sumS = floats.Sum(ctx.s)
	return scanViolations(x, spec, ctx, lambda, func(j int) bool {
		return !ctx.e1[j] && ctx.e2[j]
	})
}

// scanRest applies the same check to the predictors outside the strong set,
// promoting violators into both sets. It reuses the Σs of the preceding
// strong-set scan.
func scanRest(x bigmat.Matrix, spec *fitSpec, ctx *fitCtx, lambda float64) (int, error) {
	return scanViolations(x, spec, ctx, lambda, func(j int) bool {
		return !ctx.e2[j]
	})
}

func scanViolations(x bigmat.Matrix, spec *fitSpec, ctx *fitCtx, lambda float64, member func(j int) bool) (int, error) {
	st, n := ctx.st, float64(spec.n)
	rows, s, sumS := spec.rows, ctx.s, ctx.sumS
	return parallelFor(spec.threads, len(st.Kept), func(lo, hi int) (violations int) {
		for j := lo; j < hi; j++ {
			if !member(j) {
				continue
			}
			jj := st.Kept[j]
			ctx.z[j] = gcross(x.Col(jj), rows, s, sumS, st.Center[jj], st.Scale[jj]) / n
			if math.Abs(ctx.z[j]) > lambda*spec.m[jj]*spec.alpha {
				ctx.e1[j], ctx.e2[j] = true, true
				violations++
			}
		}
		return
	})
}
