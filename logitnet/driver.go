// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/sparselr/sparse"
)

// pathDriver drives the penalty levels of a fit in order, carrying the
// warm-started coefficients, intercept, residual and active sets from
// one level to the next.
type pathDriver struct {
	optimizer *Optimizer
	workspace *Workspace
	result    *Result
	start     time.Time
}

// pathLoop standardizes the design, builds the penalty sequence and solves
// every level until the path ends or an abort condition stops it.
func (d *pathDriver) pathLoop() (*Result, error) {
	o, w := d.optimizer, d.workspace
	spec, ctx := &o.fitSpec, &w.fitCtx
	d.start = time.Now()

	if err := standardize(o.x, spec.rows, spec.y, spec.alpha, spec.threads, ctx.st, ctx.zAll); err != nil {
		return nil, errors.Wrap(err, "standardize")
	}
	st := ctx.st
	pKeep := len(st.Kept)
	if pKeep == 0 {
		return nil, errors.Wrap(ErrInvalidProblem, "every column has zero variance")
	}
	// a generated path needs a positive λmax on the log scale
	if spec.lambda == nil && !(st.LambdaMax > zero) {
		return nil, errors.Wrapf(ErrInvalidProblem, "lambda max %v: no column is correlated with the response", st.LambdaMax)
	}
	ctx.z = st.Z
	clear(ctx.beta)
	clear(ctx.e1)
	clear(ctx.e2)
	clear(ctx.discard)

	L := spec.nLambda
	res := &Result{
		Intercept:  make([]float64, L),
		Beta:       sparse.NewPath(pKeep),
		Center:     append([]float64(nil), st.Center...),
		Scale:      append([]float64(nil), st.Scale...),
		Kept:       append([]int(nil), st.Kept...),
		Lambda:     make([]float64, L),
		Deviance:   make([]float64, L),
		Iterations: make([]int, L),
		Rejections: make([]int, L),
	}
	res.LambdaMax = st.LambdaMax
	d.result = res

	// intercept-only model
	n := float64(spec.n)
	ybar := floats.Sum(spec.y) / n
	ctx.a0 = math.Log(ybar / (one - ybar))
	res.Intercept[0] = ctx.a0
	ctx.nullDev = zero
	for i, y := range spec.y {
		ctx.s[i] = y - ybar
		ctx.r[i] = ctx.s[i] / weight
		ctx.eta[i] = ctx.a0
		ctx.nullDev -= y*math.Log(ybar) + (one-y)*math.Log(one-ybar)
	}
	ctx.thresh = spec.eps * ctx.nullDev
	res.NullDeviance = ctx.nullDev

	lstart := 0
	if spec.lambda == nil {
		lambdaPath(st.LambdaMax, spec.lambdaMin, res.Lambda)
		res.Deviance[0] = ctx.nullDev
		res.Beta.AppendZero()
		res.Solved = 1
		lstart = 1
	} else {
		copy(res.Lambda, spec.lambda)
	}

	d.printInit()

	for l := lstart; l < L; l++ {
		lambdaPrev := st.LambdaMax
		if l != 0 {
			lambdaPrev = res.Lambda[l-1]
			if nv := countNonzero(ctx.beta[:pKeep]); nv > spec.dfMax {
				res.Status = StatusDfMax
				d.truncate(l)
				break
			}
		}

		status, err := d.solveLevel(l, lambdaPrev)
		if err != nil {
			return nil, err
		}
		if status != StatusComplete {
			res.Status = status
			break
		}
		res.Solved++
	}

	res.Elapsed = time.Since(d.start)
	d.printExit()
	return res, nil
}

// solveLevel runs the active-set state machine of one penalty level:
//
//	screen → inner → scan strong ─┬─ violations → inner
//	                              └─ none → scan rest ─┬─ violations → inner
//	                                                   └─ none → done
//
// Every transition back to inner is allowed only while the level has
// iterations left; once the cap is reached the pending scans run once
// and the level ends.
func (d *pathDriver) solveLevel(l int, lambdaPrev float64) (Status, error) {
	o, w, res := d.optimizer, d.workspace, d.result
	spec, ctx := &o.fitSpec, &w.fitCtx
	pKeep := len(ctx.st.Kept)
	lambda := res.Lambda[l]

	iter := 0
	state := stateScreen
	for state != stateDone {
		switch state {
		case stateScreen:
			var discard []bool
			if spec.screen == ScreenHybrid {
				if err := edppScreen(o.x, spec, ctx, lambda, lambdaPrev, w.yw, w.fw); err != nil {
					return StatusComplete, err
				}
				discard = ctx.discard[:pKeep]
			}
			res.Rejections[l] = strongRule(spec, ctx, lambda, lambdaPrev, discard)
			state = stateInner

		case stateInner:
			for iter < spec.maxIter {
				iter++
				if d.fitProbability(); ctx.dev/ctx.nullDev < saturated {
					d.saturate(l)
					return StatusSaturated, nil
				}
				d.updateIntercept()
				if d.sweep(lambda) < ctx.thresh {
					break
				}
			}
			state = stateScanStrong

		case stateScanStrong:
			violations, err := scanStrong(o.x, spec, ctx, lambda)
			if err != nil {
				return StatusComplete, err
			}
			d.printScan(l, "strong", violations)
			if violations > 0 && iter < spec.maxIter {
				state = stateInner
			} else {
				state = stateScanRest
			}

		case stateScanRest:
			violations, err := scanRest(o.x, spec, ctx, lambda)
			if err != nil {
				return StatusComplete, err
			}
			d.printScan(l, "rest", violations)
			if violations > 0 && iter < spec.maxIter {
				state = stateInner
			} else {
				state = stateDone
			}
		}
	}

	res.Iterations[l] = iter
	res.Deviance[l] = ctx.dev
	res.Intercept[l] = ctx.a0
	res.Beta.Append(ctx.beta[:pKeep])
	d.printLevel(l)
	return StatusComplete, nil
}

// fitProbability recomputes π from eta, the residuals s = y-π and
// r = s/w, and the deviance of the current fit.
func (d *pathDriver) fitProbability() {
	spec, ctx := &d.optimizer.fitSpec, &d.workspace.fitCtx
	dev := zero
	for i, y := range spec.y {
		pi := logistic(ctx.eta[i])
		ctx.s[i] = y - pi
		ctx.r[i] = ctx.s[i] / weight
		if y == one {
			dev -= math.Log(pi)
		} else {
			dev -= math.Log(one - pi)
		}
	}
	ctx.dev = dev
}

// updateIntercept applies the closed-form intercept step and shifts r and
// eta by the change.
func (d *pathDriver) updateIntercept() {
	spec, ctx := &d.optimizer.fitSpec, &d.workspace.fitCtx
	xwr := weight * floats.Sum(ctx.r)
	xwx := weight * float64(spec.n)
	a0 := xwr/xwx + ctx.a0
	shift := a0 - ctx.a0
	floats.AddConst(-shift, ctx.r)
	floats.AddConst(shift, ctx.eta)
	ctx.a0 = a0
}

// sweep performs one cyclic pass over the ever-active predictors in
// ascending order. Each update sees the residual left by the previous one.
// It returns the largest change of the objective over the pass.
func (d *pathDriver) sweep(lambda float64) (maxUpdate float64) {
	o, ctx := d.optimizer, &d.workspace.fitCtx
	spec, st := &o.fitSpec, ctx.st
	n := float64(spec.n)
	sumR := floats.Sum(ctx.r)

	for j, jj := range st.Kept {
		if !ctx.e1[j] {
			continue
		}
		col, c, s := o.x.Col(jj), st.Center[jj], st.Scale[jj]
		xwr := weight * gcross(col, spec.rows, ctx.r, sumR, c, s)
		u := xwr/n + weight*ctx.beta[j]

		l1 := lambda * spec.m[jj] * spec.alpha
		l2 := lambda * spec.m[jj] * (one - spec.alpha)
		b, a := softThreshold(u, l1, l2, weight), ctx.beta[j]

		if shift := b - a; shift != zero {
			gshift(col, spec.rows, shift, c, s, ctx.r, ctx.eta)
			sumR = floats.Sum(ctx.r)
			update := (half*weight+n*l2)*b*b - a*a + n*l1*(math.Abs(b)-math.Abs(a))
			maxUpdate = max(maxUpdate, update)
		}
		ctx.beta[j] = b
	}
	return
}

// truncate marks levels l and beyond as not computed.
func (d *pathDriver) truncate(l int) {
	res := d.result
	for ll := l; ll < len(res.Lambda); ll++ {
		res.Iterations[ll] = IterNotComputed
		res.Intercept[ll] = math.NaN()
		res.Deviance[ll] = math.NaN()
		res.Beta.AppendZero()
	}
}

// saturate truncates the path at level l but keeps the deviance that
// triggered the stop.
func (d *pathDriver) saturate(l int) {
	spec, ctx := &d.optimizer.fitSpec, &d.workspace.fitCtx
	d.truncate(l)
	d.result.Deviance[l] = ctx.dev
	if spec.warn {
		msg := fmt.Sprintf("model saturated at lambda %d (deviance %.6g, null deviance %.6g); exiting...",
			l, ctx.dev, ctx.nullDev)
		d.result.Warnings = append(d.result.Warnings, msg)
		if log := spec.logger; log.enable(LogLast) {
			log.Sink.Warn(msg)
		}
	}
}

func countNonzero(beta []float64) (nv int) {
	for _, b := range beta {
		if b != zero {
			nv++
		}
	}
	return
}

func (d *pathDriver) printInit() {
	spec, ctx, res := &d.optimizer.fitSpec, &d.workspace.fitCtx, d.result
	log := spec.logger
	if !log.enable(LogEval) {
		return
	}
	log.Sink.WithFields(logrus.Fields{
		"n":         spec.n,
		"p":         spec.p,
		"kept":      len(res.Kept),
		"lambdaMax": res.LambdaMax,
		"nullDev":   ctx.nullDev,
		"elapsed":   time.Since(d.start),
	}).Info("preprocessing done")
}

func (d *pathDriver) printLevel(l int) {
	spec, ctx, res := &d.optimizer.fitSpec, &d.workspace.fitCtx, d.result
	log := spec.logger
	if !log.enable(LogEval) {
		return
	}
	pKeep := len(res.Kept)
	active, strong := 0, 0
	for j := 0; j < pKeep; j++ {
		if ctx.e1[j] {
			active++
		}
		if ctx.e2[j] {
			strong++
		}
	}
	log.Sink.WithFields(logrus.Fields{
		"level":    l,
		"lambda":   res.Lambda[l],
		"iter":     res.Iterations[l],
		"deviance": res.Deviance[l],
		"nonzero":  res.Beta.NNZ(res.Beta.Cols() - 1),
		"active":   active,
		"strong":   strong,
		"rejected": res.Rejections[l],
	}).Info("lambda solved")
}

func (d *pathDriver) printScan(l int, set string, violations int) {
	log := d.optimizer.logger
	if !log.enable(LogTrace) {
		return
	}
	log.Sink.WithFields(logrus.Fields{
		"level":      l,
		"set":        set,
		"violations": violations,
	}).Debug("violation scan")
}

func (d *pathDriver) printExit() {
	log, res := d.optimizer.logger, d.result
	if !log.enable(LogLast) {
		return
	}
	log.Sink.WithFields(logrus.Fields{
		"status":  res.Status.String(),
		"solved":  res.Solved,
		"levels":  len(res.Lambda),
		"elapsed": res.Elapsed,
	}).Info("path finished")
}
