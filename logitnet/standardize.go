// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"math"
	"runtime"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/sparselr/bigmat"
)

// Standardization holds the per-column statistics of a design matrix
// over a row selection.
type Standardization struct {
	// Center and Scale are the mean and population standard deviation of
	// every column (length p).
	Center, Scale []float64
	// Kept lists, in ascending order, the columns whose scale exceeds 1e-6.
	Kept []int
	// Z is the standardized correlation of each kept column with the
	// response, divided by n.
	Z []float64
	// LambdaMax is max|Z|/alpha, the smallest penalty with an all-zero solution.
	LambdaMax float64
	// XMax is the position in Kept of the first column attaining max|Z|.
	XMax int
}

// Standardize computes column statistics of x over rows and the initial
// correlations with y. Columns are reduced independently, each by a single
// worker, so the statistics are identical for any thread count.
func Standardize(x bigmat.Matrix, rows []int, y []float64, alpha float64, threads int) (*Standardization, error) {
	p := x.Cols()
	if len(y) != len(rows) {
		return nil, errors.Wrapf(ErrDimension, "len(y)=%d len(rows)=%d", len(y), len(rows))
	}
	st := &Standardization{
		Center: make([]float64, p),
		Scale:  make([]float64, p),
	}
	z := make([]float64, p)
	if err := standardize(x, rows, y, alpha, threads, st, z); err != nil {
		return nil, err
	}
	return st, nil
}

// standardize fills st using zAll (length p) as scratch for the raw correlations.
func standardize(x bigmat.Matrix, rows []int, y []float64, alpha float64, threads int,
	st *Standardization, zAll []float64) error {

	p, n := x.Cols(), float64(len(rows))
	sumY := floats.Sum(y)
	center, scale := st.Center, st.Scale

	_, err := parallelFor(threads, p, func(lo, hi int) int {
		for j := lo; j < hi; j++ {
			col := x.Col(j)
			sum, sq := gsum(col, rows)
			center[j] = sum / n
			scale[j] = math.Sqrt(sq/n - center[j]*center[j])
			zAll[j] = (gdot(col, rows, y) - center[j]*sumY) / (scale[j] * n)
		}
		return 0
	})
	if err != nil {
		return err
	}

	st.Kept = st.Kept[:0]
	st.Z = st.Z[:0]
	st.XMax = 0
	zMax := zero
	for j := 0; j < p; j++ {
		// NaN scale of a constant column fails this test too
		if !(scale[j] > scaleTol) {
			continue
		}
		if math.Abs(zAll[j]) > zMax {
			zMax = math.Abs(zAll[j])
			st.XMax = len(st.Kept)
		}
		st.Kept = append(st.Kept, j)
		st.Z = append(st.Z, zAll[j])
	}
	st.LambdaMax = zMax / alpha
	return nil
}

// StandardizeOnly returns the center and scale of every column of x over
// rows, without fitting anything.
func StandardizeOnly(x bigmat.Matrix, rows []int, threads int) (center, scale []float64, err error) {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	p, n := x.Cols(), float64(len(rows))
	center, scale = make([]float64, p), make([]float64, p)
	_, err = parallelFor(threads, p, func(lo, hi int) int {
		for j := lo; j < hi; j++ {
			sum, sq := gsum(x.Col(j), rows)
			center[j] = sum / n
			scale[j] = math.Sqrt(sq/n - center[j]*center[j])
		}
		return 0
	})
	if err != nil {
		return nil, nil, err
	}
	return
}
