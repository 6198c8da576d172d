// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftThreshold(t *testing.T) {
	for _, l1 := range []float64{0, 0.1, 1, 5} {
		for _, l2 := range []float64{0, 0.5, 2} {
			for _, v := range []float64{0.25, 1} {
				assert.Zero(t, softThreshold(0, l1, l2, v))
				assert.Zero(t, softThreshold(l1, l1, l2, v))
				assert.Zero(t, softThreshold(-l1, l1, l2, v))
			}
		}
	}
	assert.InDelta(t, 8.0, softThreshold(3, 1, 0, 0.25), 1e-15)
	assert.InDelta(t, -8.0, softThreshold(-3, 1, 0, 0.25), 1e-15)
	assert.InDelta(t, 2.0/3.0, softThreshold(3, 1, 2, 1), 1e-15)
}

func TestLogistic(t *testing.T) {
	assert.Equal(t, 0.5, logistic(0))
	assert.Equal(t, 1.0, logistic(10.5))
	assert.Equal(t, 0.0, logistic(-10.5))
	assert.InDelta(t, 1/(1+math.Exp(-10)), logistic(10), 1e-15)
	assert.InDelta(t, 1-logistic(3), logistic(-3), 1e-15)
}

func TestGatherKernels(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := make([]float64, 23)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	for _, n := range []int{0, 1, 3, 4, 7, 13} {
		rows := rng.Perm(len(x))[:n]
		v := make([]float64, n)
		for i := range v {
			v[i] = rng.NormFloat64()
		}

		var dot, sum, sq, sumV float64
		for i, k := range rows {
			dot += x[k] * v[i]
			sum += x[k]
			sq += x[k] * x[k]
			sumV += v[i]
		}
		assert.InDelta(t, dot, gdot(x, rows, v), 1e-12)
		gs, gq := gsum(x, rows)
		assert.InDelta(t, sum, gs, 1e-12)
		assert.InDelta(t, sq, gq, 1e-12)

		c, s := 0.3, 1.7
		assert.InDelta(t, (dot-c*sumV)/s, gcross(x, rows, v, sumV, c, s), 1e-12)

		r := append([]float64(nil), v...)
		eta := make([]float64, n)
		gshift(x, rows, 2, c, s, r, eta)
		for i, k := range rows {
			delta := 2 * (x[k] - c) / s
			assert.InDelta(t, v[i]-delta, r[i], 1e-12)
			assert.InDelta(t, delta, eta[i], 1e-12)
		}
	}
	require.Panics(t, func() { gdot(x, []int{0, 1}, []float64{1}) })
}

func TestLambdaPath(t *testing.T) {
	dst := make([]float64, 5)
	lambdaPath(2, 0.01, dst)
	assert.InDelta(t, 2, dst[0], 1e-12)
	assert.InDelta(t, 0.02, dst[4], 1e-12)
	delta := (math.Log(2) - math.Log(0.02)) / 4
	for l, v := range dst {
		assert.InDelta(t, math.Exp(math.Log(2)-float64(l)*delta), v, 1e-12)
	}
	ratio := dst[1] / dst[0]
	for l := 1; l < len(dst); l++ {
		assert.Less(t, dst[l], dst[l-1])
		assert.InDelta(t, ratio, dst[l]/dst[l-1], 1e-12)
	}

	single := make([]float64, 1)
	lambdaPath(3, 0.5, single)
	assert.Equal(t, []float64{3}, single)
}

func TestParallelFor(t *testing.T) {
	for _, threads := range []int{1, 2, 3, 8, 100} {
		seen := make([]int, 37)
		count, err := parallelFor(threads, len(seen), func(lo, hi int) int {
			for j := lo; j < hi; j++ {
				seen[j]++
			}
			return hi - lo
		})
		require.NoError(t, err)
		assert.Equal(t, len(seen), count)
		for _, v := range seen {
			assert.Equal(t, 1, v)
		}
	}

	_, err := parallelFor(4, 10, func(lo, hi int) int {
		if lo <= 5 && 5 < hi {
			panic(ErrDimension)
		}
		return 0
	})
	require.ErrorIs(t, err, ErrDimension)

	_, err = parallelFor(1, 1, func(lo, hi int) int { panic("boom") })
	require.ErrorContains(t, err, "boom")
}
