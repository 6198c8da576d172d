// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/sparselr/bigmat"
)

func quietLogger() *Logger {
	sink := logrus.New()
	sink.SetOutput(io.Discard)
	sink.SetLevel(logrus.DebugLevel)
	return &Logger{Level: LogTrace, Sink: sink}
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// logisticData draws n rows of standard normal predictors and Bernoulli
// responses with success probability σ(Xβ). Columns past len(beta) are noise.
func logisticData(t *testing.T, n, p int, beta []float64, seed uint64) (*bigmat.Dense, []float64) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := make([]float64, n*p)
	for k := range data {
		data[k] = rng.NormFloat64()
	}
	y := make([]float64, n)
	for i := range y {
		eta := zero
		for j, b := range beta {
			eta += data[j*n+i] * b
		}
		if rng.Float64() < one/(one+math.Exp(-eta)) {
			y[i] = one
		}
	}
	x, err := bigmat.NewDense(n, p, data)
	require.NoError(t, err)
	return x, y
}

// orthogonalize replaces column j of x with its residual after projection
// on the constant, the columns in against and the vector y.
func orthogonalize(x *bigmat.Dense, j int, against []int, y []float64) {
	n := x.Rows()
	col := x.Col(j)
	basis := [][]float64{make([]float64, n)}
	for i := range basis[0] {
		basis[0][i] = one
	}
	for _, k := range against {
		basis = append(basis, append([]float64(nil), x.Col(k)...))
	}
	basis = append(basis, append([]float64(nil), y...))

	// modified Gram-Schmidt on the basis, then project col out
	for a := range basis {
		for b := 0; b < a; b++ {
			project(basis[a], basis[b])
		}
	}
	for _, v := range basis {
		project(col, v)
	}
}

func project(v, u []float64) {
	var uv, uu float64
	for i := range u {
		uv += u[i] * v[i]
		uu += u[i] * u[i]
	}
	if uu == zero {
		return
	}
	for i := range v {
		v[i] -= uv / uu * u[i]
	}
}
