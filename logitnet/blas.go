// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import "math"

// gdot computes Σ x[rows[i]]·v[i] over the selected rows.
func gdot(x []float64, rows []int, v []float64) (dot float64) {
	n := len(rows)
	if n > len(v) {
		panic("bound check error")
	}
	m := n % 4
	for i := 0; i < m; i++ {
		dot += x[rows[i]] * v[i]
	}
	for i := m; i < n; i += 4 {
		r := rows[i : i+4 : i+4]
		y := v[i : i+4 : i+4]
		dot += x[r[0]]*y[0] + x[r[1]]*y[1] + x[r[2]]*y[2] + x[r[3]]*y[3]
	}
	return
}

// gsum computes Σ x[rows[i]] and Σ x[rows[i]]² over the selected rows.
func gsum(x []float64, rows []int) (sum, sq float64) {
	for _, i := range rows {
		v := x[i]
		sum += v
		sq += v * v
	}
	return
}

// gcross computes the standardized cross product Σ (x[rows[i]]-c)/s · v[i]
// given sumV = Σ v[i].
func gcross(x []float64, rows []int, v []float64, sumV, c, s float64) float64 {
	return (gdot(x, rows, v) - c*sumV) / s
}

// gshift moves the residual and linear predictor together by the
// contribution of a coefficient change on the standardized column.
func gshift(x []float64, rows []int, shift, c, s float64, r, eta []float64) {
	if len(r) != len(rows) || len(eta) != len(rows) {
		panic("bound check error")
	}
	for i, k := range rows {
		si := shift * (x[k] - c) / s
		r[i] -= si
		eta[i] += si
	}
}

// softThreshold is the elastic-net proximal update of one coordinate.
// It returns zero when |u| ≤ l1 and sign(u)(|u|-l1)/(v(1+l2)) otherwise.
func softThreshold(u, l1, l2, v float64) float64 {
	if math.Abs(u) <= l1 {
		return zero
	}
	s := zero
	if u > 0 {
		s = one
	} else if u < 0 {
		s = -one
	}
	return s * (math.Abs(u) - l1) / (v * (one + l2))
}

// logistic returns the fitted probability of the linear predictor,
// saturated to 0 or 1 beyond ±etaClamp.
func logistic(eta float64) float64 {
	switch {
	case eta > etaClamp:
		return one
	case eta < -etaClamp:
		return zero
	default:
		e := math.Exp(eta)
		return e / (one + e)
	}
}
