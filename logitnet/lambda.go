// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// lambdaPath fills dst with len(dst) penalties equally spaced on the log
// scale from lambdaMax down to lambdaMin×lambdaMax.
func lambdaPath(lambdaMax, lambdaMin float64, dst []float64) {
	switch len(dst) {
	case 0:
		return
	case 1:
		dst[0] = lambdaMax
		return
	}
	floats.LogSpan(dst, lambdaMin*lambdaMax, lambdaMax)
	slices.Reverse(dst)
}
