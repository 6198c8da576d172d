// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitnet

import (
	"github.com/cockroachdb/errors"
)

const (
	zero = 0.0
	one  = 1.0
	half = 0.5
	two  = 2.0

	// weight is the fixed logistic weight, the upper bound of π(1-π).
	weight = 0.25
	// etaClamp saturates the linear predictor before exponentiation.
	etaClamp = 10.0
	// scaleTol drops columns whose standard deviation is at most this value.
	scaleTol = 1e-6
	// saturated is the deviance ratio below which the path stops.
	saturated = 0.01
)

// IterNotComputed marks the iteration count of a penalty level that was not solved.
const IterNotComputed = -1

// Status reports how a path fit ended.
type Status int

const (
	// StatusComplete every penalty level was solved.
	StatusComplete Status = iota
	// StatusDfMax the number of nonzero coefficients exceeded DfMax.
	StatusDfMax
	// StatusSaturated the deviance dropped below 1% of the null deviance.
	StatusSaturated
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusDfMax:
		return "dfmax exceeded"
	case StatusSaturated:
		return "model saturated"
	default:
		return "unknown"
	}
}

// ScreenRule selects the predictor elimination applied before each penalty level.
type ScreenRule int

const (
	// ScreenHSR uses the sequential strong rule alone.
	ScreenHSR ScreenRule = iota
	// ScreenHybrid additionally vetoes strong-rule admission with EDPP
	// evaluated on the level's quadratic working problem.
	ScreenHybrid
)

// levelState is a step of the per-level active-set state machine.
type levelState int

const (
	stateScreen levelState = iota
	stateInner
	stateScanStrong
	stateScanRest
	stateDone
)

// Every error returned by this package matches one of these sentinels under
// errors.Is, except I/O errors which match the bigmat sentinels.
var (
	// ErrInvalidProblem reports an argument rejected by Problem.New.
	ErrInvalidProblem = errors.New("logitnet: invalid problem")
	// ErrDimension reports inputs whose lengths disagree.
	ErrDimension = errors.New("logitnet: dimension mismatch")
)

// fitSpec is the validated, immutable description of a fit.
type fitSpec struct {
	n, p      int
	y         []float64
	rows      []int
	lambda    []float64 // user supplied sequence, nil otherwise
	nLambda   int
	lambdaMin float64
	alpha     float64
	eps       float64
	maxIter   int
	m         []float64
	dfMax     int
	threads   int
	warn      bool
	screen    ScreenRule
	chunkFile string
	chunkCols int
	logger    Logger
}

// fitCtx holds every mutable vector of a fit. Vectors indexed by predictor
// have length p and are used up to the kept-column count.
type fitCtx struct {
	// per row
	r   []float64 // working residual (y-π)/w
	s   []float64 // y-π at the start of the last inner iteration
	eta []float64 // linear predictor
	o   []float64 // EDPP direction

	// per predictor
	center, scale []float64
	zAll          []float64
	z             []float64
	beta          []float64
	e1, e2        []bool
	discard       []bool

	a0      float64 // current intercept
	sumS    float64 // Σs of the last strong-set scan
	nullDev float64
	thresh  float64
	dev     float64

	st *Standardization
}
