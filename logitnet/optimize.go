// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logitnet fits elastic-net penalized logistic regression paths by
// cyclic coordinate descent over an active set guarded by sequential strong
// rules and, optionally, EDPP screening.
package logitnet

import (
	"math"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/curioloop/sparselr/bigmat"
	"github.com/curioloop/sparselr/sparse"
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only the summary of the path
	LogLast LogLevel = 0
	// LogEval print also one line per penalty level
	LogEval LogLevel = 1
	// LogTrace print also every violation scan
	LogTrace LogLevel = 99
)

// Logger handles logging output for the solver.
type Logger struct {
	Level LogLevel
	Sink  logrus.FieldLogger // Defaults to the logrus standard logger.
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

// Problem specifies a penalized logistic regression path.
type Problem struct {
	X    bigmat.Matrix // Design matrix (n_total × p)
	Y    []float64     // Responses in {0, 1}, one per selected row
	Rows []int         // Physical rows of X used for fitting

	// Penalty schedule. When UserLambda is set Lambda is used verbatim,
	// otherwise NLambda values are spaced on the log scale from λmax down
	// to LambdaMin×λmax.
	Lambda     []float64
	NLambda    int     // default 100
	LambdaMin  float64 // default 0.001 when n > p, 0.05 otherwise
	UserLambda bool

	// Elastic-net mixing: 1 is the lasso. Default 1.
	Alpha float64
	// Convergence threshold relative to the null deviance. Default 1e-7.
	Eps float64
	// Maximum number of inner iterations per penalty level. Default 1000.
	MaxIter int
	// Per-predictor penalty multipliers (length p). Default all ones.
	Multiplier []float64
	// The path stops once more than DfMax coefficients are nonzero.
	// Like every other zero-valued field, 0 selects the default, which is
	// unlimited. Negative values are unlimited too.
	DfMax int
	// Worker count for column scans. Default runtime.NumCPU().
	Threads int
	// Warn when the path stops on a saturated model.
	Warn bool

	// Screening rule applied before each level.
	Screen ScreenRule
	// Optional disk copy of X (bigmat layout) read by the EDPP screener of
	// ScreenHybrid in chunks of ChunkCols columns.
	ChunkFile string
	ChunkCols int
}

// New creates a new path solver for the given problem.
func (p *Problem) New(logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = &Logger{Level: LogNoop}
	}
	log := *logger
	if log.Sink == nil {
		log.Sink = logrus.StandardLogger()
	}

	if p.X == nil {
		return nil, errors.Wrap(ErrInvalidProblem, "design matrix is required")
	}

	n, nTotal, cols := len(p.Rows), p.X.Rows(), p.X.Cols()
	alpha, eps, maxIter := p.Alpha, p.Eps, p.MaxIter
	nLambda, lambdaMin, dfMax, threads := p.NLambda, p.LambdaMin, p.DfMax, p.Threads

	if alpha == zero {
		alpha = one
	}
	if eps == zero {
		eps = 1e-7
	}
	if maxIter == 0 {
		maxIter = 1000
	}
	if nLambda == 0 {
		nLambda = 100
	}
	if lambdaMin == zero {
		lambdaMin = 0.05
		if n > cols {
			lambdaMin = 0.001
		}
	}
	if dfMax <= 0 {
		dfMax = math.MaxInt
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	m := p.Multiplier
	if m == nil {
		m = make([]float64, cols)
		for j := range m {
			m[j] = one
		}
	}

	switch {
	case n == 0:
		err = errors.Wrap(ErrInvalidProblem, "row selection is empty")
	case len(p.Y) != n:
		err = errors.Wrapf(ErrDimension, "len(y)=%d len(rows)=%d", len(p.Y), n)
	case len(m) != cols:
		err = errors.Wrapf(ErrDimension, "len(multiplier)=%d cols=%d", len(m), cols)
	case !(alpha > zero && alpha <= one):
		err = errors.Wrapf(ErrInvalidProblem, "alpha %v must be in (0, 1]", alpha)
	case !(eps > zero):
		err = errors.Wrapf(ErrInvalidProblem, "eps %v must be positive", eps)
	case maxIter <= 0:
		err = errors.Wrapf(ErrInvalidProblem, "max iteration %d must be positive", maxIter)
	case p.UserLambda && len(p.Lambda) == 0:
		err = errors.Wrap(ErrInvalidProblem, "user lambda sequence is empty")
	case !p.UserLambda && nLambda < 1:
		err = errors.Wrapf(ErrInvalidProblem, "nlambda %d must be positive", nLambda)
	case !p.UserLambda && !(lambdaMin > zero):
		err = errors.Wrapf(ErrInvalidProblem, "lambda min %v must be positive", lambdaMin)
	case p.Screen == ScreenHybrid && p.ChunkFile != "" && p.ChunkCols <= 0:
		err = errors.Wrapf(ErrInvalidProblem, "chunk columns %d must be positive", p.ChunkCols)
	case p.Screen != ScreenHSR && p.Screen != ScreenHybrid:
		err = errors.Wrapf(ErrInvalidProblem, "unknown screen rule %d", p.Screen)
	}
	if err != nil {
		return
	}

	for _, r := range p.Rows {
		if r < 0 || r >= nTotal {
			return nil, errors.Wrapf(ErrInvalidProblem, "row index %d out of range [0, %d)", r, nTotal)
		}
	}
	sumY := zero
	for _, v := range p.Y {
		if v != zero && v != one {
			return nil, errors.Wrapf(ErrInvalidProblem, "response %v is not 0 or 1", v)
		}
		sumY += v
	}
	if sumY == zero || sumY == float64(n) {
		return nil, errors.Wrap(ErrInvalidProblem, "response has a single class")
	}
	for j, v := range m {
		if !(v >= zero) {
			return nil, errors.Wrapf(ErrInvalidProblem, "multiplier %d is %v", j, v)
		}
	}
	var lambda []float64
	if p.UserLambda {
		lambda = append(lambda, p.Lambda...)
		nLambda = len(lambda)
		for _, v := range lambda {
			if !(v > zero) {
				return nil, errors.Wrapf(ErrInvalidProblem, "lambda %v must be positive", v)
			}
		}
	}

	optimizer = &Optimizer{
		x: p.X,
		fitSpec: fitSpec{
			n: n, p: cols,
			y:         p.Y,
			rows:      p.Rows,
			lambda:    lambda,
			nLambda:   nLambda,
			lambdaMin: lambdaMin,
			alpha:     alpha,
			eps:       eps,
			maxIter:   maxIter,
			m:         m,
			dfMax:     dfMax,
			threads:   threads,
			warn:      p.Warn,
			screen:    p.Screen,
			chunkFile: p.ChunkFile,
			chunkCols: p.ChunkCols,
			logger:    log,
		},
	}
	return
}

// Optimizer computes the regularization path of a validated problem.
type Optimizer struct {
	x bigmat.Matrix
	fitSpec
}

// Workspace contains the mutable state of a path fit.
// Given n selected rows and p columns the workspace holds
// float64[6×n + 6×p] and bool[3×p].
type Workspace struct {
	n, p int
	fitCtx
	yw, fw []float64
}

// Result contains the regularization path.
type Result struct {
	Status     Status       // How the path ended.
	Intercept  []float64    // Intercept per level (NaN when not computed).
	Beta       *sparse.Path // Standardized coefficients, p_keep × L.
	Center     []float64    // Column means (length p).
	Scale      []float64    // Column standard deviations (length p).
	Kept       []int        // Columns of X that are rows of Beta.
	Lambda     []float64    // Penalty per level.
	Deviance   []float64    // Deviance per level (NaN when not computed).
	Iterations []int        // Inner iterations per level, IterNotComputed when skipped.
	Rejections []int        // Predictors left outside the strong set per level.
	Warnings   []string     // Non-fatal conditions surfaced to the caller.
	Summary                 // Path summary.
}

// Summary contains a summary of the fit.
type Summary struct {
	NullDeviance float64       // Deviance of the intercept-only model.
	LambdaMax    float64       // Smallest penalty with an all-zero solution.
	Solved       int           // Number of levels solved (including the null level).
	Elapsed      time.Duration // Wall time of the fit.
}

// Init allocate the workspace for the path solver.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
// But multiple workspaces could share one optimizer.
func (o *Optimizer) Init() *Workspace {
	n, p := o.n, o.p
	w := &Workspace{n: n, p: p}
	w.r = make([]float64, n)
	w.s = make([]float64, n)
	w.eta = make([]float64, n)
	w.o = make([]float64, n)
	w.yw = make([]float64, n)
	w.fw = make([]float64, n)
	w.center = make([]float64, p)
	w.scale = make([]float64, p)
	w.zAll = make([]float64, p)
	w.beta = make([]float64, p)
	w.e1 = make([]bool, p)
	w.e2 = make([]bool, p)
	w.discard = make([]bool, p)
	w.st = &Standardization{
		Center: w.center,
		Scale:  w.scale,
		Kept:   make([]int, 0, p),
		Z:      make([]float64, 0, p),
	}
	return w
}

// Fit computes the regularization path using workspace w.
// Only I/O failures of the design matrix are returned as errors; the dfmax
// and saturation stops return a partial path described by Result.Status.
func (o *Optimizer) Fit(w *Workspace) (res *Result, err error) {

	if w.n != o.n || w.p != o.p {
		panic("workspace dimension does not match problem")
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && (errors.Is(e, bigmat.ErrShortRead) || errors.Is(e, bigmat.ErrOpenFile)) {
				res, err = nil, e
				return
			}
			panic(r)
		}
	}()

	driver := pathDriver{
		optimizer: o,
		workspace: w,
	}
	return driver.pathLoop()
}
