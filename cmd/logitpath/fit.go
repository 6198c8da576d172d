// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/curioloop/sparselr/bigmat"
	"github.com/curioloop/sparselr/logitnet"
)

func newFitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fit",
		Short: "Fit the regularization path and write it as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runFit(cmd.Context(), cfg, logger)
		},
	}
}

// problem translates the configuration into a solver problem over x.
func (c *Config) problem(x bigmat.Matrix, rows []int, y []float64) (*logitnet.Problem, error) {
	screen, err := c.Fit.screenRule()
	if err != nil {
		return nil, err
	}
	prob := &logitnet.Problem{
		X:          x,
		Y:          y,
		Rows:       rows,
		NLambda:    c.Fit.NLambda,
		LambdaMin:  c.Fit.LambdaMin,
		Alpha:      c.Fit.Alpha,
		Eps:        c.Fit.Eps,
		MaxIter:    c.Fit.MaxIter,
		Multiplier: c.Fit.Multiplier,
		DfMax:      c.Fit.DfMax,
		Threads:    c.Fit.Threads,
		Warn:       c.Fit.Warn,
		Screen:     screen,
	}
	if len(c.Fit.Lambda) > 0 {
		prob.UserLambda = true
		prob.Lambda = c.Fit.Lambda
	}
	// the chunked screener streams the same file the solver reads
	if screen == logitnet.ScreenHybrid && c.Data.Access == "chunked" {
		prob.ChunkFile = c.Data.Matrix
		prob.ChunkCols = c.Fit.ChunkCols
	}
	return prob, nil
}

func runFit(ctx context.Context, cfg *Config, logger *logrus.Logger) error {
	rows, err := selectRows(cfg.Data)
	if err != nil {
		return err
	}
	y, err := readResponse(cfg.Data.Response)
	if err != nil {
		return err
	}
	x, err := openMatrix(cfg.Data)
	if err != nil {
		return err
	}

	res, err := fitPath(ctx, cfg, x, rows, y, logger)
	if errors.Is(err, context.Canceled) {
		// the solver goroutine may still be reading x, leave it open
		return err
	}
	if cerr := x.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "close %s", cfg.Data.Matrix)
	}
	if err != nil {
		return err
	}

	if err := writeYAML(cfg.Output.Path, newResultFile(res)); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"status": res.Status.String(),
		"solved": res.Solved,
		"output": cfg.Output.Path,
	}).Info("result written")
	return nil
}

// fitPath runs the solver on its own goroutine so an interrupt can end the
// command while a penalty level is still being solved.
func fitPath(ctx context.Context, cfg *Config, x bigmat.Matrix, rows []int, y []float64,
	logger *logrus.Logger) (*logitnet.Result, error) {

	prob, err := cfg.problem(x, rows, y)
	if err != nil {
		return nil, err
	}
	level, err := cfg.Fit.logLevel()
	if err != nil {
		return nil, err
	}
	opt, err := prob.New(&logitnet.Logger{Level: level, Sink: logger})
	if err != nil {
		return nil, err
	}

	type outcome struct {
		res *logitnet.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := opt.Fit(opt.Init())
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "fit interrupted")
	case out := <-done:
		return out.res, out.err
	}
}
