// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/sparselr/bigmat"
	"github.com/curioloop/sparselr/logitnet"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "logitpath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
data:
  matrix: x.bin
  rows: 10
  cols: 3
  response: y.yaml
  select: [0, 2, 4]
fit:
  alpha: 0.5
  lambda: [0.3, 0.2, 0.1]
  screen: hybrid
  chunk_cols: 2
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "chunked", cfg.Data.Access)
	assert.Equal(t, []int{0, 2, 4}, cfg.Data.Select)
	assert.Equal(t, 0.5, cfg.Fit.Alpha)
	assert.Equal(t, 1e-7, cfg.Fit.Eps)
	assert.Equal(t, 1000, cfg.Fit.MaxIter)
	assert.Equal(t, 100, cfg.Fit.NLambda)
	assert.True(t, cfg.Fit.Warn)
	assert.Equal(t, "info", cfg.Output.LogLevel)

	prob, err := cfg.problem(nil, []int{0, 2, 4}, []float64{0, 1, 0})
	require.NoError(t, err)
	assert.True(t, prob.UserLambda)
	assert.Equal(t, []float64{0.3, 0.2, 0.1}, prob.Lambda)
	assert.Equal(t, logitnet.ScreenHybrid, prob.Screen)
	assert.Equal(t, "x.bin", prob.ChunkFile)
	assert.Equal(t, 2, prob.ChunkCols)

	level, err := cfg.Fit.logLevel()
	require.NoError(t, err)
	assert.Equal(t, logitnet.LogLast, level)
}

func TestLoadConfigErrors(t *testing.T) {
	for name, body := range map[string]string{
		"no matrix": "data: {rows: 1, cols: 1}",
		"shape":     "data: {matrix: x.bin, rows: 0, cols: 1}",
		"access":    "data: {matrix: x.bin, rows: 1, cols: 1, access: tape}",
		"screen":    "data: {matrix: x.bin, rows: 1, cols: 1}\nfit: {screen: safe}",
		"verbose":   "data: {matrix: x.bin, rows: 1, cols: 1}\nfit: {verbose: loud}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, t.TempDir(), body))
			require.Error(t, err)
		})
	}
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFitAndPredict(t *testing.T) {
	dir := t.TempDir()
	n, p := 40, 3
	data := make([]float64, n*p)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = math.Sin(float64(3*i + 1))
		data[n+i] = math.Cos(float64(7 * i))
		data[2*n+i] = float64(i%5) - 2
		if data[i]+0.3*data[n+i] > 0.1*math.Sin(float64(i*i)) {
			y[i] = 1
		}
	}
	x, err := bigmat.NewDense(n, p, data)
	require.NoError(t, err)
	require.NoError(t, bigmat.WriteFile(filepath.Join(dir, "x.bin"), x))
	require.NoError(t, writeYAML(filepath.Join(dir, "y.yaml"), y))

	cfg, err := loadConfig(writeConfig(t, dir, fmt.Sprintf(`
data:
  matrix: %s
  rows: %d
  cols: %d
  response: %s
fit:
  nlambda: 8
  screen: hybrid
  chunk_cols: 2
  threads: 2
output:
  path: %s
`, filepath.Join(dir, "x.bin"), n, p, filepath.Join(dir, "y.yaml"), filepath.Join(dir, "result.yaml"))))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, runFit(context.Background(), cfg, logger))

	var saved resultFile
	require.NoError(t, readYAML(cfg.Output.Path, &saved))
	require.Len(t, saved.Levels, 8)
	assert.Equal(t, p, saved.Columns)
	assert.Empty(t, saved.Levels[0].Beta)
	assert.True(t, saved.Levels[0].Solved)

	// the saved model predicts like the in-memory fit
	prob, err := cfg.problem(x, allRows(n), y)
	require.NoError(t, err)
	prob.ChunkFile = ""
	opt, err := prob.New(nil)
	require.NoError(t, err)
	res, err := opt.Fit(opt.Init())
	require.NoError(t, err)
	want, err := logitnet.Predict(x, allRows(n), res.Model(), logitnet.PredictLink)
	require.NoError(t, err)

	out := filepath.Join(dir, "pred.yaml")
	require.NoError(t, runPredict(cfg, logger, cfg.Output.Path, "link", out))
	var got [][]float64
	require.NoError(t, readYAML(out, &got))
	require.Len(t, got, n)
	for i := range got {
		for l := range got[i] {
			if !saved.Levels[l].Solved {
				assert.True(t, math.IsNaN(got[i][l]))
				continue
			}
			assert.InDelta(t, want.At(i, l), got[i][l], 1e-9)
		}
	}

	require.NoError(t, runStandardize(cfg, logger))
	var scales scaleFile
	require.NoError(t, readYAML(cfg.Output.Path, &scales))
	assert.Len(t, scales.Center, p)
	assert.InDelta(t, 0, scales.Center[2], 1e-12)

	_, err = predictKind("odds")
	require.Error(t, err)
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "data: {matrix: x.bin, rows: 4, cols: 2}\n")
	env := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(env, []byte("LOGITPATH_FIT_NLAMBDA=7\nLOGITPATH_FIT_SCREEN=hybrid\n"), 0o644))
	t.Setenv("LOGITPATH_FIT_NLAMBDA", "")
	t.Setenv("LOGITPATH_FIT_SCREEN", "")
	os.Unsetenv("LOGITPATH_FIT_NLAMBDA")
	os.Unsetenv("LOGITPATH_FIT_SCREEN")

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--env-file", env, "--log-level", "warn"}))
	cfg, logger, err := setup(cmd)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Fit.NLambda)
	assert.Equal(t, "hybrid", cfg.Fit.Screen)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	require.NoError(t, cmd.ParseFlags([]string{"--env-file", filepath.Join(dir, "missing.env")}))
	_, _, err = setup(cmd)
	require.Error(t, err)
}
