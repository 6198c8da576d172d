// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/curioloop/sparselr/bigmat"
	"github.com/curioloop/sparselr/logitnet"
	"github.com/curioloop/sparselr/sparse"
)

// matrix is a design matrix that holds an open file.
type matrix interface {
	bigmat.Matrix
	io.Closer
}

func openMatrix(cfg DataConfig) (matrix, error) {
	if cfg.Access == "mapped" {
		return openMapped(cfg.Matrix, cfg.Rows, cfg.Cols)
	}
	file, err := bigmat.OpenChunkFile(cfg.Matrix, cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// selectRows returns the configured row subset, or every row.
func selectRows(cfg DataConfig) ([]int, error) {
	if len(cfg.Select) == 0 {
		rows := make([]int, cfg.Rows)
		for i := range rows {
			rows[i] = i
		}
		return rows, nil
	}
	for _, i := range cfg.Select {
		if i < 0 || i >= cfg.Rows {
			return nil, errors.Newf("data.select row %d out of range [0, %d)", i, cfg.Rows)
		}
	}
	return cfg.Select, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return errors.Wrapf(yaml.Unmarshal(data, out), "decode %s", path)
}

func writeYAML(path string, in any) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}

// readResponse loads a YAML list of 0/1 values.
func readResponse(path string) ([]float64, error) {
	var y []float64
	if err := readYAML(path, &y); err != nil {
		return nil, err
	}
	return y, nil
}

// resultFile is the YAML form of a fitted path. Coefficients are on the raw
// column scale and only the nonzero ones are listed.
type resultFile struct {
	Status       string      `yaml:"status"`
	Warnings     []string    `yaml:"warnings,omitempty"`
	Columns      int         `yaml:"columns"`
	LambdaMax    float64     `yaml:"lambda_max"`
	NullDeviance float64     `yaml:"null_deviance"`
	Elapsed      string      `yaml:"elapsed"`
	Levels       []levelFile `yaml:"levels"`
}

type levelFile struct {
	Lambda     float64         `yaml:"lambda"`
	Solved     bool            `yaml:"solved"`
	Intercept  float64         `yaml:"intercept,omitempty"`
	Deviance   float64         `yaml:"deviance,omitempty"`
	Iterations int             `yaml:"iterations"`
	Rejected   int             `yaml:"rejected"`
	Beta       map[int]float64 `yaml:"beta,omitempty"`
}

func newResultFile(res *logitnet.Result) *resultFile {
	model := res.Model()
	out := &resultFile{
		Status:       res.Status.String(),
		Warnings:     res.Warnings,
		Columns:      len(res.Center),
		LambdaMax:    res.LambdaMax,
		NullDeviance: res.NullDeviance,
		Elapsed:      res.Elapsed.String(),
		Levels:       make([]levelFile, len(res.Lambda)),
	}
	for l := range out.Levels {
		lv := levelFile{
			Lambda:     res.Lambda[l],
			Iterations: res.Iterations[l],
			Rejected:   res.Rejections[l],
		}
		// unsolved levels carry no intercept or deviance
		if !math.IsNaN(res.Deviance[l]) {
			lv.Solved = true
			lv.Intercept = model.Intercept[l]
			lv.Deviance = res.Deviance[l]
		}
		idx, val := model.Beta.NonZero(l)
		if len(idx) > 0 {
			lv.Beta = make(map[int]float64, len(idx))
			for k, j := range idx {
				lv.Beta[j] = val[k]
			}
		}
		out.Levels[l] = lv
	}
	return out
}

// model rebuilds the raw-scale path; unsolved levels predict NaN.
func (r *resultFile) model() *logitnet.Model {
	m := &logitnet.Model{
		Intercept: make([]float64, len(r.Levels)),
		Beta:      sparse.NewPath(r.Columns),
		Lambda:    make([]float64, len(r.Levels)),
	}
	col := make([]float64, r.Columns)
	for l, lv := range r.Levels {
		m.Lambda[l] = lv.Lambda
		m.Intercept[l] = lv.Intercept
		if !lv.Solved {
			m.Intercept[l] = math.NaN()
		}
		clear(col)
		for j, b := range lv.Beta {
			col[j] = b
		}
		m.Beta.Append(col)
	}
	return m
}

type scaleFile struct {
	Center []float64 `yaml:"center"`
	Scale  []float64 `yaml:"scale"`
}
