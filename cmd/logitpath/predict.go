// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/sparselr/logitnet"
)

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Evaluate a fitted path on the selected rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			model, _ := cmd.Flags().GetString("model")
			kind, _ := cmd.Flags().GetString("kind")
			out, _ := cmd.Flags().GetString("out")
			return runPredict(cfg, logger, model, kind, out)
		},
	}
	cmd.Flags().String("model", "logitpath.out.yaml", "result file written by fit")
	cmd.Flags().String("kind", "response", "prediction scale: link, response or class")
	cmd.Flags().String("out", "logitpath.pred.yaml", "prediction output file")
	return cmd
}

func predictKind(kind string) (logitnet.PredictKind, error) {
	switch strings.ToLower(kind) {
	case "link":
		return logitnet.PredictLink, nil
	case "response":
		return logitnet.PredictResponse, nil
	case "class":
		return logitnet.PredictClass, nil
	default:
		return 0, errors.Newf("prediction kind %q is not link, response or class", kind)
	}
}

func runPredict(cfg *Config, logger *logrus.Logger, modelPath, kindName, out string) error {
	kind, err := predictKind(kindName)
	if err != nil {
		return err
	}
	var saved resultFile
	if err := readYAML(modelPath, &saved); err != nil {
		return err
	}
	rows, err := selectRows(cfg.Data)
	if err != nil {
		return err
	}
	x, err := openMatrix(cfg.Data)
	if err != nil {
		return err
	}
	defer x.Close()

	pred, err := logitnet.Predict(x, rows, saved.model(), kind)
	if err != nil {
		return err
	}
	if err := writeYAML(out, denseRows(pred)); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"rows":   len(rows),
		"levels": len(saved.Levels),
		"output": out,
	}).Info("predictions written")
	return nil
}

func denseRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
