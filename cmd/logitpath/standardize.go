// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/curioloop/sparselr/logitnet"
)

func newStandardizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standardize",
		Short: "Write the center and scale of every column over the selected rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runStandardize(cfg, logger)
		},
	}
}

func runStandardize(cfg *Config, logger *logrus.Logger) error {
	rows, err := selectRows(cfg.Data)
	if err != nil {
		return err
	}
	x, err := openMatrix(cfg.Data)
	if err != nil {
		return err
	}
	defer x.Close()

	center, scale, err := logitnet.StandardizeOnly(x, rows, cfg.Fit.Threads)
	if err != nil {
		return err
	}
	if err := writeYAML(cfg.Output.Path, &scaleFile{Center: center, Scale: scale}); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"rows":   len(rows),
		"cols":   x.Cols(),
		"output": cfg.Output.Path,
	}).Info("scales written")
	return nil
}
