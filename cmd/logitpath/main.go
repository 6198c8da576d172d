// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command logitpath fits sparse penalized logistic regression paths on
// binary matrix files.
//
//	logitpath fit --config fit.yaml
//	logitpath standardize --config fit.yaml
//	logitpath predict --config fit.yaml --model result.yaml --kind response
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("logitpath failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "logitpath",
		Short:         "Sparse penalized logistic regression paths for large matrices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "logitpath.yaml", "YAML configuration file")
	root.PersistentFlags().String("log-level", "", "override output.log_level (debug, info, warn, error)")
	root.PersistentFlags().String("env-file", "", "dotenv file with LOGITPATH_* overrides")

	root.AddCommand(newFitCmd(), newStandardizeCmd(), newPredictCmd())
	return root
}

// setup loads the configuration named by the persistent flags and builds
// the logger it asks for. Variables from the env file never override ones
// already set in the environment.
func setup(cmd *cobra.Command) (*Config, *logrus.Logger, error) {
	if env, _ := cmd.Flags().GetString("env-file"); env != "" {
		if err := godotenv.Load(env); err != nil {
			return nil, nil, errors.Wrapf(err, "load env file %s", env)
		}
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Output.LogLevel = level
	}
	return cfg, setupLogger(cfg.Output), nil
}
