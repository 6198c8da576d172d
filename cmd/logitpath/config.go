// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/curioloop/sparselr/logitnet"
)

// Config is the YAML configuration shared by every subcommand.
type Config struct {
	Data   DataConfig   `mapstructure:"data" yaml:"data"`
	Fit    FitConfig    `mapstructure:"fit" yaml:"fit"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// DataConfig locates the design matrix and the response.
type DataConfig struct {
	Matrix   string `mapstructure:"matrix" yaml:"matrix"`     // binary column-major float64 file
	Rows     int    `mapstructure:"rows" yaml:"rows"`         // physical rows of the file
	Cols     int    `mapstructure:"cols" yaml:"cols"`         // columns of the file
	Access   string `mapstructure:"access" yaml:"access"`     // mapped or chunked
	Response string `mapstructure:"response" yaml:"response"` // YAML list of 0/1 values
	Select   []int  `mapstructure:"select" yaml:"select"`     // rows used for fitting, all when empty
}

// FitConfig mirrors logitnet.Problem.
type FitConfig struct {
	Alpha      float64   `mapstructure:"alpha" yaml:"alpha"`
	Eps        float64   `mapstructure:"eps" yaml:"eps"`
	MaxIter    int       `mapstructure:"max_iter" yaml:"max_iter"`
	NLambda    int       `mapstructure:"nlambda" yaml:"nlambda"`
	LambdaMin  float64   `mapstructure:"lambda_min" yaml:"lambda_min"`
	Lambda     []float64 `mapstructure:"lambda" yaml:"lambda"`
	Multiplier []float64 `mapstructure:"multiplier" yaml:"multiplier"`
	DfMax      int       `mapstructure:"dfmax" yaml:"dfmax"`
	Threads    int       `mapstructure:"threads" yaml:"threads"`
	Warn       bool      `mapstructure:"warn" yaml:"warn"`
	Screen     string    `mapstructure:"screen" yaml:"screen"`
	ChunkCols  int       `mapstructure:"chunk_cols" yaml:"chunk_cols"`
	Verbose    string    `mapstructure:"verbose" yaml:"verbose"`
}

// OutputConfig controls result files and logging.
type OutputConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.access", "chunked")

	v.SetDefault("fit.alpha", 1.0)
	v.SetDefault("fit.eps", 1e-7)
	v.SetDefault("fit.max_iter", 1000)
	v.SetDefault("fit.nlambda", 100)
	v.SetDefault("fit.warn", true)
	v.SetDefault("fit.screen", "hsr")
	v.SetDefault("fit.chunk_cols", 64)
	v.SetDefault("fit.verbose", "last")

	v.SetDefault("output.path", "logitpath.out.yaml")
	v.SetDefault("output.log_level", "info")
}

func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LOGITPATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Data.Matrix == "":
		return errors.New("data.matrix is required")
	case c.Data.Rows <= 0 || c.Data.Cols <= 0:
		return errors.Newf("data.rows=%d data.cols=%d must be positive", c.Data.Rows, c.Data.Cols)
	case c.Data.Access != "mapped" && c.Data.Access != "chunked":
		return errors.Newf("data.access %q is not mapped or chunked", c.Data.Access)
	}
	if _, err := c.Fit.screenRule(); err != nil {
		return err
	}
	if _, err := c.Fit.logLevel(); err != nil {
		return err
	}
	return nil
}

func (f *FitConfig) screenRule() (logitnet.ScreenRule, error) {
	switch strings.ToLower(f.Screen) {
	case "hsr", "":
		return logitnet.ScreenHSR, nil
	case "hybrid", "hsr-edpp":
		return logitnet.ScreenHybrid, nil
	default:
		return 0, errors.Newf("fit.screen %q is not hsr or hybrid", f.Screen)
	}
}

func (f *FitConfig) logLevel() (logitnet.LogLevel, error) {
	switch strings.ToLower(f.Verbose) {
	case "noop", "none":
		return logitnet.LogNoop, nil
	case "last", "":
		return logitnet.LogLast, nil
	case "eval":
		return logitnet.LogEval, nil
	case "trace":
		return logitnet.LogTrace, nil
	default:
		return 0, errors.Newf("fit.verbose %q is not noop, last, eval or trace", f.Verbose)
	}
}

func setupLogger(cfg OutputConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
