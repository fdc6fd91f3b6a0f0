package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/benz9527/rbset/lib/infra"
	"github.com/benz9527/rbset/observability"
	"github.com/benz9527/rbset/xlog"
)

const envPrefix = "RBSET"

var (
	// Scenario A and B of the console demo.
	defaultDemoValues  = []int{9, 4, 2, 7, 5, 10, 1, 8, 3, 6}
	defaultDemoDeletes = []int{8, 1, 3, 6, 2, 10, 4, 7, 5, 9}
)

type DemoConfig struct {
	Values  []int `mapstructure:"values"`
	Deletes []int `mapstructure:"deletes"`
	Shuffle bool  `mapstructure:"shuffle"`
	Desc    bool  `mapstructure:"desc"`
}

type SoakConfig struct {
	Workers       int    `mapstructure:"workers"`
	Trials        int    `mapstructure:"trials"`
	Size          int    `mapstructure:"size"`
	ValidateEvery int    `mapstructure:"validate-every"`
	Seed          uint64 `mapstructure:"seed"`
}

// Config keys are the flag names, so that a flag, an env RBSET_<FLAG> and
// a YAML config file entry refer to the same setting.
type Config struct {
	LogLevel        string        `mapstructure:"log-level"`
	LogEncoder      string        `mapstructure:"log-encoder"`
	Metrics         string        `mapstructure:"metrics"`
	MetricsAddr     string        `mapstructure:"metrics-addr"`
	MetricsInterval time.Duration `mapstructure:"metrics-interval"`

	Demo DemoConfig `mapstructure:",squash"`
	Soak SoakConfig `mapstructure:",squash"`
}

func (cfg *Config) validate() error {
	var merr error
	if _, err := observability.ParseMetricsExporterType(cfg.Metrics); err != nil {
		merr = multierr.Append(merr, err)
	}
	if _, ok := logLevelOptions[strings.ToLower(cfg.LogLevel)]; !ok {
		merr = multierr.Append(merr, infra.NewErrorStack("unknown log level: "+cfg.LogLevel))
	}
	if _, ok := logEncoderOptions[strings.ToLower(cfg.LogEncoder)]; !ok {
		merr = multierr.Append(merr, infra.NewErrorStack("unknown log encoder: "+cfg.LogEncoder))
	}
	if cfg.MetricsInterval <= 0 {
		merr = multierr.Append(merr, infra.NewErrorStack("metrics interval must be positive"))
	}
	return merr
}

func (cfg *SoakConfig) validate() error {
	var merr error
	if cfg.Trials <= 0 || cfg.Size <= 0 {
		merr = multierr.Append(merr, infra.NewErrorStack("soak trials and size must be positive"))
	}
	if cfg.ValidateEvery < 0 {
		merr = multierr.Append(merr, infra.NewErrorStack("soak validate-every must not be negative"))
	}
	return merr
}

var (
	logLevelOptions = map[string]xlog.XLoggerOption{
		"debug": xlog.WithXLoggerLevel(xlog.LogLevelDebug),
		"info":  xlog.WithXLoggerLevel(xlog.LogLevelInfo),
		"warn":  xlog.WithXLoggerLevel(xlog.LogLevelWarn),
		"error": xlog.WithXLoggerLevel(xlog.LogLevelError),
	}
	logEncoderOptions = map[string]xlog.XLoggerOption{
		"json":      xlog.WithXLoggerEncoder(xlog.JSON),
		"plaintext": xlog.WithXLoggerEncoder(xlog.PlainText),
		"console":   xlog.WithXLoggerEncoder(xlog.PlainText),
	}
)

func newXLogger(cfg *Config, opts ...xlog.XLoggerOption) xlog.XLogger {
	return xlog.NewXLogger(append([]xlog.XLoggerOption{
		logLevelOptions[strings.ToLower(cfg.LogLevel)],
		logEncoderOptions[strings.ToLower(cfg.LogEncoder)],
	}, opts...)...)
}

// loadConfig merges the settings by the precedence flag > env > config
// file > default.
func loadConfig(v *viper.Viper, cmd *cobra.Command, cfg *Config) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Enable environment variable binding, the env vars are not overloaded yet.
	v.AutomaticEnv()

	// Once the flags are defined, we can bind config keys with flags.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return infra.WrapErrorStackWithMessage(err, "failed to bind flags")
	}

	if path := v.GetString("config"); len(path) > 0 {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return infra.WrapErrorStackWithMessage(err, "failed to load config file "+path)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return infra.WrapErrorStackWithMessage(err, "failed to decode config")
	}
	return cfg.validate()
}
