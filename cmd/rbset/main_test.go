package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/rbset/xlog"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	root := newRootCmd(cfg)
	cmd, flags, err := root.Find(args)
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(flags))
	return cfg, loadConfig(viper.New(), cmd, cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(tt *testing.T) {
		cfg, err := parseConfig(tt, "demo")
		require.NoError(tt, err)
		require.Equal(tt, "info", cfg.LogLevel)
		require.Equal(tt, "plaintext", cfg.LogEncoder)
		require.Equal(tt, "none", cfg.Metrics)
		require.Equal(tt, 10*time.Second, cfg.MetricsInterval)
		require.Equal(tt, defaultDemoValues, cfg.Demo.Values)
		require.Equal(tt, defaultDemoDeletes, cfg.Demo.Deletes)
		require.False(tt, cfg.Demo.Shuffle)
	})

	t.Run("flags", func(tt *testing.T) {
		cfg, err := parseConfig(tt, "soak", "--workers", "8", "--size", "64", "--seed", "9527", "--log-level", "debug")
		require.NoError(tt, err)
		require.Equal(tt, "debug", cfg.LogLevel)
		require.Equal(tt, 8, cfg.Soak.Workers)
		require.Equal(tt, 16, cfg.Soak.Trials)
		require.Equal(tt, 64, cfg.Soak.Size)
		require.Equal(tt, uint64(9527), cfg.Soak.Seed)
		require.NoError(tt, cfg.Soak.validate())
	})

	t.Run("env", func(tt *testing.T) {
		tt.Setenv("RBSET_LOG_LEVEL", "warn")
		tt.Setenv("RBSET_METRICS_ADDR", "127.0.0.1:9090")
		cfg, err := parseConfig(tt, "demo", "--values", "3,1,2")
		require.NoError(tt, err)
		require.Equal(tt, "warn", cfg.LogLevel)
		require.Equal(tt, "127.0.0.1:9090", cfg.MetricsAddr)
		require.Equal(tt, []int{3, 1, 2}, cfg.Demo.Values)
	})

	t.Run("config file", func(tt *testing.T) {
		path := filepath.Join(tt.TempDir(), "rbset.yaml")
		require.NoError(tt, os.WriteFile(path, []byte("log-encoder: json\nlog-level: debug\nshuffle: true\n"), 0o600))
		cfg, err := parseConfig(tt, "demo", "--config", path, "--log-level", "error")
		require.NoError(tt, err)
		require.Equal(tt, "json", cfg.LogEncoder)
		require.Equal(tt, "error", cfg.LogLevel)
		require.True(tt, cfg.Demo.Shuffle)
	})

	t.Run("invalid", func(tt *testing.T) {
		_, err := parseConfig(tt, "demo", "--metrics", "otlp", "--log-level", "trace")
		require.Error(tt, err)
		require.Contains(tt, err.Error(), "unknown metrics exporter type")
		require.Contains(tt, err.Error(), "unknown log level")

		_, err = parseConfig(tt, "demo", "--config", filepath.Join(tt.TempDir(), "absent.yaml"))
		require.Error(tt, err)
	})

	require.Error(t, (&SoakConfig{Trials: 1}).validate())
	require.Error(t, (&SoakConfig{Trials: 1, Size: 1, ValidateEvery: -1}).validate())
}

func testConfig() *Config {
	return &Config{
		LogLevel:        "debug",
		LogEncoder:      "json",
		Metrics:         "none",
		MetricsInterval: time.Second,
		Demo: DemoConfig{
			Values:  defaultDemoValues,
			Deletes: defaultDemoDeletes,
		},
		Soak: SoakConfig{
			Workers:       2,
			Trials:        4,
			Size:          500,
			ValidateEvery: 50,
			Seed:          9527,
		},
	}
}

func TestDemoRunner(t *testing.T) {
	cfg := testConfig()
	w := &syncBuffer{}
	r := newDemoRunner(cfg, newXLogger(cfg, xlog.WithXLoggerWriter(w)), nil)

	set, err := r.run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), set.Len())
	require.Contains(t, w.String(), "leaf path")
	require.Contains(t, w.String(), "(node=")
	require.Contains(t, w.String(), "demo finished")
}

func TestDemoRunner_DescShuffleDuplicates(t *testing.T) {
	cfg := testConfig()
	cfg.Demo = DemoConfig{
		Values:  []int{5, 3, 8, 3, 1, 9, 5},
		Deletes: []int{3, 42},
		Shuffle: true,
		Desc:    true,
	}
	w := &syncBuffer{}
	r := newDemoRunner(cfg, newXLogger(cfg, xlog.WithXLoggerWriter(w)), nil)

	set, err := r.run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), set.Len())
	_min, ok := set.Min()
	require.True(t, ok)
	require.Equal(t, 9, _min)
	require.Contains(t, w.String(), "duplicate key rejected")
	require.Contains(t, w.String(), "\"found\":false")
}

func TestDemoRunner_Canceled(t *testing.T) {
	cfg := testConfig()
	r := newDemoRunner(cfg, newXLogger(cfg, xlog.WithXLoggerWriter(io.Discard)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.Run(ctx), context.Canceled)
}

func TestSoakRunner(t *testing.T) {
	cfg := testConfig()
	w := &syncBuffer{}
	r, err := newSoakRunner(cfg, newXLogger(cfg, xlog.WithXLoggerWriter(w)), nil)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))
	require.Contains(t, w.String(), "soak finished")
	require.Contains(t, w.String(), "\"seed\":9527")

	cfg.Soak.ValidateEvery = 0
	cfg.Soak.Seed = 0
	r, err = newSoakRunner(cfg, newXLogger(cfg, xlog.WithXLoggerWriter(io.Discard)), nil)
	require.NoError(t, err)
	require.NotZero(t, r.cfg.Seed)
	require.NoError(t, r.Run(context.Background()))

	cfg.Soak.Trials = 0
	_, err = newSoakRunner(cfg, newXLogger(cfg, xlog.WithXLoggerWriter(io.Discard)), nil)
	require.Error(t, err)
}

func TestSoakRunner_Canceled(t *testing.T) {
	cfg := testConfig()
	r, err := newSoakRunner(cfg, newXLogger(cfg, xlog.WithXLoggerWriter(io.Discard)), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "soak failed, 4 errors")
}

type failRunner struct{}

func (failRunner) Run(ctx context.Context) error {
	return errors.New("runner failed")
}

type probeRunner struct {
	exporter *metricsExporter
	body     string
}

func (r *probeRunner) Run(ctx context.Context) error {
	resp, err := http.Get("http://" + r.exporter.addr + "/metrics")
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	r.body = string(body)
	return err
}

func TestRunCommand(t *testing.T) {
	t.Run("demo", func(tt *testing.T) {
		w := &syncBuffer{}
		require.NoError(tt, runCommand(context.Background(), testConfig(), newDemoRunner, xlog.WithXLoggerWriter(w)))
		require.Contains(tt, w.String(), "demo finished")
		require.Contains(tt, w.String(), "\"component\":\"Fx\"")
	})

	t.Run("runner error", func(tt *testing.T) {
		w := &syncBuffer{}
		err := runCommand(context.Background(), testConfig(), func() *failRunner {
			return &failRunner{}
		}, xlog.WithXLoggerWriter(w))
		require.EqualError(tt, err, "runner failed")
		require.Contains(tt, w.String(), "rbset failed")
	})

	t.Run("constructor error", func(tt *testing.T) {
		err := runCommand(context.Background(), testConfig(), func() (*failRunner, error) {
			return nil, errors.New("boom")
		}, xlog.WithXLoggerWriter(io.Discard))
		require.Error(tt, err)
		require.Contains(tt, err.Error(), "boom")
	})

	t.Run("prometheus", func(tt *testing.T) {
		cfg := testConfig()
		cfg.Metrics = "prometheus"
		cfg.MetricsAddr = "127.0.0.1:0"
		probe := &probeRunner{}
		err := runCommand(context.Background(), cfg, func(e *metricsExporter) *probeRunner {
			probe.exporter = e
			return probe
		}, xlog.WithXLoggerWriter(io.Discard))
		require.NoError(tt, err)
		require.Contains(tt, probe.body, "app_core_goroutines")
	})
}

func TestRootCmd_Execute(t *testing.T) {
	root := newRootCmd(&Config{})
	root.SetArgs([]string{"demo", "--log-level", "error", "--values", "1,2,3", "--deletes", "2"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	root = newRootCmd(&Config{})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"soak", "--trials", "0"})
	require.Error(t, root.ExecuteContext(context.Background()))
}
