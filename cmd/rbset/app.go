package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/rbset/lib/infra"
	"github.com/benz9527/rbset/observability"
	"github.com/benz9527/rbset/xlog"
)

type runner interface {
	Run(ctx context.Context) error
}

type rbsetBanner struct{}

func (rbsetBanner) JSON() string {
	return `{"app":"rbset","desc":"red-black tree ordered set"}`
}

func (rbsetBanner) PlainText() string {
	return `
 ____  ____   ____  _____ _____
|  _ \| __ ) / ___|| ____|_   _|
| |_) |  _ \ \___ \|  _|   | |
|  _ <| |_) | ___) | |___  | |
|_| \_\____/ |____/|_____| |_|
`
}

type metricsExporter struct {
	typ      observability.MetricsExporterType
	shutdown observability.ShutdownFunc
	srv      *http.Server
	addr     string
}

func (e *metricsExporter) enabled() bool {
	return e != nil && e.typ != observability.NoneMetrics
}

func newMetricsExporter(lc fx.Lifecycle, cfg *Config, logger xlog.XLogger) (*metricsExporter, error) {
	typ, err := observability.ParseMetricsExporterType(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	e := &metricsExporter{typ: typ}
	switch typ {
	case observability.ConsoleMetrics:
		e.shutdown, err = observability.NewConsoleMetricsExporter(cfg.MetricsInterval, 5*time.Second)
	case observability.PrometheusMetrics:
		if e.shutdown, err = observability.NewPrometheusMetricsExporter(); err == nil {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.NewMetricsHandler(nil))
			e.srv = &http.Server{
				Addr:              cfg.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
		}
	case observability.NoneMetrics:
		fallthrough
	default:
		return e, nil
	}
	if err != nil {
		return nil, err
	}
	if err = observability.InitAppStats("cli"); err != nil {
		logger.ErrorStack(err, "app stats disabled")
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if e.srv == nil {
				return nil
			}
			ln, err := net.Listen("tcp", e.srv.Addr)
			if err != nil {
				return infra.WrapErrorStackWithMessage(err, "metrics listen")
			}
			e.addr = ln.Addr().String()
			logger.Info("metrics server listening", zap.String("addr", e.addr))
			go func() {
				if err := e.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.ErrorStack(infra.WrapErrorStack(err), "metrics server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var err error
			if e.srv != nil {
				err = e.srv.Shutdown(ctx)
			}
			return multierr.Append(err, e.shutdown(ctx))
		},
	})
	return e, nil
}

// runCommand builds the fx app around the runner. The metrics exporter is
// started before the runner and flushed after it.
func runCommand(ctx context.Context, cfg *Config, constructor any, logOpts ...xlog.XLoggerOption) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newXLogger(cfg, logOpts...)
	defer func() {
		_ = logger.Sync()
	}()
	logger.Banner(rbsetBanner{})

	var job runner
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Supply(cfg),
		fx.Provide(
			func() xlog.XLogger { return logger },
			newMetricsExporter,
			fx.Annotate(constructor, fx.As(new(runner))),
		),
		fx.Populate(&job),
	)
	if err = app.Err(); err != nil {
		err = infra.WrapErrorStackWithMessage(err, "build app")
		logger.ErrorStack(err, "rbset failed")
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err = app.Start(startCtx); err != nil {
		err = infra.WrapErrorStackWithMessage(err, "start app")
		logger.ErrorStack(err, "rbset failed")
		return err
	}

	runErr := job.Run(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	if stopErr := app.Stop(stopCtx); stopErr != nil {
		logger.ErrorStack(infra.WrapErrorStackWithMessage(stopErr, "stop app"), "rbset stop failed")
	}
	if runErr != nil {
		err = infra.WrapErrorStack(runErr)
		logger.ErrorStack(err, "rbset failed")
		return err
	}
	return nil
}
