package xlog

import (
	"time"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxXLogger implements the fxevent.Logger.
// Replace and Decorate events are not used by the rbset app and only show
// up as errors.
type FxXLogger struct {
	logger XLogger
}

func hookFields(function, caller string, runtime time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("function", function),
		zap.String("caller", caller),
	}
	if runtime > 0 {
		fields = append(fields, zap.Duration("in", runtime))
	}
	return fields
}

func moduleFields(module string, fields ...zap.Field) []zap.Field {
	if module == "" {
		return fields
	}
	return append(fields, zap.String("module", module))
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("hook OnStart executing", hookFields(e.FunctionName, e.CallerName, 0)...)
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "hook OnStart failed", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
			return
		}
		l.logger.Debug("hook OnStart done", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
	case *fxevent.OnStopExecuting:
		l.logger.Debug("hook OnStop executing", hookFields(e.FunctionName, e.CallerName, 0)...)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "hook OnStop failed", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
			return
		}
		l.logger.Debug("hook OnStop done", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "supply failed",
				zap.String("type", e.TypeName),
				zap.Strings("stacktrace", e.StackTrace),
			)
			return
		}
		l.logger.Debug("supplied", moduleFields(e.ModuleName, zap.String("type", e.TypeName))...)
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error(e.Err, "provide failed",
				zap.String("constructor", e.ConstructorName),
				zap.Strings("stacktrace", e.StackTrace),
			)
			return
		}
		l.logger.Debug("provided", moduleFields(e.ModuleName,
			zap.Strings("types", e.OutputTypeNames),
			zap.String("constructor", e.ConstructorName),
			zap.Bool("private", e.Private),
		)...)
	case *fxevent.Replaced:
		if e.Err != nil {
			l.logger.Error(e.Err, "replace failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Decorated:
		if e.Err != nil {
			l.logger.Error(e.Err, "decorate failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Invoking:
		l.logger.Debug("invoking", moduleFields(e.ModuleName, zap.String("function", e.FunctionName))...)
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "invoke failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "app start failed")
			return
		}
		l.logger.Debug("app started")
	case *fxevent.RollingBack:
		l.logger.Warn("app start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "app roll back failed")
		}
	case *fxevent.Stopping:
		l.logger.Info("app stopping", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "app stop failed")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx logger init failed")
			return
		}
		l.logger.Debug("fx logger initialized", zap.String("constructor", e.ConstructorName))
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: componentXLogger(logger, "Fx")}
}
