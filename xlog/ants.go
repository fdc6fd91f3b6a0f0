package xlog

import (
	"go.uber.org/zap/zapcore"
)

// AntsXLogger implements the ants.Logger. The pool reports the task panics
// through it.
type AntsXLogger struct {
	logger XLogger
}

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Logf(zapcore.ErrorLevel, format, args...)
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	return &AntsXLogger{
		logger: componentXLogger(logger, "Ants"),
	}
}
