package xlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/rbset/lib/infra"
)

type testMemOutWriter struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (w *testMemOutWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.buf.Write(p)
}

func (w *testMemOutWriter) String() string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.buf.String()
}

func (w *testMemOutWriter) Reset() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.buf.Reset()
}

func (w *testMemOutWriter) lines(t *testing.T) []map[string]any {
	t.Helper()
	res := make([]map[string]any, 0, 8)
	for _, line := range strings.Split(strings.TrimSpace(w.String()), "\n") {
		if len(line) == 0 {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		res = append(res, m)
	}
	return res
}

func newTestXLogger(lvl logLevel) (XLogger, *testMemOutWriter) {
	w := &testMemOutWriter{}
	return NewXLogger(
		WithXLoggerLevel(lvl),
		WithXLoggerEncoder(JSON),
		WithXLoggerTimeEncoder(zapcore.ISO8601TimeEncoder),
		WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
		WithXLoggerWriter(w),
	), w
}

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())

	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault(" "))
	require.Equal(t, zapcore.WarnLevel, getLogLevelOrDefault("warn"))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault("verbose"))
}

func TestXLogger_LevelChanged(t *testing.T) {
	logger, w := newTestXLogger(LogLevelInfo)
	require.Equal(t, "info", logger.Level())

	logger.Debug("hidden")
	logger.Info("shown", zap.Int("key", 1))
	require.NoError(t, logger.Sync())

	lines := w.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "shown", lines[0]["msg"])
	require.Equal(t, "INFO", lines[0]["lvl"])
	require.Equal(t, float64(1), lines[0]["key"])
	require.Contains(t, lines[0]["callAt"], "xlog_test.go")
	w.Reset()

	logger.IncreaseLogLevel(zapcore.DebugLevel)
	require.Equal(t, "debug", logger.Level())
	logger.Debug("shown")
	logger.Logf(zapcore.WarnLevel, "rbset %d keys", 10)
	lines = w.lines(t)
	require.Len(t, lines, 2)
	require.Equal(t, "DEBUG", lines[0]["lvl"])
	require.Equal(t, "rbset 10 keys", lines[1]["msg"])
	require.Equal(t, "WARN", lines[1]["lvl"])
}

func TestXLogger_Errors(t *testing.T) {
	logger, w := newTestXLogger(LogLevelDebug)

	logger.Error(errors.New("plain"), "failed")
	logger.ErrorStack(infra.NewErrorStack("broken"), "validate failed", zap.String("cmd", "demo"))
	logger.ErrorStack(errors.New("no stack"), "fallback")
	logger.ErrorStackf(infra.WrapErrorStackWithMessage(errors.New("base"), "wrapped"), "trial %d", 3)

	lines := w.lines(t)
	require.Len(t, lines, 4)
	require.Equal(t, "plain", lines[0]["error"])
	require.Equal(t, "ERROR", lines[0]["lvl"])

	require.Equal(t, "broken", lines[1]["error"])
	require.Equal(t, "demo", lines[1]["cmd"])
	require.NotEmpty(t, lines[1]["errorStack"])

	require.Equal(t, "no stack", lines[2]["error"])
	require.Nil(t, lines[2]["errorStack"])

	require.Equal(t, "trial 3", lines[3]["msg"])
	require.Equal(t, "wrapped: base", lines[3]["error"])
}

func TestXLogger_BadOptions(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerWriter(nil))
	})
	require.NotPanics(t, func() {
		l := NewXLogger(nil, WithXLoggerLevelEncoder(nil), WithXLoggerTimeEncoder(nil))
		require.NotNil(t, l)
	})
}

type testBanner struct{}

func (b testBanner) JSON() string {
	return "{\"app\":\"rbset\"}"
}

func (b testBanner) PlainText() string {
	return "rbset"
}

func TestXLogger_Banner(t *testing.T) {
	printBanner = sync.Once{}
	logger, w := newTestXLogger(LogLevelError)
	logger.Banner(testBanner{})
	require.Equal(t, "{\"banner\":\"{\\\"app\\\":\\\"rbset\\\"}\"}\n", w.String())

	// Printed once only.
	logger.Banner(testBanner{})
	require.Equal(t, "{\"banner\":\"{\\\"app\\\":\\\"rbset\\\"}\"}\n", w.String())

	printBanner = sync.Once{}
	w2 := &testMemOutWriter{}
	logger = NewXLogger(WithXLoggerEncoder(PlainText), WithXLoggerWriter(w2))
	logger.Banner(testBanner{})
	require.Equal(t, "rbset\n", w2.String())
}

func TestXLogger_MultiWriters(t *testing.T) {
	w1, w2 := &testMemOutWriter{}, &testMemOutWriter{}
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerWriter(w1),
		WithXLoggerWriter(w2),
	)
	logger.Info("both")
	require.Len(t, w1.lines(t), 1)
	require.Len(t, w2.lines(t), 1)
	require.NoError(t, logger.Sync())

	tee := xLogMultiCore{}
	require.Nil(t, tee.writeSyncer())
	require.Nil(t, tee.levelEncoder())
	require.Nil(t, tee.timeEncoder())
	require.Nil(t, tee.outEncoder())
	require.False(t, tee.Enabled(zapcore.ErrorLevel))
}

func TestConsoleCore(t *testing.T) {
	lvlEnabler := zap.NewAtomicLevelAt(LogLevelDebug.zapLevel())
	require.Nil(t, newConsoleCore(
		&lvlEnabler,
		JSON,
		nil,
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	))

	w := &testMemOutWriter{}
	cc := newConsoleCore(
		&lvlEnabler,
		JSON,
		zapcore.AddSync(w),
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	)
	require.NotNil(t, cc.outEncoder())
	require.NotNil(t, cc.writeSyncer())
	require.NotNil(t, cc.levelEncoder())
	require.NotNil(t, cc.timeEncoder())

	require.True(t, cc.Enabled(zapcore.DebugLevel))
	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, cc.Enabled(zapcore.DebugLevel))
	require.False(t, cc.Enabled(zapcore.WarnLevel))
	require.True(t, cc.Enabled(zapcore.ErrorLevel))
	lvlEnabler.SetLevel(zapcore.DebugLevel)

	withCore, ok := cc.With([]zap.Field{zap.String("key", "value")}).(xLogCore)
	require.True(t, ok)
	require.NotNil(t, withCore.outEncoder())
	ent := cc.Check(zapcore.Entry{Level: zapcore.DebugLevel}, nil)
	require.NotNil(t, ent)
	require.NoError(t, cc.Write(ent.Entry, []zap.Field{zap.String("key", "value")}))
	require.NoError(t, cc.Sync())

	wrapped, err := WrapCore(cc, componentCoreEncoderCfg)
	require.NoError(t, err)
	require.NoError(t, wrapped.Write(zapcore.Entry{Level: zapcore.DebugLevel, LoggerName: "commonCore"}, []zap.Field{zap.String("key", "value")}))
	require.NoError(t, wrapped.Sync())
	require.Contains(t, w.String(), "\"component\":\"commonCore\"")

	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, wrapped.Enabled(zapcore.InfoLevel))

	_, err = WrapCore(nil, componentCoreEncoderCfg)
	require.Error(t, err)
	_, err = WrapCore(cc, nil)
	require.Error(t, err)
}

func TestXLogger_WithKeepsCores(t *testing.T) {
	parentLogger, w := newTestXLogger(LogLevelDebug)
	child := parentLogger.zap().With(zap.String("set", "demo"))
	require.IsType(t, xLogMultiCore{}, child.Core())

	child.Info("with fields")
	lines := w.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "demo", lines[0]["set"])
	require.Equal(t, "with fields", lines[0]["msg"])
}

func TestAntsXLogger_ParentLogLevelChanged(t *testing.T) {
	var logger *AntsXLogger
	logger.Printf("test %d", 123)

	parentLogger, w := newTestXLogger(LogLevelDebug)
	logger = NewAntsXLogger(parentLogger)
	logger.Printf("test %d", 123)
	lines := w.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "Ants", lines[0]["component"])
	require.Equal(t, "test 123", lines[0]["msg"])
	require.Nil(t, lines[0]["callAt"])
	w.Reset()

	parentLogger.IncreaseLogLevel(zapcore.FatalLevel)
	logger.Printf("test %d", 456)
	require.Empty(t, w.String())
}

func TestAntsXLogger_AntsPool(t *testing.T) {
	parentLogger, w := newTestXLogger(LogLevelDebug)
	p, err := antsv2.NewPool(10, antsv2.WithLogger(NewAntsXLogger(parentLogger)))
	require.NoError(t, err)
	defer p.Release()

	require.NoError(t, p.Submit(func() {
		panic("xlogger panic in ants pool")
	}))
	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "xlogger panic in ants pool")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFxXLogger(t *testing.T) {
	var nilLogger *FxXLogger
	nilLogger.LogEvent(&fxevent.Started{})

	parentLogger, w := newTestXLogger(LogLevelDebug)
	logger := NewFxXLogger(parentLogger)
	logger.LogEvent(&fxevent.Started{})
	logger.LogEvent(&fxevent.Invoked{FunctionName: "main.run", Err: errors.New("failed")})
	logger.LogEvent(&fxevent.Provided{ConstructorName: "newConfig", OutputTypeNames: []string{"main.Config"}})
	logger.LogEvent(&fxevent.OnStartExecuted{FunctionName: "main.start", CallerName: "main.newExporter", Runtime: time.Millisecond})
	logger.LogEvent(&fxevent.Supplied{TypeName: "*main.Config", ModuleName: "rbset"})
	// Successful replace and decorate are silent.
	logger.LogEvent(&fxevent.Replaced{OutputTypeNames: []string{"main.Config"}})
	logger.LogEvent(&fxevent.Decorated{DecoratorName: "main.decorate"})

	lines := w.lines(t)
	require.Len(t, lines, 5)
	require.Equal(t, "app started", lines[0]["msg"])
	require.Equal(t, "Fx", lines[0]["component"])
	require.Equal(t, "invoke failed", lines[1]["msg"])
	require.Equal(t, "failed", lines[1]["error"])
	require.Equal(t, "main.run", lines[1]["function"])
	require.Equal(t, "provided", lines[2]["msg"])
	require.Equal(t, []any{"main.Config"}, lines[2]["types"])
	require.Equal(t, "newConfig", lines[2]["constructor"])
	require.Equal(t, "hook OnStart done", lines[3]["msg"])
	require.Equal(t, "main.newExporter", lines[3]["caller"])
	require.Contains(t, lines[3], "in")
	require.Equal(t, "supplied", lines[4]["msg"])
	require.Equal(t, "rbset", lines[4]["module"])
	w.Reset()

	parentLogger.IncreaseLogLevel(zapcore.InfoLevel)
	logger.LogEvent(&fxevent.Started{})
	require.Empty(t, w.String())
}
