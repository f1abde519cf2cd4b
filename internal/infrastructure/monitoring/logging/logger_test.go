package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newObservedLogger returns a Logger whose entries can be inspected.
func newObservedLogger() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, logs
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_DefaultsApplied(t *testing.T) {
	// Empty config must still produce a working logger.
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestZapLogger_EmitsFields(t *testing.T) {
	l, logs := newObservedLogger()

	l.Info("recommendation served",
		String("platform", "EV"),
		Int("candidates", 12),
		Float64("top_score", 0.91),
		Duration("elapsed", 5*time.Millisecond),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "recommendation served", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "EV", fields["platform"])
	assert.EqualValues(t, 12, fields["candidates"])
	assert.Equal(t, 0.91, fields["top_score"])
}

func TestZapLogger_WithAddsPersistentFields(t *testing.T) {
	l, logs := newObservedLogger()

	child := l.With(String("component", "dedup"))
	child.Warn("cluster below threshold")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dedup", entries[0].ContextMap()["component"])
}

func TestErr_NilErrorIsSafe(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)

	f = Err(errors.New("boom"))
	assert.Equal(t, "boom", f.Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("banana"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("child"))
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newObservedLogger()
	SetDefault(l)
	assert.Equal(t, l, Default())

	// nil must be ignored
	SetDefault(nil)
	assert.Equal(t, l, Default())
}
