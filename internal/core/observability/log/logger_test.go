package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.With(String("component", "test")).Warn("routing miss",
		String("address", "/x/y"),
		Int("values", 2),
		Error(errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	ctx := entry.ContextMap()
	assert.Equal(t, "test", ctx["component"])
	assert.Equal(t, "/x/y", ctx["address"])
	assert.EqualValues(t, 2, ctx["values"])
	assert.Equal(t, "boom", ctx["error"])

	l.SetLevel(LevelError)
	l.Info("dropped")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, LevelError, l.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}

func TestNilErrorFieldIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewWithCore(core).Info("ok", Error(nil))
	require.Equal(t, 1, logs.Len())
	_, has := logs.All()[0].ContextMap()["error"]
	assert.False(t, has)
}

func TestProvideFallsBackToNop(t *testing.T) {
	assert.NotNil(t, Provide())
}
