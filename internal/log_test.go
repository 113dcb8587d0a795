package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel(" warn "))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("loud"))
}

func TestLoggerWritesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core), LogLevelDebug)

	l.Info("[Grouped] %d panels", 3)
	l.Warn("[DataReader] skipped %q", "sheet2")
	l.Trace("hidden below trace")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "[Grouped] 3 panels", entries[0].Message)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, `[DataReader] skipped "sheet2"`, entries[1].Message)
	}
}

func TestTraceNeedsTraceLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core), LogLevelTrace)
	l.Trace("step %d", 1)
	assert.Equal(t, 1, logs.FilterMessage("[TRACE] step 1").Len())
}
