package achan

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Contains(t, LogLevel(99).String(), "UNKNOWN")
}

func TestNoOpLogger_NeverEnabled(t *testing.T) {
	l := NewNoOpLogger()
	assert.False(t, l.IsEnabled(LevelDebug))
	assert.False(t, l.IsEnabled(LevelError))
	l.Log(LogEntry{Level: LevelError, Message: "ignored"}) // must not panic
}

func TestWriterLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelWarn, &buf)
	assert.False(t, l.IsEnabled(LevelDebug))
	assert.True(t, l.IsEnabled(LevelError))

	l.Log(LogEntry{Level: LevelDebug, Category: "controller", Message: "should not appear"})
	assert.Empty(t, buf.String())

	l.Log(LogEntry{Level: LevelWarn, Category: "controller", Name: "ch1", Message: "overflow", Context: map[string]interface{}{"limit": 1024}})
	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "controller")
	assert.Contains(t, out, "overflow")
	assert.Contains(t, out, "name=ch1")
	assert.Contains(t, out, "limit=1024")
}

func TestWriterLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelError, &buf)
	l.SetLevel(LevelDebug)
	assert.True(t, l.IsEnabled(LevelDebug))
}

func TestWriterLogger_LogsErrSuffix(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelError, &buf)
	l.Log(LogEntry{Level: LevelError, Category: "controller", Message: "boom", Err: errors.New("bad")})
	assert.Contains(t, buf.String(), "err=bad")
}

func TestNewFileLogger_WritesPlainTextEntries(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/log.txt"
	l, err := NewFileLogger(LevelDebug, path)
	require.NoError(t, err)
	l.Log(LogEntry{Level: LevelInfo, Category: "buffer", Name: "b1", Message: "hello"})

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(b)
	assert.Contains(t, content, "INFO")
	assert.Contains(t, content, "buffer")
	assert.Contains(t, content, "name=b1")
	assert.Contains(t, content, "hello")
}

func TestGlobalLogger_DefaultsToNoOp(t *testing.T) {
	SetStructuredLogger(nil)
	l := getGlobalLogger()
	assert.False(t, l.IsEnabled(LevelError))
}

func TestGlobalLogger_SetAndRetrieve(t *testing.T) {
	var buf bytes.Buffer
	custom := NewWriterLogger(LevelDebug, &buf)
	SetStructuredLogger(custom)
	defer SetStructuredLogger(nil)

	assert.Equal(t, Logger(custom), getGlobalLogger())
	SDebug("controller", "hello", map[string]interface{}{"k": "v"})
	assert.Contains(t, buf.String(), "hello")
}

func TestSWarnSError_RouteThroughGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := NewWriterLogger(LevelDebug, &buf)
	SetStructuredLogger(custom)
	defer SetStructuredLogger(nil)

	SWarn("buffer", "warn message")
	SError("combinator", "error message", errors.New("x"))
	out := buf.String()
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLogPushPullOverflow_GatedByWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelError, &buf)
	LogPushOverflow(l, "ch", MaxQueueLength)
	LogPullOverflow(l, "ch", MaxQueueLength)
	assert.Empty(t, buf.String())

	l.SetLevel(LevelWarn)
	LogPushOverflow(l, "ch", MaxQueueLength)
	assert.Contains(t, buf.String(), "push queue overflow")
}

func TestLogUnhandledRejection(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelWarn, &buf)
	LogUnhandledRejection(l, "ch", errors.New("late rejection"))
	assert.Contains(t, buf.String(), "absorbed")
	assert.Contains(t, buf.String(), "late rejection")
}

func TestLogCombinatorError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelDebug, &buf)
	LogCombinatorError(l, "Race", "ch", errors.New("inner failed"))
	assert.Contains(t, buf.String(), "Race")
	assert.Contains(t, buf.String(), "inner failed")
}
