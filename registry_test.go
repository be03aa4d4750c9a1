package achan

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArmLeakDetector_FiresOnGCWhenNotTerminal(t *testing.T) {
	var logged atomic.Bool
	fired := make(chan struct{})
	logger := &captureLogger{onLog: func(e LogEntry) {
		logged.Store(true)
		close(fired)
	}}
	var terminal atomic.Bool

	func() {
		obj := new(int)
		armLeakDetector(obj, logger, "ch", captureCreationStack(), &terminal)
		_ = obj
	}()

	for i := 0; i < 10; i++ {
		runtime.GC()
		select {
		case <-fired:
			break
		case <-time.After(50 * time.Millisecond):
		}
	}

	select {
	case <-fired:
		assert.True(t, logged.Load())
	case <-time.After(time.Second):
		t.Skip("cleanup did not fire within the polling window; GC timing is not guaranteed")
	}
}

func TestArmLeakDetector_SilentWhenTerminal(t *testing.T) {
	var logged atomic.Bool
	logger := &captureLogger{onLog: func(e LogEntry) { logged.Store(true) }}
	var terminal atomic.Bool
	terminal.Store(true)

	func() {
		obj := new(int)
		armLeakDetector(obj, logger, "ch", captureCreationStack(), &terminal)
		_ = obj
	}()

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, logged.Load())
}

func TestCaptureCreationStack_ReturnsNonEmpty(t *testing.T) {
	stack := captureCreationStack()
	assert.NotEmpty(t, stack)
}

type captureLogger struct {
	onLog func(LogEntry)
}

func (c *captureLogger) Log(e LogEntry)              { c.onLog(e) }
func (c *captureLogger) IsEnabled(level LogLevel) bool { return true }
