package achan

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"
)

// armLeakDetector registers obj (a *Channel[T]) for a one-shot,
// GC-triggered diagnostic: if obj becomes unreachable before terminal is
// ever flipped true, its creation stack is logged once as a likely
// abandoned channel (spec §9, "supplemented" diagnostics for
// WithDebugMode).
//
// The teacher tracks live promises with a weak-pointer-indexed ring
// buffer, scavenged incrementally across batches to amortize the cost of
// detecting settled-or-collected entries over many promises sharing one
// loop. That shape doesn't generalize here: Controller is generic, and a
// process-wide registry keyed across arbitrary T instantiations would
// need a type-erased entry for no real benefit, since runtime.AddCleanup
// already does the GC-triggered bookkeeping a scavenger would otherwise
// exist to approximate, and channels (unlike promises) are not created at
// a volume that benefits from ring-buffer batching.
func armLeakDetector(obj any, logger Logger, name, stack string, terminal *atomic.Bool) {
	runtime.AddCleanup(obj, func(_ struct{}) {
		if terminal.Load() {
			return
		}
		logger.Log(LogEntry{
			Level:    LevelWarn,
			Category: "controller",
			Name:     name,
			Message:  "channel garbage-collected before reaching a terminal state",
			Context:  map[string]interface{}{"created_at": stack},
		})
	}, struct{}{})
}

// captureCreationStack returns the current goroutine's full stack trace,
// untrimmed, for attribution in the leak diagnostic above. Only called when WithDebugMode is enabled: it is not free.
func captureCreationStack() string {
	return string(debug.Stack())
}
