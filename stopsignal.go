package achan

import (
	"sync"
)

// StopSignal is the dual handle described in spec §4.2.6 and §9: it is
// simultaneously awaitable (via [StopSignal.Done] and [StopSignal.Err])
// and callable (via [StopSignal.Stop]), letting an executor both
//
//	<-stop.Done()
//
// to observe teardown, and other code call
//
//	stop.Stop(err)
//
// to trigger it. It resolves exactly once (invariant I8): the first call
// to Stop wins, and every subsequent call is a silent no-op.
//
// StopSignal is safe for concurrent use from any goroutine.
type StopSignal struct {
	mu       sync.Mutex
	done     chan struct{}
	err      error
	resolved bool
}

// newStopSignal creates a StopSignal in its unresolved state.
func newStopSignal() *StopSignal {
	return &StopSignal{done: make(chan struct{})}
}

// Done returns a channel that is closed once the signal resolves. A nil
// error on the signal does not imply the channel is open — callers must
// select on Done, then read Err.
func (s *StopSignal) Done() <-chan struct{} {
	return s.done
}

// Err returns the error the signal resolved with, or nil if it resolved
// without one, or if it has not yet resolved.
func (s *StopSignal) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Resolved reports whether the signal has already fired.
func (s *StopSignal) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Stop resolves the signal with err, if it has not already resolved.
// Calling Stop on an already-resolved signal has no effect: the error
// passed to the first call wins (spec §4.2.3, "unless one is already
// recorded, in which case the earlier one wins").
func (s *StopSignal) Stop(err error) {
	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		return
	}
	s.resolved = true
	s.err = err
	close(s.done)
	s.mu.Unlock()
}
