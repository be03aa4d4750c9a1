package achan

import "context"

// MaxQueueLength is the maximum number of pending push or pull records a
// Controller will queue before raising [OverflowError] (spec §6,
// invariant I7). The limit applies independently to the push queue and
// the pull queue.
const MaxQueueLength = 1024

// Future is implemented by values that represent an asynchronous result
// pushed into a Channel. Pushed futures are awaited to their underlying
// value before being exposed to a consumer as a [Result]; the unwrapped
// future is never itself observable through Result.Value (spec §9,
// "deferred-of-deferred").
type Future[T any] interface {
	Await(ctx context.Context) (T, error)
}

// Result is the outcome of one iteration: either a value (HasValue true,
// Done false or true) or a terminal "done" with no value (HasValue
// false). Value is only meaningful when HasValue is true.
type Result[T any] struct {
	Value    T
	Done     bool
	HasValue bool
}

// PushResult is what a push's returned channel eventually resolves to:
// either the hint of whichever pull consumed the pushed value (Accepted
// true), or notice that the push did not land because the channel had
// already stopped (Accepted false, spec §4.2.2 step 1, invariant I4/P5).
type PushResult struct {
	Hint     any
	Accepted bool
}

// rawValue is the internal representation of one pushed item: either a
// concrete T, or a Future[T] to be awaited before it reaches a consumer.
// It is the element type of the Controller's buffer and push queue so
// that a single Buffer[T] instantiation can hold both cases uniformly.
type rawValue[T any] struct {
	future Future[T]
	value  T
}

func rawFromValue[T any](v T) rawValue[T] { return rawValue[T]{value: v} }

func rawFromFuture[T any](f Future[T]) rawValue[T] { return rawValue[T]{future: f} }

// Pusher is the push callable handed to an [Executor]: it is how the
// executor produces values (spec §4.2.2). Push accepts a concrete value;
// PushFuture accepts a [Future[T]] whose eventual value (or rejection) is
// awaited before being exposed to whichever pull consumes it.
type Pusher[T any] struct {
	c *Controller[T]
}

// Push hands value to the channel. The returned channel resolves once the
// push is consumed (by a waiting pull, the buffer, or later) to a
// [PushResult] carrying the hint supplied by whichever Next call
// ultimately consumes it, or Accepted=false if the channel had already
// stopped. Push returns a non-nil error synchronously, instead, if the
// push queue is already at [MaxQueueLength] (spec §6, invariant I7) —
// mirroring [Channel.Next]'s own synchronous-error convention, so that
// Accepted=false on the returned channel always means "channel stopped"
// and never "overflow" (testable property P5).
func (p Pusher[T]) Push(value T) (<-chan PushResult, error) {
	return p.c.push(rawFromValue(value))
}

// PushFuture hands a deferred value to the channel. See [Pusher.Push];
// the only difference is that the value is awaited (via fut.Await) before
// it is exposed to a consumer, and a rejection from fut becomes the
// channel's terminal outcome unless the channel has already stopped, in
// which case the rejection is silently absorbed (spec §4.2.2).
func (p Pusher[T]) PushFuture(fut Future[T]) (<-chan PushResult, error) {
	return p.c.push(rawFromFuture[T](fut))
}

// StopHandle is the dual object handed to an [Executor]: awaitable via
// Done/Err, to observe scoped teardown, and callable via Stop, to trigger
// it (spec §4.2.6, §9 "the dual stop handle"). It resolves exactly once
// (invariant I8).
type StopHandle[T any] struct {
	c *Controller[T]
}

// Done returns a channel closed once the stop signal resolves.
func (s StopHandle[T]) Done() <-chan struct{} {
	return s.c.stopSignal.Done()
}

// Err returns the error the stop signal resolved with, if any.
func (s StopHandle[T]) Err() error {
	return s.c.stopSignal.Err()
}

// Stop resolves the stop signal with err (spec §4.2.3). Idempotent: only
// the first call (whether from the executor, a consumer Return/Throw, or
// the executor's own completion) has any effect.
func (s StopHandle[T]) Stop(err error) {
	s.c.mu.Lock()
	if s.c.state.Load() < stateStopped {
		s.c.setOutcomeErrorLocked(err, priorityCloseStop)
	}
	s.c.stopLocked(nil)
	s.c.mu.Unlock()
}

// Executor is the user-supplied closure that produces values for a
// Channel by calling push, and that performs scoped teardown after
// observing stop.Done() (spec §6). Its return value (or error) becomes
// the channel's terminal outcome once any buffered values have drained.
type Executor[T any] func(push Pusher[T], stop StopHandle[T]) (T, error)
