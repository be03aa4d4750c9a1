package achan

import "context"

// Channel is the opaque façade over a Controller (spec §3, "Channel").
// It is the lazy asynchronous sequence a consumer actually holds: the
// executor is never invoked until the first Next call.
type Channel[T any] struct {
	c *Controller[T]
}

// New creates a Channel driven by executor, applying opts (spec §4.2.6).
// The executor does not run until the first call to Next or Recv.
func New[T any](executor Executor[T], opts ...Option[T]) (*Channel[T], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	ctrl := newController(executor, cfg.buffer, cfg.logger, cfg.name)
	ch := &Channel[T]{c: ctrl}
	if cfg.debugMode {
		armLeakDetector(ch, ctrl.logger, ctrl.name, captureCreationStack(), &ctrl.terminal)
	}
	return ch, nil
}

// Next requests the next iteration result (spec §4.2.1). hint is an
// arbitrary value delivered to whichever push ends up pairing with this
// call; pass nil if the executor does not use hints.
func (ch *Channel[T]) Next(ctx context.Context, hint any) (Result[T], error) {
	return ch.c.Next(ctx, hint)
}

// Recv is Next with no hint: the common case for a plain consumer loop.
func (ch *Channel[T]) Recv(ctx context.Context) (Result[T], error) {
	return ch.c.Next(ctx, nil)
}

// Return implements early-return (spec §4.2.4): value becomes the
// channel's terminal value, unless the executor (if running) produces its
// own before finishing.
func (ch *Channel[T]) Return(ctx context.Context, value T) (Result[T], error) {
	return ch.c.Return(ctx, value)
}

// Throw injects err as the channel's terminal outcome (spec §4.2.5) and
// returns it directly as this call's own error.
func (ch *Channel[T]) Throw(err error) (Result[T], error) {
	return ch.c.Throw(err)
}

// Name returns the diagnostic name configured via WithName, or "".
func (ch *Channel[T]) Name() string {
	return ch.c.name
}

// State reports the channel's lifecycle state, for diagnostics only.
func (ch *Channel[T]) State() string {
	return ch.c.State()
}

// ensureStarted starts the executor without consuming an iteration. See
// [Controller.ensureStarted].
func (ch *Channel[T]) ensureStarted() {
	ch.c.ensureStarted()
}
