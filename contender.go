package achan

import "context"

// nextResult is what a contender's next call reports: either a value (ok
// true), a clean exhaustion — optionally carrying the contender's own
// terminal value (spec §4.4.1 "when one resolves 'done,' the combinator
// finishes with that done-value"; §4.4.3 "the tuple of returned values,
// including the done contender's returned value") — or an error.
type nextResult[T any] struct {
	value        T
	ok           bool
	doneValue    T
	hasDoneValue bool
	err          error
}

// contender is the common shape a combinator fans out over: one of an
// asynchronous sequence (a *Channel[T]), a synchronous sequence (a plain
// slice), or a single value — possibly deferred (spec §4.4, glossary
// "contender"). Each combinator treats its inputs uniformly through this
// interface regardless of which shape they arrived as.
type contender[T any] interface {
	// next returns the next value, or reports exhaustion via
	// nextResult.ok == false, in which case nextResult.err is non-nil if
	// the contender failed and otherwise nextResult.hasDoneValue may carry
	// the contender's own terminal value.
	next(ctx context.Context) nextResult[T]

	// closeContender asks the contender to terminate early (propagating
	// a combinator-level Return/Throw down into an inner *Channel[T]; a
	// no-op for a synchronous or single-value contender, which has
	// nothing running to terminate).
	closeContender(ctx context.Context, cause error)
}

// channelContender adapts an asynchronous sequence.
type channelContender[T any] struct {
	ch *Channel[T]
}

func newChannelContender[T any](ch *Channel[T]) contender[T] {
	return &channelContender[T]{ch: ch}
}

func (c *channelContender[T]) next(ctx context.Context) nextResult[T] {
	res, err := c.ch.Recv(ctx)
	if err != nil {
		return nextResult[T]{err: err}
	}
	if res.Done {
		if res.HasValue {
			return nextResult[T]{doneValue: res.Value, hasDoneValue: true}
		}
		return nextResult[T]{}
	}
	return nextResult[T]{value: res.Value, ok: true}
}

func (c *channelContender[T]) closeContender(ctx context.Context, cause error) {
	if cause != nil {
		_, _ = c.ch.Throw(cause)
		return
	}
	var zero T
	_, _ = c.ch.Return(ctx, zero)
}

// sliceContender adapts a synchronous sequence: a plain, already-fully
// available slice of values, yielded one at a time with no waiting.
type sliceContender[T any] struct {
	values []T
	i      int
}

func newSliceContender[T any](values []T) contender[T] {
	return &sliceContender[T]{values: values}
}

func (c *sliceContender[T]) next(context.Context) nextResult[T] {
	if c.i >= len(c.values) {
		return nextResult[T]{}
	}
	v := c.values[c.i]
	c.i++
	return nextResult[T]{value: v, ok: true}
}

func (c *sliceContender[T]) closeContender(context.Context, error) {}

// singleContender adapts a single value — concrete, or deferred behind a
// Future[T] — yielded exactly once.
type singleContender[T any] struct {
	raw  rawValue[T]
	done bool
}

func newSingleValueContender[T any](v T) contender[T] {
	return &singleContender[T]{raw: rawFromValue(v)}
}

func newSingleFutureContender[T any](f Future[T]) contender[T] {
	return &singleContender[T]{raw: rawFromFuture[T](f)}
}

func (c *singleContender[T]) next(ctx context.Context) nextResult[T] {
	if c.done {
		return nextResult[T]{}
	}
	c.done = true
	if c.raw.future != nil {
		v, err := c.raw.future.Await(ctx)
		if err != nil {
			return nextResult[T]{err: err}
		}
		return nextResult[T]{value: v, ok: true}
	}
	return nextResult[T]{value: c.raw.value, ok: true}
}

func (c *singleContender[T]) closeContender(context.Context, error) {}
