package achan

import (
	"context"
	"sync"
)

// chainLink is one slot in a Controller's pending-iteration chain (spec
// §4.2.7). Every Next call settles exactly one link, whether its outcome
// is a value or a terminal outcome synthesized by Close/Stop. Return and
// Throw do not add links: their results are returned directly and are not
// ordered behind Next calls still pending in the chain.
type chainLink[T any] struct {
	done chan struct{}
	res  Result[T]
	err  error
	// term is true once this link's outcome is itself terminal: an error,
	// or a Done result. A terminal link forces every later link in the
	// chain to collapse to a valueless Done, regardless of what that later
	// link's own handoff would otherwise have delivered (spec §4.2.7: "On
	// the reject arm of the previous chain slot, the new slot collapses to
	// done with no value").
	term bool
}

func newChainLink[T any]() *chainLink[T] {
	return &chainLink[T]{done: make(chan struct{})}
}

func (l *chainLink[T]) settle(res Result[T], err error, term bool) {
	l.res, l.err, l.term = res, err, term
	close(l.done)
}

// wait blocks until the link settles and returns its outcome.
func (l *chainLink[T]) wait() (Result[T], error, bool) {
	<-l.done
	return l.res, l.err, l.term
}

// iterationChain is the Controller's reassignable "tail" deferred value: a
// single chain onto which every new iteration request is appended, so that
// outcomes reach callers in call order (invariant I6) regardless of the
// order the underlying pushed values settle.
type iterationChain[T any] struct {
	mu   sync.Mutex
	tail *chainLink[T]
}

// handoff describes the not-yet-unwrapped outcome of one iteration, as
// determined synchronously by the Controller's path selection (spec
// §4.2.1 steps a–d). raw, when hasRaw is true and terminal is false, is
// the pushed value — a T or a [Future[T]] — that must be awaited before
// exposing it to the consumer (spec's "deferred-of-deferred" unwrap rule,
// §9). rejectHook, when set, lets the Controller learn of (and arbitrate
// precedence for) a rejected pushed future before it reaches the
// consumer; it returns the error to actually deliver, or nil to absorb it
// silently (spec §4.2.2, "unless the channel has already stopped").
type handoff[T any] struct {
	terminal     bool
	raw          rawValue[T]
	hasRaw       bool
	doneValue    T
	hasDoneValue bool
	err          error
	rejectHook   func(error) error
}

// resolveHandoff unwraps a handoff into the Result/error pair a consumer
// observes, awaiting raw if it carries a Future[T].
func resolveHandoff[T any](ctx context.Context, h handoff[T]) (Result[T], error) {
	if h.terminal {
		if h.err != nil {
			return Result[T]{}, h.err
		}
		if h.hasDoneValue {
			return Result[T]{Value: h.doneValue, Done: true, HasValue: true}, nil
		}
		return Result[T]{Done: true}, nil
	}
	if h.raw.future != nil {
		v, err := h.raw.future.Await(ctx)
		if err != nil {
			if h.rejectHook != nil {
				err = h.rejectHook(err)
			}
			if err == nil {
				return Result[T]{Done: true}, nil
			}
			return Result[T]{}, err
		}
		return Result[T]{Value: v, HasValue: true}, nil
	}
	return Result[T]{Value: h.raw.value, HasValue: true}, nil
}

// append adds a new link to the chain, returning it alongside the previous
// tail (nil if this is the first iteration ever requested).
func (c *iterationChain[T]) append() (this, prev *chainLink[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev = c.tail
	this = newChainLink[T]()
	c.tail = this
	return this, prev
}

// enqueue appends a new link and spawns the goroutine that waits for the
// chain's ordering discipline before resolving it: first the previous
// link's settlement (collapsing to Done if it was terminal), then awaitFn
// (which blocks until this iteration's own handoff is known — immediately,
// for the synchronous buffer/push-queue/terminal paths, or later, for a
// parked pull resolved by some future Push/Close/Stop/Return/Throw call).
func (c *iterationChain[T]) enqueue(ctx context.Context, awaitFn func() handoff[T]) *chainLink[T] {
	this, prev := c.append()
	go func() {
		if prev != nil {
			_, _, term := prev.wait()
			if term {
				this.settle(Result[T]{Done: true}, nil, true)
				return
			}
		}
		h := awaitFn()
		res, err := resolveHandoff[T](ctx, h)
		this.settle(res, err, err != nil || res.Done)
	}()
	return this
}
