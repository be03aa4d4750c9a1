package achan

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Error precedence tiers for the terminal outcome (spec §7): an
// executor-thrown error takes precedence over one passed to close/stop,
// which in turn takes precedence over a rejected pushed future. Whenever
// more than one of them is recorded, the lower tier wins.
const (
	priorityExecutorThrown = 0
	priorityCloseStop      = 1
	priorityPushRejection  = 2
)

// pendingPush is a push parked because the buffer was full and no pull
// was waiting (spec §4.2.2 step 3).
type pendingPush[T any] struct {
	raw       rawValue[T]
	resolveCh chan PushResult
}

// deliverHint fulfils the push's returned channel once some later Next
// call supplies the hint that "consumes" it (spec §4.2.1, the "onnext"
// slot).
func (p *pendingPush[T]) deliverHint(hint any) {
	p.resolveCh <- PushResult{Hint: hint, Accepted: true}
	close(p.resolveCh)
}

func (p *pendingPush[T]) reject() {
	p.resolveCh <- PushResult{Accepted: false}
	close(p.resolveCh)
}

// pendingPull is a Next call parked because neither the buffer nor the
// push queue had anything to offer it (spec §4.2.1 step d). ch carries
// the handoff once some later Push/Close/Stop/Return/Throw call resolves it.
type pendingPull[T any] struct {
	hint any
	ch   chan handoff[T]
}

// outcomeSlot holds the terminal value and/or error a Controller will
// eventually deliver, along with enough bookkeeping to implement the
// error-precedence and single-delivery rules of spec §7 and §4.2.1.c.
type outcomeSlot[T any] struct {
	hasErr      bool
	err         error
	errPriority int
	hasValue    bool
	value       T
	delivered   bool
}

func (o *outcomeSlot[T]) setError(err error, priority int) {
	if err == nil {
		return
	}
	if !o.hasErr || priority < o.errPriority {
		o.hasErr = true
		o.err = err
		o.errPriority = priority
	}
}

// setValue records a fallback or authoritative terminal value. override
// forces the value to replace whatever is already recorded (used when the
// executor's own return value arrives after a Return-supplied fallback);
// it has no effect once an error has been recorded, since an error always
// takes precedence over a plain value outcome.
func (o *outcomeSlot[T]) setValue(v T, override bool) {
	if o.hasErr {
		return
	}
	if override || !o.hasValue {
		o.hasValue = true
		o.value = v
	}
}

// Controller implements the push/pull state machine underlying a Channel
// (spec §4.2). It owns the buffer, the parked-push and parked-pull
// queues, the pending-iteration chain that preserves call-order delivery,
// and the executor's lifecycle. All mutable state is serialized by mu, in
// keeping with the single-writer-lock discipline used throughout its
// teacher lineage for multi-threaded runtimes (spec §5).
type Controller[T any] struct {
	mu sync.Mutex

	state      *atomicState
	buf        Buffer[rawValue[T]]
	pushQueue  []*pendingPush[T]
	pullQueue  []*pendingPull[T]
	hintQueue  []func(any)
	stopSignal *StopSignal
	chain      *iterationChain[T]
	outcome    outcomeSlot[T]
	executor   Executor[T]
	execDone   chan struct{}
	logger     Logger
	name       string
	terminal   atomic.Bool
}

// newController creates a Controller in the Initial state. The executor
// is not invoked until the first Next call (spec §4.2.1, "lazy start").
func newController[T any](executor Executor[T], buf Buffer[rawValue[T]], logger Logger, name string) *Controller[T] {
	if buf == nil {
		buf = NewFixedBuffer[rawValue[T]](0)
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &Controller[T]{
		state:      newAtomicState(),
		buf:        buf,
		stopSignal: newStopSignal(),
		chain:      &iterationChain[T]{},
		executor:   executor,
		logger:     logger,
		name:       name,
	}
}

// Next requests the next iteration result, starting the executor on the
// very first call (spec §4.2.1). hint is delivered to whichever parked or
// future push it ends up pairing with.
func (c *Controller[T]) Next(ctx context.Context, hint any) (Result[T], error) {
	c.mu.Lock()
	if c.state.Load() == stateInitial {
		c.startExecutorLocked()
	}

	if len(c.hintQueue) > 0 {
		deliver := c.hintQueue[0]
		c.hintQueue = c.hintQueue[1:]
		deliver(hint)
	}

	var h handoff[T]
	var parked *pendingPull[T]

	switch {
	case !c.buf.Empty():
		v, err := c.buf.Remove()
		if err != nil {
			c.mu.Unlock()
			return Result[T]{}, err
		}
		h = handoff[T]{raw: v, hasRaw: true, rejectHook: c.onPushRejection}
		if len(c.pushQueue) > 0 {
			p := c.pushQueue[0]
			c.pushQueue = c.pushQueue[1:]
			_ = c.buf.Add(p.raw)
			c.hintQueue = append(c.hintQueue, p.deliverHint)
		}
	case len(c.pushQueue) > 0:
		p := c.pushQueue[0]
		c.pushQueue = c.pushQueue[1:]
		h = handoff[T]{raw: p.raw, hasRaw: true, rejectHook: c.onPushRejection}
		c.hintQueue = append(c.hintQueue, p.deliverHint)
	case c.state.Load() >= stateStopped:
		h = c.terminalHandoffLocked()
	default:
		if len(c.pullQueue) >= MaxQueueLength {
			LogPullOverflow(c.logger, c.name, MaxQueueLength)
			c.mu.Unlock()
			return Result[T]{}, &OverflowError{Queue: "pull", Limit: MaxQueueLength}
		}
		parked = &pendingPull[T]{hint: hint, ch: make(chan handoff[T], 1)}
		c.pullQueue = append(c.pullQueue, parked)
	}
	c.mu.Unlock()

	link := c.chain.enqueue(ctx, func() handoff[T] {
		if parked != nil {
			return <-parked.ch
		}
		return h
	})
	res, err, _ := link.wait()
	return res, err
}

// Return implements early-return semantics (spec §4.2.4): if the executor
// never started, value becomes the terminal result immediately and the
// executor never runs; otherwise value becomes a fallback terminal value,
// the stop signal resolves, and Return waits for the executor to actually
// finish so its own return value (if any) can take precedence.
func (c *Controller[T]) Return(ctx context.Context, value T) (Result[T], error) {
	c.mu.Lock()
	switch {
	case c.state.Load() == stateInitial:
		c.outcome.setValue(value, false)
		c.outcome.delivered = true
		c.state.Store(stateFinished)
		c.terminal.Store(true)
		c.mu.Unlock()
		return Result[T]{Value: value, Done: true, HasValue: true}, nil
	case c.state.isTerminal():
		c.mu.Unlock()
		return Result[T]{Value: value, Done: true, HasValue: true}, nil
	}
	c.outcome.setValue(value, false)
	c.stopLocked(nil)
	execDone := c.execDone
	c.mu.Unlock()

	if execDone != nil {
		select {
		case <-execDone:
		case <-ctx.Done():
			return Result[T]{}, ctx.Err()
		}
	}

	c.mu.Lock()
	out := c.outcome
	c.mu.Unlock()
	if out.hasErr {
		return Result[T]{}, out.err
	}
	return Result[T]{Value: out.value, Done: true, HasValue: true}, nil
}

// Throw implements the consumer-injected error path (spec §4.2.5): err
// becomes the terminal outcome (subject to the usual precedence rules)
// and is also returned directly as the rejection of this call, whether
// the channel was never started, already terminal, mid-drain, or still
// running.
func (c *Controller[T]) Throw(err error) (Result[T], error) {
	c.mu.Lock()
	c.outcome.setError(err, priorityCloseStop)
	c.stopLocked(nil)
	c.mu.Unlock()
	return Result[T]{}, err
}

// push is the shared implementation behind Pusher.Push and
// Pusher.PushFuture (spec §4.2.2). It mirrors Next's own convention
// (spec's invariant I7 / testable property P5): a queue-capacity
// violation is raised synchronously as an error, so that Accepted=false
// on the returned channel is reserved exclusively for "the channel had
// already stopped."
func (c *Controller[T]) push(raw rawValue[T]) (<-chan PushResult, error) {
	c.mu.Lock()

	if c.state.Load() >= stateStopped {
		c.mu.Unlock()
		resolveCh := make(chan PushResult, 1)
		resolveCh <- PushResult{Accepted: false}
		close(resolveCh)
		return resolveCh, nil
	}

	switch {
	case len(c.pullQueue) > 0:
		p := c.pullQueue[0]
		c.pullQueue = c.pullQueue[1:]
		p.ch <- handoff[T]{raw: raw, hasRaw: true, rejectHook: c.onPushRejection}
		close(p.ch)
		c.mu.Unlock()
		resolveCh := make(chan PushResult, 1)
		resolveCh <- PushResult{Hint: p.hint, Accepted: true}
		close(resolveCh)
		return resolveCh, nil
	case !c.buf.Full():
		_ = c.buf.Add(raw)
		resolveCh := make(chan PushResult, 1)
		pending := &pendingPush[T]{raw: raw, resolveCh: resolveCh}
		// The value landed; only its hint resolution is deferred, to
		// whichever Next call next supplies one (spec §4.2.1, "onnext").
		c.hintQueue = append(c.hintQueue, pending.deliverHint)
		c.mu.Unlock()
		return resolveCh, nil
	default:
		if len(c.pushQueue) >= MaxQueueLength {
			LogPushOverflow(c.logger, c.name, MaxQueueLength)
			c.mu.Unlock()
			return nil, &OverflowError{Queue: "push", Limit: MaxQueueLength}
		}
		resolveCh := make(chan PushResult, 1)
		pending := &pendingPush[T]{raw: raw, resolveCh: resolveCh}
		c.pushQueue = append(c.pushQueue, pending)
		c.mu.Unlock()
		return resolveCh, nil
	}
}

// onPushRejection is invoked (without the Controller's mutex held) when a
// pushed Future rejects. It arbitrates precedence and decides whether the
// rejection should actually reach the waiting consumer.
func (c *Controller[T]) onPushRejection(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Load() >= stateStopped {
		LogUnhandledRejection(c.logger, c.name, err)
		return nil
	}
	c.outcome.setError(err, priorityPushRejection)
	c.stopLocked(nil)
	return err
}

// setOutcomeErrorLocked records err at the given precedence tier. Callers
// must hold mu.
func (c *Controller[T]) setOutcomeErrorLocked(err error, priority int) {
	c.outcome.setError(err, priority)
}

// stopLocked performs the teardown described in spec §4.2.3: idempotent,
// resolves the stop signal, rejects every parked push, flushes any
// pending hint waiters, and resolves every parked pull with the terminal
// outcome. Callers must hold mu. err is folded into the outcome at the
// close/stop tier before teardown runs; pass nil when the outcome was
// already set by the caller (e.g. Throw, onPushRejection).
func (c *Controller[T]) stopLocked(err error) {
	c.outcome.setError(err, priorityCloseStop)
	if c.state.Load() >= stateStopped {
		return
	}
	c.state.Store(stateStopped)
	c.stopSignal.Stop(c.outcome.err)

	pushes := c.pushQueue
	c.pushQueue = nil
	for _, p := range pushes {
		p.reject()
	}

	waiters := c.hintQueue
	c.hintQueue = nil
	for _, fn := range waiters {
		fn(nil)
	}

	pulls := c.pullQueue
	c.pullQueue = nil
	for i, p := range pulls {
		if i == 0 {
			p.ch <- c.terminalHandoffLocked()
		} else {
			p.ch <- handoff[T]{terminal: true}
		}
		close(p.ch)
	}
}

// terminalHandoffLocked transitions Stopped to Finished/Rejected on its
// first call and returns the terminal handoff: the recorded value or
// error exactly once (spec §4.2.1.c), and a valueless Done thereafter.
// Callers must hold mu.
func (c *Controller[T]) terminalHandoffLocked() handoff[T] {
	if c.state.Load() == stateStopped {
		if c.outcome.hasErr {
			c.state.Store(stateRejected)
		} else {
			c.state.Store(stateFinished)
		}
		c.terminal.Store(true)
	}
	if c.outcome.delivered {
		return handoff[T]{terminal: true}
	}
	c.outcome.delivered = true
	if c.outcome.hasErr {
		return handoff[T]{terminal: true, err: c.outcome.err}
	}
	if c.outcome.hasValue {
		return handoff[T]{terminal: true, doneValue: c.outcome.value, hasDoneValue: true}
	}
	return handoff[T]{terminal: true}
}

// startExecutorLocked transitions Initial to Started and launches the
// executor in its own goroutine (spec §4.2.6). Callers must hold mu.
func (c *Controller[T]) startExecutorLocked() {
	c.state.Store(stateStarted)
	c.execDone = make(chan struct{})
	executor := c.executor
	pusher := Pusher[T]{c: c}
	stop := StopHandle[T]{c: c}
	done := c.execDone

	c.logger.Log(LogEntry{Level: LevelDebug, Category: "controller", Name: c.name, Message: "executor starting"})

	go func() {
		v, err := c.runExecutor(executor, pusher, stop)
		c.onExecutorDone(v, err)
		close(done)
	}()
}

// runExecutor invokes the executor, converting a panic into an error so
// that a misbehaving executor cannot take down the whole process (spec
// §6, "an executor panic becomes the terminal error").
func (c *Controller[T]) runExecutor(executor Executor[T], pusher Pusher[T], stop StopHandle[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("achan: executor panicked: %v", r)
		}
	}()
	return executor(pusher, stop)
}

// onExecutorDone records the executor's own return value or error (with
// the executor taking precedence over any fallback already set by Return,
// and over a close/stop error only for the thrown-error tier) and drives
// the channel into Stopped if it is not there already.
func (c *Controller[T]) onExecutorDone(v T, err error) {
	c.mu.Lock()
	if err != nil {
		c.outcome.setError(err, priorityExecutorThrown)
	} else {
		c.outcome.setValue(v, true)
	}
	c.stopLocked(nil)
	c.logger.Log(LogEntry{Level: LevelDebug, Category: "controller", Name: c.name, Message: "executor finished"})
	c.mu.Unlock()
}

// State reports the Controller's current lifecycle state, for
// diagnostics only; it is not part of the operational contract.
func (c *Controller[T]) State() string {
	return c.state.Load().String()
}

// ensureStarted starts the executor if it has not already, without
// otherwise affecting any queue. Used by PubSub, which needs the
// executor's Pusher captured before any consumer ever calls Next (spec's
// "supplemented" publish/subscribe layer, §9).
func (c *Controller[T]) ensureStarted() {
	c.mu.Lock()
	if c.state.Load() == stateInitial {
		c.startExecutorLocked()
	}
	c.mu.Unlock()
}
