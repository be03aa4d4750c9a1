package achan

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// pushOrAbort pushes v and waits for it to be consumed, returning whichever
// of two errors it observes first: the stop signal resolving before the
// push is drained, or the push queue itself overflowing (spec §7 item 1) —
// which, inside a combinator's own executor, signals that nothing is
// keeping up with consumption and is folded into the combinator's own
// terminal error the same way any other inner failure is.
func pushOrAbort[T any](push Pusher[T], stop StopHandle[T], v T) error {
	ch, err := push.Push(v)
	if err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-stop.Done():
		return stop.Err()
	}
}

// Race returns a Channel that forwards every value from whichever
// contender is first to produce anything at all (a value, an error, or a
// clean exhaustion); every other contender is then closed and its
// further output discarded (spec §4.4, "Race"). If the winner itself
// finishes with a done-value, Race's own terminal outcome carries it
// (spec §4.4.1, §8 scenario 5).
func Race[T any](contenders ...contender[T]) (*Channel[T], error) {
	return New[T](func(push Pusher[T], stop StopHandle[T]) (T, error) {
		var zero T
		if len(contenders) == 0 {
			return zero, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-stop.Done()
			cancel()
		}()

		type arrival struct {
			idx int
			r   nextResult[T]
		}
		arrivals := make(chan arrival, len(contenders))
		for i, c := range contenders {
			i, c := i, c
			go func() {
				arrivals <- arrival{i, c.next(ctx)}
			}()
		}

		first := <-arrivals
		winner := contenders[first.idx]
		for i, c := range contenders {
			if i != first.idx {
				c.closeContender(ctx, nil)
			}
		}
		// The non-winning goroutines above are still blocked in next();
		// drain their eventual arrivals so they don't leak.
		go func() {
			for i := 1; i < len(contenders); i++ {
				<-arrivals
			}
		}()

		r := first.r
		for {
			if r.err != nil {
				return zero, r.err
			}
			if !r.ok {
				if r.hasDoneValue {
					return r.doneValue, nil
				}
				return zero, nil
			}
			if err := pushOrAbort(push, stop, r.value); err != nil {
				return zero, err
			}
			r = winner.next(ctx)
		}
	})
}

// Merge returns a Channel that forwards every value from every contender
// as it arrives, in arrival order across all of them, finishing once
// every contender has cleanly exhausted. If any contender errors, Merge
// closes the rest and fails with that error (spec §4.4, "Merge"). A
// contender that exhausts with its own done-value still has that value
// forwarded before Merge moves on to the rest.
func Merge[T any](contenders ...contender[T]) (*Channel[T], error) {
	return New[T](func(push Pusher[T], stop StopHandle[T]) (T, error) {
		var zero T
		if len(contenders) == 0 {
			return zero, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-stop.Done()
			cancel()
		}()

		out := make(chan nextResult[T])
		var g errgroup.Group
		for _, c := range contenders {
			c := c
			g.Go(func() error {
				for {
					r := c.next(ctx)
					select {
					case out <- r:
					case <-ctx.Done():
						return nil
					}
					if !r.ok || r.err != nil {
						return nil
					}
				}
			})
		}
		drained := make(chan struct{})
		go func() {
			_ = g.Wait()
			close(drained)
		}()

		remaining := len(contenders)
		for remaining > 0 {
			select {
			case r := <-out:
				if r.err != nil {
					cancel()
					for _, c := range contenders {
						c.closeContender(ctx, r.err)
					}
					return zero, r.err
				}
				if !r.ok {
					remaining--
					if r.hasDoneValue {
						if err := pushOrAbort(push, stop, r.doneValue); err != nil {
							return zero, err
						}
					}
					continue
				}
				if err := pushOrAbort(push, stop, r.value); err != nil {
					return zero, err
				}
			case <-stop.Done():
				return zero, stop.Err()
			}
		}
		<-drained
		return zero, nil
	})
}

// Zip returns a Channel[[]T] that waits for every contender to produce
// one value, emits them together in contender order, and repeats.
// Finishes cleanly the moment any single contender is exhausted; if the
// exhausting contender carried its own done-value, that final round —
// combining it with whatever the other contenders already produced this
// round — is still emitted before Zip finishes (spec §4.4, "Zip"; §4.4.3).
func Zip[T any](contenders ...contender[T]) (*Channel[[]T], error) {
	return New[[]T](func(push Pusher[[]T], stop StopHandle[[]T]) ([]T, error) {
		n := len(contenders)
		if n == 0 {
			return nil, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-stop.Done()
			cancel()
		}()

		for {
			round := make([]T, n)
			exhausted := make([]bool, n)
			hasDoneValue := make([]bool, n)
			var g errgroup.Group
			for i, c := range contenders {
				i, c := i, c
				g.Go(func() error {
					r := c.next(ctx)
					if r.err != nil {
						return r.err
					}
					if !r.ok {
						exhausted[i] = true
						if r.hasDoneValue {
							round[i] = r.doneValue
							hasDoneValue[i] = true
						}
						return nil
					}
					round[i] = r.value
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				for _, c := range contenders {
					c.closeContender(ctx, err)
				}
				return nil, err
			}
			done := false
			anyDoneValue := false
			for i, e := range exhausted {
				if e {
					done = true
					anyDoneValue = anyDoneValue || hasDoneValue[i]
				}
			}
			if done {
				for _, c := range contenders {
					c.closeContender(ctx, nil)
				}
				if anyDoneValue {
					if err := pushOrAbort(push, stop, round); err != nil {
						return nil, err
					}
				}
				return nil, nil
			}
			if err := pushOrAbort(push, stop, round); err != nil {
				return nil, err
			}
		}
	})
}

// Latest returns a Channel[[]T] that emits a fresh aggregate snapshot of
// every contender's latest value whenever any one of them produces a new
// value, starting once every contender has produced at least once.
// Finishes once every contender has cleanly exhausted (spec §4.4,
// "Latest"). A contender that exhausts with its own done-value still
// contributes one final snapshot carrying it before being dropped from
// future updates.
func Latest[T any](contenders ...contender[T]) (*Channel[[]T], error) {
	return New[[]T](func(push Pusher[[]T], stop StopHandle[[]T]) ([]T, error) {
		n := len(contenders)
		if n == 0 {
			return nil, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-stop.Done()
			cancel()
		}()

		type update struct {
			idx int
			r   nextResult[T]
		}
		out := make(chan update)
		var g errgroup.Group
		for i, c := range contenders {
			i, c := i, c
			g.Go(func() error {
				for {
					r := c.next(ctx)
					select {
					case out <- update{i, r}:
					case <-ctx.Done():
						return nil
					}
					if !r.ok || r.err != nil {
						return nil
					}
				}
			})
		}
		drained := make(chan struct{})
		go func() {
			_ = g.Wait()
			close(drained)
		}()

		latest := make([]T, n)
		have := make([]bool, n)
		haveAll := func() bool {
			for _, h := range have {
				if !h {
					return false
				}
			}
			return true
		}
		emit := func() error {
			if !haveAll() {
				return nil
			}
			snapshot := append([]T(nil), latest...)
			return pushOrAbort(push, stop, snapshot)
		}

		remaining := n
		for remaining > 0 {
			select {
			case u := <-out:
				if u.r.err != nil {
					cancel()
					for _, c := range contenders {
						c.closeContender(ctx, u.r.err)
					}
					return nil, u.r.err
				}
				if !u.r.ok {
					remaining--
					if u.r.hasDoneValue {
						latest[u.idx] = u.r.doneValue
						have[u.idx] = true
						if err := emit(); err != nil {
							return nil, err
						}
					}
					continue
				}
				latest[u.idx] = u.r.value
				have[u.idx] = true
				if err := emit(); err != nil {
					return nil, err
				}
			case <-stop.Done():
				return nil, stop.Err()
			}
		}
		<-drained
		return nil, nil
	})
}
