// Package achan provides a push/pull asynchronous channel primitive: a
// lazy sequence of values produced by a user-supplied executor function,
// consumed one iteration at a time, that unifies synchronous buffering,
// asynchronous (deferred) values, and combinators over multiple such
// sequences (Race, Merge, Zip, Latest).
//
// # Architecture
//
// A [Channel] is the opaque façade a consumer holds; it wraps a
// [Controller], the state machine that actually arbitrates between the
// executor's pushes and the consumer's pulls. The executor is never
// invoked until the first call to [Channel.Next] or [Channel.Recv] (lazy
// start); calling [New] only constructs the Channel.
//
// The executor receives a [Pusher], for producing values, and a
// [StopHandle], a dual object simultaneously awaitable (Done/Err) and
// callable (Stop) used to observe or trigger teardown. A [Buffer] — Fixed,
// Sliding, or Dropping — sits between pushes and pulls; the default is a
// zero-capacity Fixed buffer, forcing every push into direct rendezvous
// with a waiting pull.
//
// Four combinators build new channels out of existing ones, lazily, via
// [Race], [Merge], [Zip], and [Latest].
//
// # Concurrency Model
//
// All Controller state is serialized by a single mutex: pushes, pulls,
// and the executor's own completion all compete for the same lock, so
// path selection (which queue or buffer a given Next/Push call resolves
// against) always happens in call order. Asynchronous delivery — awaiting
// a pushed [Future], or waiting on a prior iteration still in flight — is
// sequenced separately by a per-channel pending-iteration chain, so that
// Next results still reach callers in the order they were requested,
// regardless of the order the underlying values settle. Return and Throw
// results do not pass through that chain.
//
// # Usage
//
//	ch, err := achan.New(func(push achan.Pusher[int], stop achan.StopHandle[int]) (int, error) {
//	    for i := 0; i < 3; i++ {
//	        ch, err := push.Push(i)
//	        if err != nil {
//	            return 0, err
//	        }
//	        select {
//	        case <-ch:
//	        case <-stop.Done():
//	            return 0, stop.Err()
//	        }
//	    }
//	    return 3, nil
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    res, err := ch.Recv(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if res.Done {
//	        break
//	    }
//	    fmt.Println(res.Value)
//	}
//
// # Error Types
//
// The package provides a small cause-chain-aware error taxonomy:
//   - [OverflowError]: a push or pull queue exceeded [MaxQueueLength] (a
//     programmer bug signal, not a terminating condition)
//   - [BufferError]: a buffer contract violation (Add while Full, Remove
//     while Empty)
//   - [ClosedError]: diagnostic wrapper for operations against an
//     already-stopped channel (no function in this package returns it)
//   - [AggregateError]: a multi-error container (Go 1.20+ multi-unwrap
//     compatible); the combinators do not construct it
//
// All error types implement the standard [error] interface. [BufferError]
// and [ClosedError] unwrap to their Cause and [AggregateError] to its
// Errors; [OverflowError] and [AggregateError] match any instance of their
// own type via Is().
package achan
