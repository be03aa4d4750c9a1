// Package achan provides error types with cause-chain support for the
// channel state machine.
package achan

import (
	"errors"
	"fmt"
)

// OverflowError is raised when a queue (push or pull) would exceed
// [MaxQueueLength]. It is a programmer bug, not a channel-terminating
// condition: the channel remains usable once the backlog drains (spec
// invariant I7).
type OverflowError struct {
	// Queue identifies which queue overflowed: "push" or "pull".
	Queue string
	// Limit is the configured maximum queue length.
	Limit int
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("achan: %s queue overflow: exceeded %d pending entries", e.Queue, e.Limit)
}

// Is allows errors.Is(err, new(OverflowError)) style matching regardless of
// the Queue/Limit contents.
func (e *OverflowError) Is(target error) bool {
	var o *OverflowError
	return errors.As(target, &o)
}

// BufferError represents a buffer contract violation: adding to a full
// Fixed buffer, or removing from an empty buffer. Both are programmer
// errors raised synchronously at the offending call site (spec §4.1).
type BufferError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *BufferError) Error() string {
	if e.Message == "" {
		return "achan: buffer contract violation"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *BufferError) Unwrap() error {
	return e.Cause
}

// ClosedError indicates an operation was attempted against a channel that
// has already reached or passed the Stopped state. No function in this
// package returns it: a rejected push (§4.2.2) is reported only through
// the boolean "not accepted" returned from Push.
type ClosedError struct {
	Cause error
}

// Error implements the error interface.
func (e *ClosedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("achan: channel closed: %s", e.Cause.Error())
	}
	return "achan: channel closed"
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *ClosedError) Unwrap() error {
	return e.Cause
}

// AggregateError collects multiple errors into one. The combinators do not
// construct it: they surface only the first inner error they observe as
// their own terminal outcome (spec §4.4) and discard any later ones.
type AggregateError struct {
	Message string
	Errors  []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("achan: %d errors occurred", len(e.Errors))
}

// Unwrap returns the errors slice for multi-error unwrapping (Go 1.20+).
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Is implements custom error matching for AggregateError.
func (e *AggregateError) Is(target error) bool {
	var aggTarget *AggregateError
	return errors.As(target, &aggTarget)
}

// WrapError wraps an error with a message and optional cause chain.
//
// The result satisfies errors.Is(result, cause) == true.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
