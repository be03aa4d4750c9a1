// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package achan

// channelOptions holds configuration options for Channel creation.
type channelOptions[T any] struct {
	buffer    Buffer[rawValue[T]]
	logger    Logger
	name      string
	debugMode bool
}

// Option configures a Channel instance (spec §3, "Controller ... is
// configured with").
type Option[T any] interface {
	apply(*channelOptions[T]) error
}

// optionImpl implements Option.
type optionImpl[T any] struct {
	applyFunc func(*channelOptions[T]) error
}

func (o *optionImpl[T]) apply(opts *channelOptions[T]) error {
	return o.applyFunc(opts)
}

// WithBuffer supplies the buffer variant backing the channel. The default,
// if omitted, is a zero-capacity Fixed buffer (pure rendezvous between
// pushes and pulls). buf must hold rawValue[T]; use [WithFixedBuffer],
// [WithSlidingBuffer], or [WithDroppingBuffer] for the common cases
// instead of constructing one directly.
func WithBuffer[T any](buf Buffer[rawValue[T]]) Option[T] {
	return &optionImpl[T]{func(opts *channelOptions[T]) error {
		opts.buffer = buf
		return nil
	}}
}

// WithFixedBuffer configures a Fixed buffer of the given capacity: pushes
// that arrive once it is full park until a pull frees a slot (spec §3).
func WithFixedBuffer[T any](capacity int) Option[T] {
	return WithBuffer[T](NewFixedBuffer[rawValue[T]](capacity))
}

// WithSlidingBuffer configures a Sliding buffer of the given capacity:
// once full, each push evicts the oldest buffered value (spec §3).
func WithSlidingBuffer[T any](capacity int) Option[T] {
	return WithBuffer[T](NewSlidingBuffer[rawValue[T]](capacity))
}

// WithDroppingBuffer configures a Dropping buffer of the given capacity:
// once full, each push is silently discarded (spec §3).
func WithDroppingBuffer[T any](capacity int) Option[T] {
	return WithBuffer[T](NewDroppingBuffer[rawValue[T]](capacity))
}

// WithLogger attaches a structured logger to the channel. The default is
// a no-op logger.
func WithLogger[T any](logger Logger) Option[T] {
	return &optionImpl[T]{func(opts *channelOptions[T]) error {
		opts.logger = logger
		return nil
	}}
}

// WithName attaches a diagnostic name, included in log entries and
// returned by [Channel.Name], primarily useful when a process runs many
// channels concurrently.
func WithName[T any](name string) Option[T] {
	return &optionImpl[T]{func(opts *channelOptions[T]) error {
		opts.name = name
		return nil
	}}
}

// WithDebugMode captures the creation call stack for the channel so that,
// if the Channel is garbage-collected before reaching a terminal state, a
// warning can be logged with a pointer back to where the channel was
// created (spec §9, "supplemented" diagnostics).
func WithDebugMode[T any](enabled bool) Option[T] {
	return &optionImpl[T]{func(opts *channelOptions[T]) error {
		opts.debugMode = enabled
		return nil
	}}
}

// resolveOptions applies Option instances to channelOptions.
func resolveOptions[T any](opts []Option[T]) (*channelOptions[T], error) {
	cfg := &channelOptions[T]{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
