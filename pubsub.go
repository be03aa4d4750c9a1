package achan

import (
	"context"
	"sync"
)

// PubSub is a topic-keyed fan-out layer built entirely on Channel's
// public surface: each Subscribe call returns its own Channel, backed by
// whatever buffer policy its options request, and Publish fans a value
// out to every currently-subscribed Channel for that key (spec §9,
// "supplemented" publish/subscribe).
//
// Publish is fire-and-forget with respect to backpressure: it does not
// wait for a slow subscriber to drain. A subscriber configured with a
// Dropping or Sliding buffer absorbs a slow consumer gracefully; one
// using the zero-capacity default parks each push it cannot immediately
// pair with a waiting Next call, up to [MaxQueueLength] parked pushes,
// beyond which Publish drops the value for that subscriber.
type PubSub[K comparable, T any] struct {
	mu   sync.Mutex
	subs map[K]map[*pubsubSubscription[T]]struct{}
}

type pubsubSubscription[T any] struct {
	ch     *Channel[T]
	pusher Pusher[T]
}

// NewPubSub creates an empty PubSub.
func NewPubSub[K comparable, T any]() *PubSub[K, T] {
	return &PubSub[K, T]{subs: make(map[K]map[*pubsubSubscription[T]]struct{})}
}

// Subscribe registers a new subscription for key and returns its Channel
// alongside an unsubscribe function. The returned Channel's executor
// starts immediately (not lazily on first Next), since PubSub needs
// somewhere for Publish to land values right away.
func (p *PubSub[K, T]) Subscribe(key K, opts ...Option[T]) (*Channel[T], func()) {
	ready := make(chan Pusher[T], 1)
	ch, _ := New(func(push Pusher[T], stop StopHandle[T]) (T, error) {
		ready <- push
		<-stop.Done()
		var zero T
		return zero, stop.Err()
	}, opts...)
	ch.ensureStarted()
	pusher := <-ready

	sub := &pubsubSubscription[T]{ch: ch, pusher: pusher}
	p.mu.Lock()
	set, ok := p.subs[key]
	if !ok {
		set = make(map[*pubsubSubscription[T]]struct{})
		p.subs[key] = set
	}
	set[sub] = struct{}{}
	p.mu.Unlock()

	unsubscribe := func() {
		p.mu.Lock()
		if set, ok := p.subs[key]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(p.subs, key)
			}
		}
		p.mu.Unlock()
		_, _ = ch.Return(context.Background(), zeroOf[T]())
	}
	return ch, unsubscribe
}

// Publish fans value out to every subscription currently registered for
// key. It returns the number of subscribers the value was handed to;
// Publish itself does not wait for any of them to be consumed.
func (p *PubSub[K, T]) Publish(key K, value T) int {
	p.mu.Lock()
	set := p.subs[key]
	subs := make([]*pubsubSubscription[T], 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	for _, s := range subs {
		// Fire-and-forget: ignore both the hand-off channel and a push-queue
		// overflow, which would only mean this particular subscriber's own
		// backlog is saturated, not a PubSub-wide failure.
		_, _ = s.pusher.Push(value)
	}
	return len(subs)
}

// Close unsubscribes and terminates every subscription across every
// topic, e.g. at process shutdown.
func (p *PubSub[K, T]) Close() {
	p.mu.Lock()
	all := make([]*pubsubSubscription[T], 0)
	for _, set := range p.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	p.subs = make(map[K]map[*pubsubSubscription[T]]struct{})
	p.mu.Unlock()

	for _, s := range all {
		_, _ = s.ch.Return(context.Background(), zeroOf[T]())
	}
}

func zeroOf[T any]() T {
	var zero T
	return zero
}
