// Package pubsub provides a minimal generic publish/subscribe broker.
//
// Each subscriber gets its own buffered channel; a slow subscriber drops
// events rather than blocking publishers. Subscriptions are tied to a
// context and are torn down automatically when it is cancelled.
package pubsub

import (
	"context"
	"sync"
	"time"
)

// Event is the envelope delivered to subscribers.
type Event[T any] struct {
	Timestamp time.Time
	Payload   T
}

// Broker fans events out to all active subscribers.
type Broker[T any] struct {
	mu   sync.Mutex
	subs map[chan Event[T]]struct{}
	done bool
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[chan Event[T]]struct{})}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// ctx is cancelled or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	ch := make(chan Event[T], 16)

	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers payload to every subscriber. Subscribers whose buffers
// are full miss the event rather than blocking the publisher.
func (b *Broker[T]) Publish(payload T) {
	ev := Event[T]{Timestamp: time.Now(), Payload: payload}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Shutdown closes all subscriber channels. Publish after Shutdown is a no-op.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.done = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// SubscriberCount reports the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
