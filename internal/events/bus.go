// Package events is the in-process message bus connecting the watch mode
// goroutines. It is not durable; events live only as long as the process.
package events

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

// Bus routes events to the subscribers of their concrete type. Publish blocks
// until every subscriber accepted the event or ctx is canceled.
type Bus struct {
	mu     sync.Mutex
	topics map[reflect.Type][]mailbox
	closed bool
}

// mailbox is one subscription as seen by the bus.
type mailbox interface {
	deliver(ctx context.Context, evt any) error
	shutdown()
}

func NewBus() *Bus {
	return &Bus{topics: make(map[reflect.Type][]mailbox)}
}

// inbox is the typed end of a subscription. Deliveries hold the read lock so
// shutdown never closes ch under a pending send.
type inbox[T any] struct {
	ch   chan T
	done chan struct{}
	mu   sync.RWMutex
	once sync.Once
}

func (in *inbox[T]) deliver(ctx context.Context, evt any) error {
	v, ok := evt.(T)
	if !ok {
		return errors.InternalError("event routed to the wrong subscriber").
			WithContext("event_type", reflect.TypeOf(evt).String()).
			Build()
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	select {
	case <-in.done:
		return nil
	default:
	}
	select {
	case in.ch <- v:
		return nil
	case <-in.done:
		return nil
	case <-ctx.Done():
		return errors.WrapError(ctx.Err(), errors.CategoryRuntime, "event publish canceled").
			WithContext("event_type", reflect.TypeFor[T]().String()).
			Build()
	}
}

func (in *inbox[T]) shutdown() {
	in.once.Do(func() {
		close(in.done)
		in.mu.Lock()
		close(in.ch)
		in.mu.Unlock()
	})
}

// Subscribe registers a subscription with room for buffer pending events of
// type T. The returned func unsubscribes and closes the channel; it is safe to
// call more than once. Subscribing to a closed bus yields a closed channel.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	key := reflect.TypeFor[T]()
	in := &inbox[T]{ch: make(chan T, buffer), done: make(chan struct{})}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		in.shutdown()
		return in.ch, func() {}
	}
	b.topics[key] = append(b.topics[key], in)
	return in.ch, func() { b.remove(key, in) }
}

func (b *Bus) remove(key reflect.Type, m mailbox) {
	b.mu.Lock()
	subs := b.topics[key]
	if i := slices.Index(subs, m); i >= 0 {
		subs = slices.Delete(subs, i, i+1)
		if len(subs) == 0 {
			delete(b.topics, key)
		} else {
			b.topics[key] = subs
		}
	}
	b.mu.Unlock()
	m.shutdown()
}

// SubscriberCount returns the number of active subscribers for T.
func SubscriberCount[T any](b *Bus) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[reflect.TypeFor[T]()])
}

// Publish delivers evt to every subscriber of its type, in subscription order.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return errors.ValidationError("event cannot be nil").Build()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.RuntimeError("event bus is closed").Build()
	}
	targets := slices.Clone(b.topics[reflect.TypeOf(evt)])
	b.mu.Unlock()

	for _, m := range targets {
		if err := m.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the bus and every subscription channel.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	topics := b.topics
	b.topics = make(map[reflect.Type][]mailbox)
	b.mu.Unlock()

	for _, subs := range topics {
		for _, m := range subs {
			m.shutdown()
		}
	}
}
