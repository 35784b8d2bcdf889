// Package status provides the pub/sub bus for sync lifecycle events.
package status

import (
	"log/slog"
	"sync"
)

// Kind enumerates the sync lifecycle event types.
type Kind string

const (
	KindOnline    Kind = "online"
	KindOffline   Kind = "offline"
	KindStarted   Kind = "started"
	KindProgress  Kind = "progress"
	KindCompleted Kind = "completed"
	KindFailed    Kind = "failed"
)

// Event is a single sync lifecycle notification. Progress fields are set
// for KindProgress; Message and Retryable are set for KindFailed.
type Event struct {
	Kind Kind

	// Current and Total describe cycle progress in entity-type steps.
	Current int
	Total   int

	// Entity is the entity type label the progress step refers to.
	Entity string

	// Message describes a failure.
	Message string

	// Retryable is true when re-triggering sync may succeed.
	Retryable bool
}

// Bus fans events out to subscribers. A panicking subscriber is recovered
// and logged; it never affects other subscribers or the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
	log  *slog.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]func(Event)),
		log:  slog.Default(),
	}
}

// Subscribe registers a callback and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the event to every current subscriber in turn.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		b.deliver(fn, e)
	}
}

func (b *Bus) deliver(fn func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("status subscriber panicked", "event", string(e.Kind), "panic", r)
		}
	}()
	fn(e)
}
