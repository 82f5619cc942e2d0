// Package event provides the host-event subscription capability the
// state machine coordinator consumes: window focus and visibility
// changes, and state-change notifications, delivered through an
// abstract subscribe/unsubscribe surface with guaranteed cleanup.
package event

import (
	"context"
	"sync"
)

// Topic names an event stream.
type Topic string

const (
	// TopicWindowFocus fires when the window gains or loses focus;
	// payload is a bool (focused).
	TopicWindowFocus Topic = "window.focus"
	// TopicWindowVisibility fires when the window becomes visible or
	// hidden; payload is a bool (visible).
	TopicWindowVisibility Topic = "window.visibility"
	// TopicStateChange fires after every store dispatch; payload is
	// the new state snapshot.
	TopicStateChange Topic = "state.change"
)

// Handler receives published events.
type Handler func(ctx context.Context, payload any)

// Subscription is a handle to one registered handler.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel removes the handler. It is idempotent and safe to call from
// any goroutine.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Bus is a minimal in-process event bus. Delivery is synchronous and
// a panicking handler is recovered so one bad subscriber cannot take
// down the dispatch path.
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic]map[int]Handler
	nextID int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]Handler)}
}

// Subscribe registers a handler for one topic.
func (b *Bus) Subscribe(topic Topic, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = h

	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}}
}

// Publish delivers payload to every handler subscribed to topic.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		deliver(ctx, h, payload)
	}
}

// SubscriberCount returns the number of handlers on topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

func deliver(ctx context.Context, h Handler, payload any) {
	defer func() {
		_ = recover()
	}()
	h(ctx, payload)
}
