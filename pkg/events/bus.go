// Package events carries the in-process cart-changed notification that keeps
// independently rendered surfaces (badge, cart page, checkout summary) in sync
// without sharing a parent owner.
package events

import "sync"

// Handler reacts to a cart change. The notification carries no payload;
// observers re-fetch or re-derive whatever they display.
type Handler func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe channel for cart changes. Handlers
// run in registration order on the publishing goroutine, so every mounted
// observer has seen a change before Publish returns.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler and returns the capability to remove it.
// Unsubscribing is required on view teardown; it is idempotent.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish notifies every current subscriber. Publishing with zero
// subscribers is a no-op.
func (b *Bus) Publish() {
	b.mu.Lock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, sub := range snapshot {
		sub.handler()
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
