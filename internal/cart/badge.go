package cart

import (
	"sync"

	"github.com/waynejunj/prosperv1/pkg/events"
)

// Badge is the navigation-bar counter: an observer holding its own derived
// copy of the count, refreshed through its subscription rather than by
// asking the service. It demonstrates the rule that views own subscriptions,
// not truth.
type Badge struct {
	mu    sync.RWMutex
	count int

	unsubscribe func()
}

// NewBadge seeds the counter and subscribes it to cart changes. Close must
// be called on teardown so a destroyed view stops receiving notifications.
func NewBadge(cache *Cache, bus *events.Bus) *Badge {
	b := &Badge{}
	b.refresh(cache)
	b.unsubscribe = bus.Subscribe(func() {
		b.refresh(cache)
	})
	return b
}

// Count is what the badge renders.
func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Close tears the subscription down. Idempotent.
func (b *Badge) Close() {
	b.unsubscribe()
}

func (b *Badge) refresh(cache *Cache) {
	count := cache.Count()
	b.mu.Lock()
	b.count = count
	b.mu.Unlock()
}
