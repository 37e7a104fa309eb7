package cart

import (
	"context"
	"testing"

	"github.com/waynejunj/prosperv1/internal/api"
)

func TestBadgeTracksCartThroughSubscription(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{items: []api.LineItem{item(1, 10, "5", 1), item(2, 11, "7", 1)}}
	cache, bus := newTestCache(t, remote, &stubSession{signedIn: true})
	if _, err := cache.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badge := NewBadge(cache, bus)
	if badge.Count() != 2 {
		t.Fatalf("expected seeded count 2, got %d", badge.Count())
	}

	if err := cache.Remove(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if badge.Count() != 1 {
		t.Fatalf("expected badge updated to 1, got %d", badge.Count())
	}
}

func TestClosedBadgeStopsObserving(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{items: []api.LineItem{item(1, 10, "5", 1)}}
	cache, bus := newTestCache(t, remote, &stubSession{signedIn: true})
	if _, err := cache.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badge := NewBadge(cache, bus)
	badge.Close()

	if err := cache.Remove(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if badge.Count() != 1 {
		t.Fatalf("expected stale count after close, got %d", badge.Count())
	}
}
