package feishu

import (
	"context"
	"sync"
)

// Deduper remembers recently processed event ids so redelivered webhook
// events are dropped instead of replayed.
type Deduper interface {
	// Seen marks the id as processed and reports whether it already was.
	Seen(ctx context.Context, eventID string) (bool, error)
}

// BoundedDeduper is an in-memory Deduper with a fixed capacity. When full,
// the oldest remembered id is evicted, so the guarantee is "no duplicates
// within the last capacity events" rather than a wholesale reset.
type BoundedDeduper struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
	head     int
}

// NewBoundedDeduper creates a deduper remembering up to capacity ids.
func NewBoundedDeduper(capacity int) *BoundedDeduper {
	if capacity <= 0 {
		capacity = 1000
	}
	return &BoundedDeduper{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Seen implements Deduper.
func (d *BoundedDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[eventID]; ok {
		return true, nil
	}

	if len(d.order) < d.capacity {
		d.order = append(d.order, eventID)
	} else {
		// Ring buffer is full, evict the oldest id in place.
		delete(d.seen, d.order[d.head])
		d.order[d.head] = eventID
		d.head = (d.head + 1) % d.capacity
	}
	d.seen[eventID] = struct{}{}

	return false, nil
}

// Len returns the number of remembered ids.
func (d *BoundedDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
