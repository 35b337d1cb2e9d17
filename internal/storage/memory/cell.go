package memory

import "sync"

// cell holds one record behind its own lock so writers of different
// records never contend.
type cell[T any] struct {
	mu      sync.RWMutex
	data    T
	deleted bool
}

func newCell[T any](v T) *cell[T] {
	return &cell[T]{data: v}
}

// Get returns the value and false when the record was deleted.
func (c *cell[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, !c.deleted
}

func (c *cell[T]) Set(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleted {
		return false
	}
	c.data = v
	return true
}

func (c *cell[T]) markDeleted() {
	c.mu.Lock()
	c.deleted = true
	c.mu.Unlock()
}
