// Package event is a small in-process publish/subscribe bus.
package event

import "sync"

type Handler func(event any)

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

// Publish calls every handler subscribed to name synchronously, in
// subscription order. Publishing on a nil bus is a no-op.
func (b *Bus) Publish(name string, event any) {
	if b == nil {
		return
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
