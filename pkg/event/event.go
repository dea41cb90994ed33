// Package event is an in-process dispatcher. Services publish domain events
// to a Bus; listeners such as the dashboard broker subscribe by name or to
// everything.
//
//	bus := event.NewBus()
//	bus.ListenAll(broker.Publish)
//	bus.Publish("order_created", payload)
package event

import "sync"

type Handler func(name string, payload interface{})

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Listen registers h for one event name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// ListenAll registers h for every event.
func (b *Bus) ListenAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish runs the listeners synchronously, named ones first.
func (b *Bus) Publish(name string, payload interface{}) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[name])+len(b.all))
	hs = append(hs, b.handlers[name]...)
	hs = append(hs, b.all...)
	b.mu.RUnlock()

	for _, h := range hs {
		h(name, payload)
	}
}
