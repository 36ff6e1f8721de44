package events

import (
	"sync"

	"swaplock/core/types"
)

// Payload is implemented by events that can render themselves into the wire
// representation consumed by RPC subscribers.
type Payload interface {
	Event
	Event() *types.Event
}

// Hub fans emitted events out to an arbitrary number of subscribers. Slow
// subscribers drop events rather than blocking the emitting operation; the
// host supplies ordering, not delivery guarantees.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan *types.Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan *types.Event)}
}

// Emit implements the Emitter interface.
func (h *Hub) Emit(evt Event) {
	if h == nil || evt == nil {
		return
	}
	payload, ok := evt.(Payload)
	if !ok {
		return
	}
	wire := payload.Event()
	if wire == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- wire:
		default:
		}
	}
}

// Subscribe registers a buffered event channel. The returned cancel function
// unregisters the subscription and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan *types.Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan *types.Event, buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
