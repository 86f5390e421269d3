package events

import (
	"sync"

	"github.com/ivey1207/supperapp/internal/domain"
)

const subscriberBuffer = 32

// Hub broadcasts timeline events to live subscribers (admin websockets).
// Slow subscribers drop events instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan domain.TimelineEvent
	nextID uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan domain.TimelineEvent)}
}

// Subscribe returns a channel of events and a function that detaches it.
func (h *Hub) Subscribe() (<-chan domain.TimelineEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan domain.TimelineEvent, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Broadcast(event domain.TimelineEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
