package feed

import (
	"log"
	"sync"

	"github.com/zhouzirui/people-api/backend/internal/service/directory"
)

// Hub fans directory events out to live subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan directory.Event
}

// NewHub returns a Hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan directory.Event)}
}

// Publish delivers e to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(e directory.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			log.Printf("[feed] subscriber=%d buffer full, dropping event %s", id, e.ID)
		}
	}
}

// Subscribe registers a listener. The returned cancel func closes the
// channel and is safe to call more than once.
func (h *Hub) Subscribe(buffer int) (<-chan directory.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan directory.Event, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports how many listeners are attached.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
