package ws

import (
	"encoding/json"
	"sync"

	"tasks_api/internal/domain"
	"tasks_api/internal/logger"
)

// Hub fans task events out to the connected clients of each owner.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

// Register adds c to its owner's subscribers. It returns false once the
// hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	set, ok := h.clients[c.Owner]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.Owner] = set
	}
	set[c] = struct{}{}
	return true
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.Owner]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.Owner)
	}
}

// Publish implements service.Notifier. Clients whose buffer is full miss
// the event rather than stalling the request that produced it.
func (h *Hub) Publish(owner string, ev domain.TaskEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws: marshal event", "error", err, "type", ev.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[owner] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws: dropping event for slow client", "owner", owner, "type", ev.Type)
		}
	}
}

// Subscribers returns the number of live connections of owner.
func (h *Hub) Subscribers(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}

// Close disconnects every client and rejects new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for owner, set := range h.clients {
		for c := range set {
			close(c.Send)
		}
		delete(h.clients, owner)
	}
}
