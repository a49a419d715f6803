package notify

import (
	"sync"

	"github.com/appetiteclub/apt"

	"github.com/cafetab/cafetab/pkg/event"
)

// clientBuffer is the per-subscriber envelope backlog. A subscriber that
// falls further behind loses envelopes rather than stalling the hub.
const clientBuffer = 16

type client struct {
	room string
	ch   chan event.Envelope
}

// Hub routes envelopes to in-process subscribers by room. Publishing never
// blocks.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  apt.Logger
}

func NewHub(logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Subscribe registers a listener on a room. The returned cancel must be
// called when the listener goes away; after cancel the channel is closed.
func (h *Hub) Subscribe(room string) (<-chan event.Envelope, func()) {
	c := &client{
		room: room,
		ch:   make(chan event.Envelope, clientBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.ch)
		}
		h.mu.Unlock()
	}
	return c.ch, cancel
}

// Publish delivers the envelope to every subscriber of its room, dropping it
// for subscribers whose backlog is full.
func (h *Hub) Publish(env event.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.room != env.Room {
			continue
		}
		select {
		case c.ch <- env:
		default:
			h.logger.Debug("dropping notification for slow subscriber", "room", env.Room, "event", env.Event)
		}
	}
}

// RoomSize reports the number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c.room == room {
			n++
		}
	}
	return n
}
