package stream

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
)

// Errors returned by Hub.
var (
	// ErrHubClosed is returned by Subscribe while the hub is not accepting clients.
	ErrHubClosed = errors.New("stream: hub closed")

	// ErrInitialEvent is returned by Subscribe when the client refused the
	// initial event.
	ErrInitialEvent = errors.New("stream: initial event not accepted")
)

// Stats are cumulative hub counters.
type Stats struct {
	Subscribed uint64
	Evicted    uint64
	Delivered  uint64
	Broadcasts uint64
}

// Hub is the set of subscribed clients.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Broadcast holds the lock
//     only long enough to copy the membership, never while sending.
type Hub struct {
	logger *logging.Logger

	mu        sync.RWMutex
	clients   map[string]Client
	accepting bool

	subscribed atomic.Uint64
	evicted    atomic.Uint64
	delivered  atomic.Uint64
	broadcasts atomic.Uint64
}

// NewHub creates a hub that rejects subscribers until Open is called.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		logger:  logger.With("component", "stream"),
		clients: make(map[string]Client),
	}
}

// Open starts accepting subscribers.
func (h *Hub) Open() {
	h.mu.Lock()
	h.accepting = true
	h.mu.Unlock()
}

// Shutdown stops accepting subscribers and closes every current client.
// It returns the number of clients closed.
func (h *Hub) Shutdown() int {
	h.mu.Lock()
	h.accepting = false
	h.mu.Unlock()
	return h.CloseAll()
}

// Subscribe hands initial to c and then registers it, so the client's
// first event is always initial. On error c is closed and not registered.
func (h *Hub) Subscribe(c Client, initial Event) error {
	h.mu.RLock()
	accepting := h.accepting
	h.mu.RUnlock()
	if !accepting {
		c.Close()
		return ErrHubClosed
	}

	if !safeSend(c, initial) {
		c.Close()
		return ErrInitialEvent
	}

	h.mu.Lock()
	if !h.accepting {
		h.mu.Unlock()
		c.Close()
		return ErrHubClosed
	}
	h.clients[c.ID()] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.subscribed.Add(1)
	h.logger.Debug("stream client subscribed", "client_id", c.ID(), "clients", n)
	return nil
}

// Unsubscribe removes c and closes it. Only the call that actually
// removes the client closes it; later calls report false.
func (h *Hub) Unsubscribe(c Client) bool {
	h.mu.Lock()
	_, existed := h.clients[c.ID()]
	delete(h.clients, c.ID())
	n := len(h.clients)
	h.mu.Unlock()

	c.Close()
	if existed {
		h.logger.Debug("stream client removed", "client_id", c.ID(), "clients", n)
	}
	return existed
}

// Broadcast delivers e to every registered client and returns how many
// accepted it. A client that refuses the event is evicted.
func (h *Hub) Broadcast(e Event) int {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.broadcasts.Add(1)
	sent := 0
	for _, c := range clients {
		if safeSend(c, e) {
			sent++
			continue
		}
		if h.Unsubscribe(c) {
			h.evicted.Add(1)
			h.logger.Debug("stream client evicted", "client_id", c.ID(), "event", e.Name)
		}
	}
	h.delivered.Add(uint64(sent))
	return sent
}

// CloseAll closes and removes every client and returns how many there were.
func (h *Hub) CloseAll() int {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	if len(clients) > 0 {
		h.logger.Debug("stream clients closed", "clients", len(clients))
	}
	return len(clients)
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Accepting reports whether Subscribe currently admits clients.
func (h *Hub) Accepting() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.accepting
}

// Stats returns the cumulative counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Subscribed: h.subscribed.Load(),
		Evicted:    h.evicted.Load(),
		Delivered:  h.delivered.Load(),
		Broadcasts: h.broadcasts.Load(),
	}
}

// safeSend isolates a misbehaving Client implementation: a panic counts
// as a refused event.
func safeSend(c Client, e Event) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return c.Send(e)
}
