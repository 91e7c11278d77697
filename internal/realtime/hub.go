// Package realtime fans change events out to connected clients.
package realtime

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrHubNotInitialized = errors.New("realtime hub not initialized")
	ErrHubClosed         = errors.New("realtime hub closed")
)

// DefaultClientBuffer is the number of events a client may fall behind
// before further events are dropped for it.
const DefaultClientBuffer = 16

// Event is one message on a named channel.
type Event struct {
	Name    string
	Payload any
}

// Client is one connected subscriber.
type Client struct {
	events chan Event
	once   sync.Once
}

// Events delivers the client's events. It is closed on Unsubscribe or when
// the hub closes.
func (c *Client) Events() <-chan Event { return c.events }

func (c *Client) close() { c.once.Do(func() { close(c.events) }) }

// Hub is the process-wide broadcaster. It is created once at startup and
// handed to every component that emits or subscribes. Delivery is best
// effort: nothing is persisted or replayed and no acknowledgments exist.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	buffer  int
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		buffer:  DefaultClientBuffer,
		log:     log,
	}
}

// Subscribe registers a new client.
func (h *Hub) Subscribe() (*Client, error) {
	if h == nil {
		return nil, ErrHubNotInitialized
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	c := &Client{events: make(chan Event, h.buffer)}
	h.clients[c] = struct{}{}
	h.log.Debug().Int("clients", len(h.clients)).Msg("Client Connected")
	return c, nil
}

// Unsubscribe removes the client and closes its event channel.
func (h *Hub) Unsubscribe(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	h.log.Debug().Int("clients", len(h.clients)).Msg("Client Disconnected")
}

// Emit sends payload to every client connected right now. A client whose
// buffer is full misses the event; Emit never blocks on a slow client.
func (h *Hub) Emit(name string, payload any) error {
	if h == nil {
		return ErrHubNotInitialized
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	ev := Event{Name: name, Payload: payload}
	dropped := 0
	for c := range h.clients {
		select {
		case c.events <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.log.Warn().Str("event", name).Int("dropped", dropped).Msg("slow clients missed an event")
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Later Emit and Subscribe calls fail.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
