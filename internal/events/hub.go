package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/metrics"
	"github.com/yukikurage/taskboard-api/internal/models"
)

const DefaultBuffer = 16

// Client is one registered stream connection.
type Client struct {
	ID     string
	UserID uint64

	admin  bool
	events chan Event
}

// Events yields the events delivered to this connection. The channel is
// closed once the client is unregistered.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Hub tracks every open connection per user and delivers events to the
// connections in an event's audience.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]map[string]*Client
	buffer  int
	log     *zap.Logger
}

func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		clients: make(map[uint64]map[string]*Client),
		buffer:  buffer,
		log:     log,
	}
}

// Register adds a connection for userID. Connections of the same user are
// tracked independently.
func (h *Hub) Register(userID uint64, role models.Role) *Client {
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		admin:  role == models.RoleAdmin,
		events: make(chan Event, h.buffer),
	}

	h.mu.Lock()
	conns, ok := h.clients[userID]
	if !ok {
		conns = make(map[string]*Client)
		h.clients[userID] = conns
	}
	conns[c.ID] = c
	h.mu.Unlock()

	metrics.EventConnections.Inc()
	h.log.Debug("event client registered", zap.Uint64("user_id", userID), zap.String("connection_id", c.ID))
	return c
}

// Unregister removes exactly c and closes its channel. Calling it twice is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c.ID]; !ok {
		return
	}

	h.remove(conns, c)
}

// remove must be called with h.mu held for writing.
func (h *Hub) remove(conns map[string]*Client, c *Client) {
	delete(conns, c.ID)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.events)
	metrics.EventConnections.Dec()
	h.log.Debug("event client unregistered", zap.Uint64("user_id", c.UserID), zap.String("connection_id", c.ID))
}

// SetRole updates the admin flag of every open connection of userID.
func (h *Hub) SetRole(userID uint64, role models.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients[userID] {
		c.admin = role == models.RoleAdmin
	}
}

// DisconnectUser closes every open connection of userID.
func (h *Hub) DisconnectUser(userID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[userID]
	for _, c := range conns {
		h.remove(conns, c)
	}
}

// Close closes every open connection so streaming handlers return and the
// HTTP server can finish shutting down.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	closed := 0
	for _, conns := range h.clients {
		for _, c := range conns {
			h.remove(conns, c)
			closed++
		}
	}
	h.log.Info("event hub closed", zap.Int("connections", closed))
}

// Connections returns the number of open connections of userID.
func (h *Hub) Connections(userID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Deliver hands evt to every local connection in its audience without
// blocking. A connection whose buffer is full misses the event.
func (h *Hub) Deliver(evt Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for userID, conns := range h.clients {
		for _, c := range conns {
			if !evt.Audience.Includes(userID, c.admin) {
				continue
			}
			select {
			case c.events <- evt:
				delivered++
			default:
				metrics.EventsDropped.WithLabelValues(string(evt.Type)).Inc()
				h.log.Warn("event dropped for slow client",
					zap.String("event_id", evt.ID),
					zap.Uint64("user_id", userID),
					zap.String("connection_id", c.ID),
				)
			}
		}
	}

	metrics.EventsDelivered.WithLabelValues(string(evt.Type)).Add(float64(delivered))
	return delivered
}

// Publish delivers evt to this process's connections.
func (h *Hub) Publish(_ context.Context, evt Event) error {
	h.Deliver(evt)
	return nil
}
