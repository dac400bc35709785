// Package realtime delivers notification events to connected clients.
//
// Connections are ephemeral: the hub only knows clients registered with this
// process, and forgets them on restart. Business code talks to the Pusher
// interface and never to the registry directly.
package realtime

import (
	"context"
	"sync"

	"github.com/Taistois/mims/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// clientBuffer is the number of undelivered events a client may queue.
const clientBuffer = 16

// Event is one push message
type Event struct {
	Event  string      `json:"event"`
	UserID uint        `json:"user_id"`
	Data   interface{} `json:"data"`
}

// Pusher sends an event to every live connection of a user. Delivery is best effort.
type Pusher interface {
	Push(ctx context.Context, userID uint, event Event) error
}

// Registry tracks live connections.
type Registry interface {
	Register(userID uint) *Client
	Unregister(clientID string)
}

// Client is a registered connection
type Client struct {
	ID      string
	UserID  uint
	Channel chan Event
}

// Hub is the in-process registry of connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
	metrics *metrics.Metrics
}

var (
	_ Pusher   = (*Hub)(nil)
	_ Registry = (*Hub)(nil)
)

// NewHub creates an empty hub
func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log.Named("realtime.hub"),
		metrics: m,
	}
}

// Register adds a connection for userID
func (h *Hub) Register(userID uint) *Client {
	client := &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		Channel: make(chan Event, clientBuffer),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.RealtimeClients(1)
	h.log.Debug("client registered",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", userID),
		zap.Int("total", total))
	return client
}

// Unregister removes a connection and closes its channel
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		close(client.Channel)
		delete(h.clients, clientID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.RealtimeClients(-1)
		h.log.Debug("client unregistered", zap.String("client_id", clientID), zap.Int("total", total))
	}
}

// Push delivers event to the user's local connections. A full client queue
// drops the event for that client.
func (h *Hub) Push(_ context.Context, userID uint, event Event) error {
	event.UserID = userID

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			h.log.Warn("client queue full, dropping event",
				zap.String("client_id", client.ID),
				zap.String("event", event.Event))
		}
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Online reports whether the user has at least one live connection here
func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.UserID == userID {
			return true
		}
	}
	return false
}
