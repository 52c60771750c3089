package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Subscriber subscribes to the event channel and invokes handler for
// incoming events.
type Subscriber interface {
	Subscribe(handler func(event string, payload json.RawMessage)) (cancel func(), err error)
}

// Hub maintains the set of connected admin dashboard clients and fans
// incoming events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	cancel  func()
	logger  *zap.Logger
}

// NewHub creates a hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Start subscribes the hub to the event channel.
func (h *Hub) Start(sub Subscriber) error {
	cancel, err := sub.Subscribe(func(event string, payload json.RawMessage) {
		h.Broadcast(event, payload)
	})
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
	return nil
}

// Stop ends the subscription and disconnects all clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, c := range clients {
		c.close()
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("dashboard client connected", zap.String("client_id", c.ID), zap.Int("clients", n))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("dashboard client disconnected", zap.String("client_id", c.ID), zap.Int("clients", n))
}

// Broadcast sends an event to every connected client. Slow clients are
// skipped rather than blocking the fan-out.
func (h *Hub) Broadcast(event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping event for slow client", zap.String("client_id", c.ID), zap.String("event", event))
		}
	}
}
