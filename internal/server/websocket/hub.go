// Package websocket provides the WebSocket push channel for timing events.
package websocket

import (
	"context"
	"sync"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/metrics"
	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/logging"
)

const transportName = "websocket"

// membership is a join or leave request for Run.
type membership struct {
	client *Client
	join   bool
}

// Hub fans messages out to connected clients. Only Run changes the client
// set; mu guards reads from ClientCount.
type Hub struct {
	broadcast chan Message
	members   chan membership
	done      chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}

	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// NewHub returns a hub. Clients can register once Run is started.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		broadcast: make(chan Message, constants.EventQueueSize),
		members:   make(chan membership),
		done:      make(chan struct{}),
		clients:   make(map[*Client]struct{}),
		logger:    logging.Component(logger, transportName),
	}
}

// SetMetrics records the connected client count in m.
func (h *Hub) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// Run serves membership changes and broadcasts until ctx is done. It then
// closes every send queue, so each writer sends a close frame and exits.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)

		case m := <-h.members:
			if m.join {
				h.join(m.client)
			} else {
				h.leave(m.client, "WebSocket client disconnected")
			}

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			clear(h.clients)
			h.mu.Unlock()

			h.metrics.Subscribers(transportName, 0)
			h.logger.Info().Msg("WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.Subscribers(transportName, n)
	h.logger.Info().Str("client_id", c.id).Str("remote", c.remote).Int("clients", n).
		Msg("WebSocket client connected")
}

// leave removes c and closes its send queue, logging msg. Clients already
// gone are ignored.
func (h *Hub) leave(c *Client, msg string) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !present {
		return
	}
	h.metrics.Subscribers(transportName, n)
	h.logger.Info().Str("client_id", c.id).Int("clients", n).Msg(msg)
}

// fanOut queues msg for every client. Clients with a full queue are dropped
// so one stalled browser cannot hold back the rest.
func (h *Hub) fanOut(msg Message) {
	var stalled []*Client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.leave(c, "WebSocket client too slow, disconnected")
	}
}

// Register adds c. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.members <- membership{client: c, join: true}:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c. Unknown clients are ignored.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.members <- membership{client: c}:
	case <-h.done:
	}
}

// Broadcast queues msg without blocking. With the queue full msg is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn().Str("type", msg.Type).Msg("WebSocket queue full, message dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message is the JSON frame written to clients.
type Message struct {
	Type      string   `json:"type"`
	Timestamp utc.Time `json:"timestamp"`
	Data      any      `json:"data"`
}
