package adapters

import (
	"github.com/agentstation/measurecast/internal/server/events"
	ws "github.com/agentstation/measurecast/internal/server/websocket"
)

// WebSocketSubscriber feeds the hub one wsFrame per event.
type WebSocketSubscriber struct {
	selfManaged
	hub *ws.Hub
}

func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Name implements events.Named.
func (w *WebSocketSubscriber) Name() string { return "websocket" }

// Send never blocks; the hub drops clients that cannot keep up.
func (w *WebSocketSubscriber) Send(event events.Event) error {
	w.hub.Broadcast(wsFrame(event))
	return nil
}
