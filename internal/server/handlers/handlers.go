// Package handlers provides the HTTP handlers of the measurecast web server.
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/server/sse"
	ws "github.com/agentstation/measurecast/internal/server/websocket"
)

// ReadyFunc reports whether the relay can accept datagrams. A nil error means ready.
type ReadyFunc func() error

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	static         http.Handler
	ready          ReadyFunc
	startTime      time.Time
	logger         *zerolog.Logger
}

// New creates a new Handlers instance. A nil ready func always reports ready.
func New(
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	static http.Handler,
	ready ReadyFunc,
	logger *zerolog.Logger,
) *Handlers {
	if ready == nil {
		ready = func() error { return nil }
	}
	return &Handlers{
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		static:         static,
		ready:          ready,
		startTime:      time.Now(),
		logger:         logger,
	}
}
