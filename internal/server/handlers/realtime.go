package handlers

import (
	"net/http"

	"github.com/agentstation/measurecast/internal/server/response"
	ws "github.com/agentstation/measurecast/internal/server/websocket"
	"github.com/agentstation/measurecast/pkg/logging"
)

// HandleWebSocket upgrades the request and registers the connection with
// the hub. The connection then receives every metronomeMessage broadcast.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.FromContext(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	if !h.wsHub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE streams events as Server-Sent Events.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}

// HandleStatic serves the visualizer assets.
func (h *Handlers) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		response.MethodNotAllowed(w, r.Method, http.MethodGet, http.MethodHead)
		return
	}
	h.static.ServeHTTP(w, r)
}
