package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/measurecast/internal/server/response"
)

// HandleHealth handles GET /health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "measurecast",
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleReady handles GET /ready. It fails while the OSC listener is not bound.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if err := h.ready(); err != nil {
		h.logger.Debug().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, err.Error())
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}
