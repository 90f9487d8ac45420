// Package server wires the push channels, status endpoints and static
// visualizer into one HTTP handler.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/metrics"
	"github.com/agentstation/measurecast/internal/server/events"
	"github.com/agentstation/measurecast/internal/server/events/adapters"
	"github.com/agentstation/measurecast/internal/server/handlers"
	"github.com/agentstation/measurecast/internal/server/sse"
	ws "github.com/agentstation/measurecast/internal/server/websocket"
	"github.com/agentstation/measurecast/pkg/logging"
)

// Server holds the push-channel state and its dependencies.
type Server struct {
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	static         http.Handler
	staticSource   string
	ready          handlers.ReadyFunc
	metrics        *metrics.Metrics
	logger         *zerolog.Logger
	config         Config
	wg             sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m at /metrics and records push-channel counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithReadiness sets the check behind /ready.
func WithReadiness(fn handlers.ReadyFunc) Option {
	return func(s *Server) { s.ready = fn }
}

// WithSubscriber adds an extra transport, such as a NATS mirror.
func WithSubscriber(sub events.Subscriber) Option {
	return func(s *Server) { s.broker.Subscribe(sub) }
}

// New creates a server. Call Run to start the registries.
func New(cfg Config, logger *zerolog.Logger, opts ...Option) *Server {
	logger = logging.Component(logger, "server")

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	static, source := staticHandler(cfg.StaticDir)

	s := &Server{
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		static:       static,
		staticSource: source,
		logger:       logger,
		config:       cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	broker.SetMetrics(s.metrics)
	wsHub.SetMetrics(s.metrics)
	sseBroadcaster.SetMetrics(s.metrics)

	logger.Debug().Str("static", source).Msg("Server instance created")
	return s
}

// Run starts the broker and registries and blocks until ctx is cancelled
// and they have closed every subscriber.
func (s *Server) Run(ctx context.Context) {
	s.wg.Add(3)
	go func() { defer s.wg.Done(); s.broker.Run(ctx) }()
	go func() { defer s.wg.Done(); s.wsHub.Run(ctx) }()
	go func() { defer s.wg.Done(); s.sseBroadcaster.Run(ctx) }()
	s.wg.Wait()
}

// Broadcaster returns the sink the bridge publishes timing events to.
func (s *Server) Broadcaster() *events.BridgeBroadcaster {
	return events.NewBridgeBroadcaster(s.broker)
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// StaticSource reports the directory served at /, or "embedded".
func (s *Server) StaticSource() string {
	return s.staticSource
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *ws.Hub {
	return s.wsHub
}

// SSEBroadcaster returns the SSE broadcaster.
func (s *Server) SSEBroadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}
