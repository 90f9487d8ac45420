// Package sse serves the timing push channel as a Server-Sent Events stream,
// for browsers and tools that cannot open a WebSocket.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/metrics"
	"github.com/agentstation/measurecast/internal/server/response"
	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/logging"
)

const transportName = "sse"

// Event is one SSE frame. Data is encoded as JSON on the data line.
type Event struct {
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data"`
}

// stream is one open response. queue is closed by the Run goroutine only.
type stream struct {
	id     string
	remote string
	queue  chan Event
}

func newStream(remote string, size int) *stream {
	return &stream{id: uuid.NewString(), remote: remote, queue: make(chan Event, size)}
}

// Broadcaster fans events out to every open stream. The stream set is
// changed only by the goroutine running Run; mu lets ClientCount read it.
type Broadcaster struct {
	join   chan *stream
	leave  chan *stream
	events chan Event
	done   chan struct{}

	mu      sync.RWMutex
	streams map[*stream]struct{}

	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// NewBroadcaster returns a Broadcaster. Streams are accepted once Run starts.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		join:    make(chan *stream),
		leave:   make(chan *stream),
		events:  make(chan Event, constants.EventQueueSize),
		done:    make(chan struct{}),
		streams: make(map[*stream]struct{}),
		logger:  logging.Component(logger, transportName),
	}
}

// SetMetrics records the open stream count in m.
func (b *Broadcaster) SetMetrics(m *metrics.Metrics) {
	b.metrics = m
}

// Run serves joins, leaves and events until ctx is done, then ends every
// stream so their handlers return.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			b.endAll()
			return
		case s := <-b.join:
			n := b.add(s)
			b.logger.Debug().Str("stream", s.id).Str("remote", s.remote).Int("streams", n).Msg("SSE stream opened")
		case s := <-b.leave:
			if n, ok := b.end(s); ok {
				b.logger.Debug().Str("stream", s.id).Int("streams", n).Msg("SSE stream closed")
			}
		case ev := <-b.events:
			b.deliver(ev)
		}
	}
}

func (b *Broadcaster) add(s *stream) int {
	b.mu.Lock()
	b.streams[s] = struct{}{}
	n := len(b.streams)
	b.mu.Unlock()

	b.metrics.Subscribers(transportName, n)
	return n
}

// end removes s and closes its queue. ok is false if s was already gone.
func (b *Broadcaster) end(s *stream) (n int, ok bool) {
	b.mu.Lock()
	if _, ok = b.streams[s]; ok {
		delete(b.streams, s)
		close(s.queue)
	}
	n = len(b.streams)
	b.mu.Unlock()

	if ok {
		b.metrics.Subscribers(transportName, n)
	}
	return n, ok
}

func (b *Broadcaster) endAll() {
	b.mu.Lock()
	for s := range b.streams {
		close(s.queue)
	}
	clear(b.streams)
	b.mu.Unlock()

	b.metrics.Subscribers(transportName, 0)
	b.logger.Info().Msg("SSE broadcaster stopped")
}

// deliver queues ev on every stream. A stream whose queue is full is ended.
func (b *Broadcaster) deliver(ev Event) {
	var behind []*stream

	b.mu.RLock()
	for s := range b.streams {
		select {
		case s.queue <- ev:
		default:
			behind = append(behind, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range behind {
		if n, ok := b.end(s); ok {
			b.logger.Warn().Str("stream", s.id).Str("remote", s.remote).Int("streams", n).
				Msg("SSE stream fell behind, closed")
		}
	}
}

// Broadcast queues ev for all streams. It never blocks; when the queue is
// full the event is dropped.
func (b *Broadcaster) Broadcast(ev Event) {
	select {
	case b.events <- ev:
	default:
		b.logger.Warn().Str("event", ev.Event).Msg("SSE queue full, event dropped")
	}
}

// ClientCount returns the number of open streams.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.streams)
}

// ServeHTTP holds the response open and writes each event as a frame. It
// returns when the client goes away or the broadcaster stops.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.JSON(w, http.StatusInternalServerError,
			response.Fail(response.CodeInternal, "Streaming not supported", ""))
		return
	}

	s := newStream(r.RemoteAddr, constants.ClientQueueSize)
	select {
	case b.join <- s:
	case <-b.done:
		response.ServiceUnavailable(w, "server shutting down")
		return
	case <-r.Context().Done():
		return
	}
	defer b.release(s)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	var frame bytes.Buffer
	send := func(ev Event) bool {
		frame.Reset()
		if err := encodeFrame(&frame, ev); err != nil {
			b.logger.Error().Err(err).Str("event", ev.Event).Msg("Cannot encode SSE frame")
			return true
		}
		if _, err := w.Write(frame.Bytes()); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(Event{Event: "connected", Data: map[string]string{"stream": s.id}}) {
		return
	}

	for {
		select {
		case ev, open := <-s.queue:
			if !open || !send(ev) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// release hands s back to Run. After Run exits there is nobody to receive.
func (b *Broadcaster) release(s *stream) {
	select {
	case b.leave <- s:
	case <-b.done:
	}
}

// encodeFrame writes ev in text/event-stream form, ending with a blank line.
func encodeFrame(buf *bytes.Buffer, ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	if ev.Event != "" {
		buf.WriteString("event: " + ev.Event + "\n")
	}
	if ev.ID != "" {
		buf.WriteString("id: " + ev.ID + "\n")
	}
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return nil
}
