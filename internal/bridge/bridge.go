// Package bridge receives OSC datagrams over UDP and turns valid /measure
// messages into timing events for push-channel subscribers.
package bridge

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/metrics"
	"github.com/agentstation/measurecast/pkg/errors"
	"github.com/agentstation/measurecast/pkg/logging"
	"github.com/agentstation/measurecast/pkg/oscwire"
	"github.com/agentstation/measurecast/pkg/timing"
)

// Broadcaster delivers an accepted event to every current subscriber.
// Delivery is best effort; implementations must not block on slow consumers.
type Broadcaster interface {
	Broadcast(event timing.Event)
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(event timing.Event)

// Broadcast calls f(event).
func (f BroadcasterFunc) Broadcast(event timing.Event) { f(event) }

// Bridge is the datagram listener. Datagrams are handled one at a time in
// arrival order on the goroutine running Serve.
type Bridge struct {
	config      Config
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      *zerolog.Logger

	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithMetrics records datagram outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// New creates a bridge. The listener is not bound until Open.
func New(cfg Config, broadcaster Broadcaster, logger *zerolog.Logger, opts ...Option) *Bridge {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultConfig().ReadBufferSize
	}
	b := &Bridge{
		config:      cfg,
		broadcaster: broadcaster,
		logger:      logging.Component(logger, "bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open binds the UDP listener. Failure returns *errors.BindError.
func (b *Bridge) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.ErrClosed
	}
	if b.conn != nil {
		return nil
	}

	addr, err := net.ResolveUDPAddr("udp", b.config.Address())
	if err != nil {
		return errors.NewBindError("udp", b.config.Address(), err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return errors.NewBindError("udp", b.config.Address(), err)
	}

	b.conn = conn
	b.logger.Info().
		Str("addr", conn.LocalAddr().String()).
		Msg("Listening for OSC messages")
	return nil
}

// Addr returns the bound address, or nil before Open.
func (b *Bridge) Addr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	return b.conn.LocalAddr()
}

// Serve reads datagrams until Close is called or ctx is done.
// It returns nil on either, and a transport error if the socket fails.
func (b *Bridge) Serve(ctx context.Context) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("bridge: Serve called before Open")
	}

	stop := context.AfterFunc(ctx, func() { _ = b.Close() })
	defer stop()

	buf := make([]byte, b.config.ReadBufferSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if b.isClosed() || ctx.Err() != nil {
				return nil
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return errors.NewTransportError("udp", b.config.Address(), err)
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		b.handleDatagram(payload, from)
	}
}

// Close stops the listener. It is safe to call more than once.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.logger.Info().Msg("OSC listener closed")
	return err
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// handleDatagram runs decode, validate and broadcast for one payload.
// Each decoded message produces exactly one log line; a datagram that
// yields no message produces one of its own.
func (b *Bridge) handleDatagram(payload []byte, from *net.UDPAddr) {
	start := time.Now()
	b.metrics.Datagram(len(payload))
	defer func() { b.metrics.ObserveHandle(time.Since(start).Seconds()) }()

	remote := ""
	if from != nil {
		remote = from.String()
	}

	msgs, err := oscwire.Decode(payload)
	if err != nil {
		b.metrics.Outcome(metrics.OutcomeDecodeError)
		b.logger.Warn().
			Err(err).
			Str("remote", remote).
			Int("size", len(payload)).
			Msg("Dropped undecodable datagram")
		return
	}
	if len(msgs) == 0 {
		b.metrics.Outcome(metrics.OutcomeEmpty)
		b.logger.Warn().
			Str("remote", remote).
			Int("size", len(payload)).
			Msg("Dropped empty bundle")
		return
	}

	for _, msg := range msgs {
		b.handleMessage(msg, remote)
	}
}

func (b *Bridge) handleMessage(msg oscwire.Message, remote string) {
	event, err := timing.Validate(msg)
	if err != nil {
		reason := errors.RejectionReason(err)
		b.metrics.Rejected(reason)
		b.logger.Warn().
			Str("remote", remote).
			Str("address", msg.Address).
			Str("reason", reason).
			Str("message", msg.String()).
			Msg("Rejected OSC message")
		return
	}

	b.metrics.Outcome(metrics.OutcomeAccepted)
	b.metrics.Broadcast(event.Measure)

	if perr := b.broadcast(event); perr != nil {
		b.logger.Error().
			Err(perr).
			Str("remote", remote).
			Stringer("event", event).
			Msg("Broadcast failed")
		return
	}

	b.logger.Info().
		Str("remote", remote).
		Int64("measure", event.Measure).
		Int64("beat", event.Beat).
		Int64("frac", event.FractionalPosition).
		Msg("Relayed measure")
}

// broadcast isolates the listener from a misbehaving broadcaster.
func (b *Bridge) broadcast(event timing.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("broadcaster panic: %v", r)
		}
	}()
	if b.broadcaster != nil {
		b.broadcaster.Broadcast(event)
	}
	return nil
}
