package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/server/events"
	"github.com/agentstation/measurecast/pkg/errors"
	"github.com/agentstation/measurecast/pkg/logging"
)

// Publisher is the subset of *nats.Conn used by NATSSubscriber.
type Publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSubscriber mirrors events as JSON onto a NATS subject for
// non-browser consumers.
type NATSSubscriber struct {
	conn    Publisher
	subject string
	logger  *zerolog.Logger
}

// NewNATSSubscriber wraps an existing connection.
func NewNATSSubscriber(conn Publisher, subject string, logger *zerolog.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		conn:    conn,
		subject: subject,
		logger:  logging.Component(logger, "nats"),
	}
}

// DialNATS connects to url and returns a subscriber publishing to subject.
func DialNATS(url, subject string, logger *zerolog.Logger) (*NATSSubscriber, error) {
	log := logging.Component(logger, "nats")

	conn, err := nats.Connect(url,
		nats.Name("measurecast"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, errors.NewTransportError("nats", url, err)
	}

	log.Info().
		Str("url", conn.ConnectedUrl()).
		Str("subject", subject).
		Msg("Mirroring events to NATS")

	return NewNATSSubscriber(conn, subject, logger), nil
}

// Name implements events.Named.
func (n *NATSSubscriber) Name() string { return "nats" }

// Subject returns the subject events are published on.
func (n *NATSSubscriber) Subject() string { return n.subject }

// Send publishes the event. nats.go buffers publishes, so this does not
// wait on the server.
func (n *NATSSubscriber) Send(event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.NewTransportError("nats", n.subject, err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (n *NATSSubscriber) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.logger.Warn().Err(err).Msg("NATS drain failed")
		return err
	}
	return nil
}
