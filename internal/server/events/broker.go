package events

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/metrics"
	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/errors"
	"github.com/agentstation/measurecast/pkg/logging"
)

// Broker hands each published event to every subscriber, in publish order.
// Publish only enqueues; the goroutine running Run does the delivery.
type Broker struct {
	events chan Event
	now    func() utc.Time

	// subs is replaced, never mutated, so deliver can range over a snapshot.
	mu   sync.RWMutex
	subs []Subscriber

	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// NewBroker returns an idle broker. Subscribe may be called before Run.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		events: make(chan Event, constants.EventQueueSize),
		now:    utc.Now,
		logger: logging.Component(logger, "broker"),
	}
}

// SetMetrics counts deliveries and failures per transport in m.
func (b *Broker) SetMetrics(m *metrics.Metrics) {
	b.metrics = m
}

// Run delivers queued events until ctx is done. On return every subscriber
// has been closed and removed.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case ev := <-b.events:
			b.deliver(ev)
		case <-ctx.Done():
			for _, sub := range b.swap(nil) {
				_ = sub.Close()
			}
			b.logger.Info().Msg("Event broker stopped")
			return
		}
	}
}

func (b *Broker) snapshot() []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subs
}

// swap installs subs and returns the previous list.
func (b *Broker) swap(subs []Subscriber) []Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.subs
	b.subs = subs
	return prev
}

func (b *Broker) deliver(ev Event) {
	subs := b.snapshot()
	for _, sub := range subs {
		transport := subscriberName(sub)
		err := sendSafely(sub, ev)
		if err == nil {
			b.metrics.Delivered(transport)
			continue
		}
		b.metrics.DeliveryFailed(transport)
		b.logger.Warn().
			Err(errors.NewTransportError(transport, "", err)).
			Str("event_type", string(ev.Type)).
			Msg("Subscriber failed to take event")
	}
	b.logger.Trace().Str("event_type", string(ev.Type)).Int("subscribers", len(subs)).Msg("Event delivered")
}

// sendSafely calls sub.Send, converting a panic into an error.
func sendSafely(sub Subscriber, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return sub.Send(ev)
}

// Publish stamps and enqueues an event. It never blocks: with the queue full
// the event is dropped and a warning logged.
func (b *Broker) Publish(eventType EventType, data any) {
	select {
	case b.events <- Event{Type: eventType, Timestamp: b.now(), Data: data}:
	default:
		b.logger.Warn().Str("event_type", string(eventType)).Msg("Event queue full, event dropped")
	}
}

// Subscribe appends sub to the delivery list.
func (b *Broker) Subscribe(sub Subscriber) {
	b.mu.Lock()
	b.subs = append(b.subs[:len(b.subs):len(b.subs)], sub)
	n := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug().Str("subscriber", subscriberName(sub)).Int("subscribers", n).Msg("Subscriber added")
}

// Unsubscribe removes and closes sub. Unknown subscribers are ignored.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	i := slices.Index(b.subs, sub)
	if i >= 0 {
		b.subs = slices.Delete(slices.Clone(b.subs), i, i+1)
	}
	b.mu.Unlock()

	if i >= 0 {
		_ = sub.Close()
	}
}

// SubscriberCount returns the number of subscribers.
func (b *Broker) SubscriberCount() int {
	return len(b.snapshot())
}
