// Package events fans timing events out to every push transport.
//
// The bridge publishes into a single Broker; transport adapters (WebSocket,
// SSE, NATS) subscribe to it. The broker preserves publish order per
// subscriber and isolates a failing subscriber from the rest.
package events

import (
	"github.com/agentstation/utc"

	"github.com/agentstation/measurecast/pkg/constants"
)

// EventType names an event on the push channel.
type EventType string

// Metronome carries one timing event: {"measure","beat","frac"}.
const Metronome EventType = constants.MetronomeEvent

// Event is a published event with its publish time, always in UTC.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp utc.Time  `json:"timestamp"`
	Data      any       `json:"data"`
}
