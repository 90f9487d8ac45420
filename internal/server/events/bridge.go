package events

import "github.com/agentstation/measurecast/pkg/timing"

// BridgeBroadcaster publishes accepted timing events on a Broker.
// It satisfies the bridge's Broadcaster interface.
type BridgeBroadcaster struct {
	broker *Broker
}

// NewBridgeBroadcaster returns a broadcaster publishing to broker.
func NewBridgeBroadcaster(broker *Broker) *BridgeBroadcaster {
	return &BridgeBroadcaster{broker: broker}
}

// Broadcast publishes one metronome event.
func (b *BridgeBroadcaster) Broadcast(event timing.Event) {
	b.broker.Publish(Metronome, event.Payload())
}
