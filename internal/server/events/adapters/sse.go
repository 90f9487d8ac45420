package adapters

import (
	"github.com/agentstation/measurecast/internal/server/events"
	"github.com/agentstation/measurecast/internal/server/sse"
)

// SSESubscriber feeds the broadcaster one sseFrame per event.
type SSESubscriber struct {
	selfManaged
	broadcaster *sse.Broadcaster
}

func NewSSESubscriber(broadcaster *sse.Broadcaster) *SSESubscriber {
	return &SSESubscriber{broadcaster: broadcaster}
}

// Name implements events.Named.
func (s *SSESubscriber) Name() string { return "sse" }

// Send never blocks; a full broadcaster queue drops the event.
func (s *SSESubscriber) Send(event events.Event) error {
	s.broadcaster.Broadcast(sseFrame(event))
	return nil
}
