// Package adapters connects the event broker to concrete transports.
package adapters

import (
	"strconv"

	"github.com/agentstation/measurecast/internal/server/events"
	"github.com/agentstation/measurecast/internal/server/sse"
	ws "github.com/agentstation/measurecast/internal/server/websocket"
)

// selfManaged is embedded by subscribers whose transport is stopped by its
// own Run loop, so Close has nothing to release.
type selfManaged struct{}

func (selfManaged) Close() error { return nil }

// wsFrame renders event as one WebSocket text frame:
//
//	{"type":"metronomeMessage","timestamp":"2023-11-14T22:13:20Z","data":{"measure":2,"beat":1,"frac":0}}
func wsFrame(event events.Event) ws.Message {
	return ws.Message{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Data:      event.Data,
	}
}

// sseFrame renders event as one text/event-stream record. The id is the
// publish time in milliseconds so reconnecting clients can tell frames apart:
//
//	event: metronomeMessage
//	id: 1700000000123
//	data: {"measure":2,"beat":1,"frac":0}
func sseFrame(event events.Event) sse.Event {
	return sse.Event{
		Event: string(event.Type),
		ID:    strconv.FormatInt(event.Timestamp.UnixMilli(), 10),
		Data:  event.Data,
	}
}
