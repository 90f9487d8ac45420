// Package timing defines the normalized musical timing event relayed to browsers
// and the validator that turns decoded OSC messages into events.
package timing

import (
	"fmt"

	"github.com/agentstation/measurecast/pkg/constants"
)

// Event is a validated position in the publisher's transport.
// Values are immutable once constructed; pass by value.
type Event struct {
	Measure            int64
	Beat               int64
	FractionalPosition int64
}

// Payload is the browser-facing wire form of an Event.
// The third field is named "frac" for compatibility with existing visualizers.
type Payload struct {
	Measure int64 `json:"measure" yaml:"measure"`
	Beat    int64 `json:"beat" yaml:"beat"`
	Frac    int64 `json:"frac" yaml:"frac"`
}

// Payload returns the wire form of the event.
func (e Event) Payload() Payload {
	return Payload{
		Measure: e.Measure,
		Beat:    e.Beat,
		Frac:    e.FractionalPosition,
	}
}

// Name returns the push-channel event name.
func (e Event) Name() string {
	return constants.MetronomeEvent
}

// String formats the event as measure.beat.frac.
func (e Event) String() string {
	return fmt.Sprintf("%d.%d.%d", e.Measure, e.Beat, e.FractionalPosition)
}
