package events

// Subscriber adapts the event stream to one transport.
type Subscriber interface {
	// Send delivers an event. Implementations must not block on slow consumers.
	Send(Event) error

	// Close releases transport resources.
	Close() error
}

// Named is implemented by subscribers that report a transport name for logs and metrics.
type Named interface {
	Name() string
}

func subscriberName(sub Subscriber) string {
	if n, ok := sub.(Named); ok {
		return n.Name()
	}
	return "subscriber"
}
