// Package constants provides shared constants used throughout the measurecast codebase.
// This includes wire-protocol names, network defaults, timeouts and file permissions
// that must stay consistent between the bridge, the web server and the CLI.
package constants

import "time"

// Protocol constants define the fixed contract with timing publishers and browsers.
const (
	// MeasureAddress is the only OSC address pattern the bridge accepts.
	MeasureAddress = "/measure"

	// MeasureArity is the number of arguments a measure message carries.
	MeasureArity = 3

	// MetronomeEvent is the push-channel event name for accepted timing messages.
	MetronomeEvent = "metronomeMessage"
)

// Network defaults for the relay's listeners.
const (
	// DefaultOSCHost is the default datagram listen address.
	DefaultOSCHost = "127.0.0.1"

	// DefaultOSCPort is the default datagram listen port.
	DefaultOSCPort = 9123

	// DefaultWebHost is the default HTTP listen address.
	DefaultWebHost = "0.0.0.0"

	// DefaultWebPort is the default HTTP (push-channel and static assets) port.
	DefaultWebPort = 3000

	// DefaultStaticDir is the directory served as the browser UI.
	DefaultStaticDir = "public"

	// DefaultNATSSubject is the subject timing events are mirrored to when NATS is enabled.
	DefaultNATSSubject = "measurecast.metronome"

	// MaxDatagramSize is the largest UDP payload the bridge will read.
	MaxDatagramSize = 65536
)

// Timeout constants define various timeout durations used in the application
const (
	// ShutdownTimeout bounds graceful shutdown of the HTTP server and registries.
	ShutdownTimeout = 5 * time.Second

	// ReadHeaderTimeout is the HTTP read header timeout.
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout is the HTTP keep-alive idle timeout.
	IdleTimeout = 120 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Queue sizes for the event pipeline.
const (
	// EventQueueSize is the broker's pending event capacity.
	EventQueueSize = 256

	// ClientQueueSize is the per-subscriber pending message capacity.
	ClientQueueSize = 64
)
