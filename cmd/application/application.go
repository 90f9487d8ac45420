// Package application defines the interface commands use to reach shared
// application state without importing the app package.
//
// The app package implements Application; command packages such as serve
// and send depend only on this interface, which keeps them testable with a
// small fake and free of import cycles.
package application

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/measurecast/internal/bridge"
	"github.com/agentstation/measurecast/internal/server"
	"github.com/agentstation/measurecast/pkg/constants"
)

// Application is what a command needs from the running CLI.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// Settings returns the effective relay configuration after defaults,
	// config file, environment and flags have been merged.
	Settings() *Settings

	// Stdout is where user-facing output such as the startup banner goes.
	Stdout() io.Writer

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}

// Settings is the merged relay configuration.
type Settings struct {
	OSC  bridge.Config `mapstructure:"osc" yaml:"osc"`
	Web  server.Config `mapstructure:"web" yaml:"web"`
	NATS NATSConfig    `mapstructure:"nats" yaml:"nats"`
}

// NATSConfig configures the optional NATS mirror. An empty URL disables it.
type NATSConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
}

// Enabled reports whether a NATS URL is configured.
func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		OSC: bridge.DefaultConfig(),
		Web: server.DefaultConfig(),
		NATS: NATSConfig{
			Subject: constants.DefaultNATSSubject,
		},
	}
}
