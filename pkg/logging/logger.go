// Package logging builds the zerolog loggers used across measurecast.
// Output is colored console text on a terminal and JSON lines otherwise,
// so the relay reads well both next to a sequencer and under a supervisor.
//
//	log := logging.Component(logging.Default(), "bridge")
//	log.Warn().Str("reason", "wrong arity").Msg("Rejected OSC message")
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger honours LOG_LEVEL and LOG_FORMAT until Configure or
// SetDefault replaces it.
var defaultLogger = fromEnvironment()

func fromEnvironment() zerolog.Logger {
	cfg := DefaultConfig()
	cfg.Level = os.Getenv("LOG_LEVEL")
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return zerolog.New(writerFor(cfg)).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Component returns a child of parent tagged with component=name.
// A nil parent means Default.
func Component(parent *zerolog.Logger, name string) *zerolog.Logger {
	if parent == nil {
		parent = Default()
	}
	l := parent.With().Str("component", name).Logger()
	return &l
}

func isatty() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
