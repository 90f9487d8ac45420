// Package app provides the application context and dependency management
// for the measurecast CLI: configuration, logging, and the root command
// that wires the relay and its subcommands together.
package app

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/measurecast/cmd/application"
)

// App holds what every command needs: build metadata, the viper instance
// behind the settings, the logger and the output writer.
type App struct {
	build struct{ version, commit, date, builtBy string }

	config *Config
	viper  *viper.Viper
	stdout io.Writer

	mu       sync.RWMutex
	settings *application.Settings
	logger   *zerolog.Logger
	// fixedLogger is set by WithLogger; flag parsing then leaves logger alone.
	fixedLogger bool
}

var _ application.Application = (*App)(nil)

// New loads .env files, the environment and any config file, then applies
// opts. Command line flags are applied later, when a command runs.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	a := &App{viper: viper.New(), stdout: os.Stdout}
	a.build.version, a.build.commit, a.build.date, a.build.builtBy = version, commit, date, builtBy

	var err error
	if a.config, err = LoadConfig(a.viper); err != nil {
		return nil, err
	}
	logger := NewLogger(a.config)
	a.logger = &logger

	if a.settings, err = loadSettings(a.viper); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) Version() string { return a.build.version }
func (a *App) Commit() string  { return a.build.commit }
func (a *App) Date() string    { return a.build.date }
func (a *App) BuiltBy() string { return a.build.builtBy }

// Config returns the logging and config-file options.
func (a *App) Config() *Config { return a.config }

// Stdout is where user-facing output goes.
func (a *App) Stdout() io.Writer { return a.stdout }

func (a *App) Logger() *zerolog.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// Settings returns the effective relay settings. They are replaced once
// flags are parsed.
func (a *App) Settings() *application.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Option configures an App in New.
type Option func(*App) error

// WithLogger pins the logger; -v, -q and --log-level no longer rebuild it.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger, a.fixedLogger = logger, true
		return nil
	}
}

// WithStdout redirects user-facing output.
func WithStdout(w io.Writer) Option {
	return func(a *App) error {
		a.stdout = w
		return nil
	}
}
