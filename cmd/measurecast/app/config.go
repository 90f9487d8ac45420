package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/measurecast/cmd/application"
	"github.com/agentstation/measurecast/pkg/errors"
)

// EnvPrefix prefixes every relay setting read from the environment,
// e.g. MEASURECAST_OSC_PORT for osc.port.
const EnvPrefix = "MEASURECAST"

// Config holds the global CLI settings. Relay settings live in the viper
// instance and are decoded into application.Settings.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Logging configuration. LogLevel is the --log-level flag; EnvLogLevel
	// comes from LOG_LEVEL and ranks below -v/-q.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration into v from all sources in order of
// precedence:
//  1. Command-line flags (bound later by the root command)
//  2. Environment variables (MEASURECAST_*)
//  3. .env files
//  4. Config file (--config, MEASURECAST_CONFIG or ~/.measurecast.yaml)
//  5. Defaults
func LoadConfig(v *viper.Viper) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, application.DefaultSettings())

	if err := readConfigFile(v, v.GetString("config")); err != nil {
		return nil, err
	}

	return &Config{
		ConfigFile:  v.ConfigFileUsed(),
		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// setDefaults registers every settings key so AutomaticEnv and Unmarshal
// see it even when no file or flag sets it.
func setDefaults(v *viper.Viper, d application.Settings) {
	v.SetDefault("osc.host", d.OSC.Host)
	v.SetDefault("osc.port", d.OSC.Port)
	v.SetDefault("osc.read_buffer_size", d.OSC.ReadBufferSize)

	v.SetDefault("web.host", d.Web.Host)
	v.SetDefault("web.port", d.Web.Port)
	v.SetDefault("web.static_dir", d.Web.StaticDir)
	v.SetDefault("web.cors", d.Web.CORSEnabled)
	v.SetDefault("web.cors_origins", d.Web.CORSOrigins)
	v.SetDefault("web.metrics", d.Web.MetricsEnabled)
	v.SetDefault("web.read_header_timeout", d.Web.ReadHeaderTimeout)
	v.SetDefault("web.idle_timeout", d.Web.IdleTimeout)

	v.SetDefault("nats.url", d.NATS.URL)
	v.SetDefault("nats.subject", d.NATS.Subject)
}

// readConfigFile reads path, or searches for .measurecast.yaml in the home
// and working directories when path is empty. A missing file is only an
// error when it was named explicitly.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".measurecast")
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if path == "" && errors.As(err, &notFound) {
		return nil
	}
	return errors.NewConfigError("config", "reading config file", err)
}

// loadSettings decodes and validates the merged relay settings.
func loadSettings(v *viper.Viper) (*application.Settings, error) {
	var s application.Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.NewConfigError("config", "decoding settings", err)
	}
	if err := s.OSC.Validate(); err != nil {
		return nil, err
	}
	if s.Web.Port < 0 || s.Web.Port > 65535 {
		return nil, errors.NewConfigError("web", "port out of range", nil)
	}
	return &s, nil
}

// loadEnvFiles loads environment variables from .env files.
// godotenv never overrides a variable that is already set, so .env.local
// is loaded first to take precedence over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
