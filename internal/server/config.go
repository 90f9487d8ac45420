package server

import (
	"net"
	"strconv"
	"time"

	"github.com/agentstation/measurecast/pkg/constants"
)

// Config holds web server configuration.
type Config struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// StaticDir is served at /. When it does not exist the embedded
	// visualizer page is served instead.
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`

	CORSEnabled bool     `mapstructure:"cors" yaml:"cors"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	MetricsEnabled bool `mapstructure:"metrics" yaml:"metrics"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:              constants.DefaultWebHost,
		Port:              constants.DefaultWebPort,
		StaticDir:         constants.DefaultStaticDir,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		IdleTimeout:       constants.IdleTimeout,
	}
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
