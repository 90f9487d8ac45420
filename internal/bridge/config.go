package bridge

import (
	"fmt"
	"net"
	"strconv"

	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/errors"
)

// Config holds the OSC listener settings.
type Config struct {
	Host           string `mapstructure:"host" yaml:"host"`
	Port           int    `mapstructure:"port" yaml:"port"`
	ReadBufferSize int    `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`
}

// DefaultConfig returns the listener defaults.
func DefaultConfig() Config {
	return Config{
		Host:           constants.DefaultOSCHost,
		Port:           constants.DefaultOSCPort,
		ReadBufferSize: constants.MaxDatagramSize,
	}
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the config. Port 0 requests an ephemeral port.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewConfigError("bridge", fmt.Sprintf("port %d out of range", c.Port), nil)
	}
	if c.ReadBufferSize < 0 {
		return errors.NewConfigError("bridge", "read buffer size must not be negative", nil)
	}
	return nil
}
