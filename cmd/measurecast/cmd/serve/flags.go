package serve

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/errors"
)

// flagKeys maps relay flag names to their configuration keys.
var flagKeys = map[string]string{
	"port":         "osc.port",
	"host":         "osc.host",
	"read-buffer":  "osc.read_buffer_size",
	"webport":      "web.port",
	"web-host":     "web.host",
	"static-dir":   "web.static_dir",
	"cors":         "web.cors",
	"cors-origins": "web.cors_origins",
	"metrics":      "web.metrics",
	"nats-url":     "nats.url",
	"nats-subject": "nats.subject",
}

// AddFlags registers the relay flags on fs.
//
// -h is the OSC host, so help is only reachable as --help.
func AddFlags(fs *pflag.FlagSet) {
	// OSC listener
	fs.IntP("port", "p", constants.DefaultOSCPort, "OSC listening port")
	fs.StringP("host", "h", constants.DefaultOSCHost, "OSC listening host")
	fs.Int("read-buffer", constants.MaxDatagramSize, "largest OSC datagram accepted, in bytes")

	// Web server
	fs.IntP("webport", "w", constants.DefaultWebPort, "Webpage port")
	fs.String("web-host", constants.DefaultWebHost, "Webpage bind address")
	fs.String("static-dir", constants.DefaultStaticDir, "directory served at / (embedded page if missing)")
	fs.Bool("cors", false, "enable CORS for all origins")
	fs.StringSlice("cors-origins", []string{}, "allowed CORS origins (comma-separated)")
	fs.Bool("metrics", false, "expose Prometheus metrics at /metrics")

	// NATS mirror
	fs.String("nats-url", "", "mirror timing events to this NATS server")
	fs.String("nats-subject", constants.DefaultNATSSubject, "NATS subject for mirrored events")
}

// BindFlags binds the relay flags present in fs to v so explicitly set
// flags take precedence over file and environment values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.NewConfigError("flags", "binding --"+name, err)
		}
	}
	return nil
}
