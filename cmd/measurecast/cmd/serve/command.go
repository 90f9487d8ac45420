package serve

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/measurecast/cmd/application"
)

// NewCommand creates the relay command. The app uses it as the root
// command, so running measurecast with no subcommand starts the relay.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measurecast",
		Short: "Relay OSC /measure timing messages to web browsers",
		Long: `measurecast listens for OSC /measure messages over UDP and pushes each
valid one to every connected browser as a metronomeMessage event.

A /measure message carries three whole numbers: measure, beat and the
fractional position within the beat. Anything else is logged and dropped.

Browsers connect over WebSocket (/ws) or Server-Sent Events (/events).
The visualizer page is served from --static-dir, or from the embedded
copy when that directory does not exist.`,
		Example: `  # Listen on the defaults (OSC 127.0.0.1:9123, web :3000)
  measurecast

  # Accept OSC from the network and serve the page on port 8080
  measurecast --host 0.0.0.0 --webport 8080

  # Expose Prometheus metrics and mirror events to NATS
  measurecast --metrics --nats-url nats://127.0.0.1:4222`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), app)
		},
	}

	AddFlags(cmd.Flags())

	return cmd
}
