package send

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/measurecast/cmd/application"
	"github.com/agentstation/measurecast/pkg/constants"
)

// NewCommand creates the send command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Publish /measure messages to a relay",
		Long: `Send publishes OSC /measure messages to a running relay, standing in
for a sequencer.

Without --tempo one message is sent. With --tempo a stream starts at
--measure/--beat/--frac and advances one step per tick, where a step is
one subdivision of a beat. The stream runs until --count messages are
sent or the command is interrupted.

The target defaults to the configured OSC listener.`,
		Example: `  # One message
  measurecast send -m 2 -b 1 -f 0

  # 120 bpm in 4/4 with four steps per beat
  measurecast send --tempo 120 --subdivisions 4

  # Float-typed arguments, which the relay accepts when they are whole
  measurecast send --float -m 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	// -h is the target host, so help is only reachable as --help.
	cmd.Flags().StringP("host", "h", constants.DefaultOSCHost, "relay OSC host")
	cmd.Flags().IntP("port", "p", constants.DefaultOSCPort, "relay OSC port")
	cmd.Flags().String("address", constants.MeasureAddress, "OSC address pattern")

	cmd.Flags().Int64P("measure", "m", 1, "measure number")
	cmd.Flags().Int64P("beat", "b", 1, "beat within the measure")
	cmd.Flags().Int64P("frac", "f", 0, "step within the beat")
	cmd.Flags().Bool("float", false, "encode arguments as float32")

	cmd.Flags().Float64P("tempo", "t", 0, "stream at this many beats per minute")
	cmd.Flags().Int("beats-per-measure", 4, "beats per measure when streaming")
	cmd.Flags().IntP("subdivisions", "s", 1, "steps per beat when streaming")
	cmd.Flags().IntP("count", "n", 0, "stop after this many messages (0 streams until interrupted)")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	flags := cmd.Flags()
	logger := app.Logger()
	out := cmd.OutOrStdout()

	host, _ := flags.GetString("host")
	port, _ := flags.GetInt("port")
	if settings := app.Settings(); settings != nil {
		if !flags.Changed("host") {
			host = settings.OSC.Host
		}
		if !flags.Changed("port") {
			port = settings.OSC.Port
		}
	}
	address, _ := flags.GetString("address")
	asFloat, _ := flags.GetBool("float")

	var start Position
	start.Measure, _ = flags.GetInt64("measure")
	start.Beat, _ = flags.GetInt64("beat")
	start.Frac, _ = flags.GetInt64("frac")

	sender, err := Dial(net.JoinHostPort(host, strconv.Itoa(port)), address, asFloat)
	if err != nil {
		return err
	}
	defer func() { _ = sender.Close() }()

	tempo, _ := flags.GetFloat64("tempo")
	if tempo == 0 {
		if err := sender.Send(start); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Sent %s %s to %s\n", address, start, sender.Target())
		return nil
	}

	cfg := StreamConfig{Start: start, Tempo: tempo}
	cfg.BeatsPerMeasure, _ = flags.GetInt("beats-per-measure")
	cfg.Subdivisions, _ = flags.GetInt("subdivisions")
	cfg.Count, _ = flags.GetInt("count")

	logger.Info().
		Str("target", sender.Target()).
		Float64("tempo", tempo).
		Int("beats_per_measure", cfg.BeatsPerMeasure).
		Int("subdivisions", cfg.Subdivisions).
		Dur("interval", Interval(tempo, cfg.Subdivisions)).
		Msg("Streaming measure messages")

	n := 0
	err = Stream(cmd.Context(), sender, cfg, func(p Position) {
		n++
		logger.Debug().Str("position", p.String()).Msg("Sent")
	})
	_, _ = fmt.Fprintf(out, "Sent %d messages to %s\n", n, sender.Target())
	return err
}
