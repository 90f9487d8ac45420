package app

import (
	"fmt"
	"runtime"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/agentstation/measurecast/cmd/measurecast/cmd/send"
)

// NewSendCommand creates the send command with app dependencies.
func (a *App) NewSendCommand() *cobra.Command {
	return send.NewCommand(a)
}

// NewConfigCommand creates the config command, which prints the effective
// relay settings as YAML.
func (a *App) NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the relay settings after merging defaults, the config file,
.env files and MEASURECAST_* environment variables.

The output is valid YAML and can be saved as ~/.measurecast.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.Settings())
			if err != nil {
				return fmt.Errorf("rendering settings: %w", err)
			}
			out := cmd.OutOrStdout()
			if file := a.viper.ConfigFileUsed(); file != "" {
				_, _ = fmt.Fprintf(out, "# config file: %s\n", file)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "measurecast version %s\n", a.build.version)
			_, _ = fmt.Fprintf(out, "commit: %s\n", a.build.commit)
			_, _ = fmt.Fprintf(out, "built: %s\n", a.build.date)
			_, _ = fmt.Fprintf(out, "built by: %s\n", a.build.builtBy)
			_, _ = fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			_, _ = fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
