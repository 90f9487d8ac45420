package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/measurecast/cmd/measurecast/cmd/serve"
)

// Execute runs the measurecast CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
// The root command itself runs the relay.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := serve.NewCommand(a)
	rootCmd.Version = a.build.version
	rootCmd.PersistentPreRunE = a.setupCommand
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.measurecast.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// Customize version output to match version subcommand
	rootCmd.SetVersionTemplate("measurecast {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand runs before every command. Precedence, lowest first:
// defaults, config file, environment, flags.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	a.config.UpdateFromFlags(
		mustFlag(flags.GetBool, "verbose"),
		mustFlag(flags.GetBool, "quiet"),
		mustFlag(flags.GetBool, "no-color"),
		mustFlag(flags.GetString, "log-level"),
	)

	if flags.Changed("config") {
		if err := readConfigFile(a.viper, mustFlag(flags.GetString, "config")); err != nil {
			return err
		}
		a.config.ConfigFile = a.viper.ConfigFileUsed()
	}

	// relay flags live on the root command only
	if cmd == cmd.Root() {
		if err := serve.BindFlags(a.viper, flags); err != nil {
			return err
		}
	}

	settings, err := loadSettings(a.viper)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = settings
	if !a.fixedLogger {
		logger := NewLogger(a.config)
		a.logger = &logger
	}
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.NewSendCommand())
	rootCmd.AddCommand(a.NewConfigCommand())
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// mustFlag reads a flag registered by createRootCommand. A lookup error is
// a programming error.
func mustFlag[T any](get func(string) (T, error), name string) T {
	v, err := get(name)
	if err != nil {
		panic("flag " + name + ": " + err.Error())
	}
	return v
}
