package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthwatch/internal/config"
)

// flagEnv maps command-line flags onto the environment keys they override.
var flagEnv = map[string]string{
	"mode":      "MONITOR_ENV",
	"interval":  "MONITOR_INTERVAL",
	"threshold": "MONITOR_ALERT_THRESHOLD",
	"sampler":   "MONITOR_SAMPLER",
	"listen":    "MONITOR_LISTEN_ADDR",
	"sinks":     "MONITOR_SINKS",
}

// NewRootCommand builds the healthwatch command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "healthwatch",
		Short: "Periodic host health sampling, alerting and forecasting",
		Long: `healthwatch samples CPU, memory, disk and network traffic on a fixed
interval, classifies every sample against an alert threshold and reports
each tick to the console, the log, Prometheus and a WebSocket stream.

The configuration preset is selected with MONITOR_ENV (production,
development or experimental) or --mode.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("mode", "", "configuration preset: production, development, experimental")

	root.AddCommand(
		newRunCommand(),
		newConfigCommand(),
		newTokenCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig resolves the configuration from the environment with any
// changed flags layered on top.
func loadConfig(cmd *cobra.Command) (config.Config, []string) {
	return config.LoadWith(flagLookup(cmd, os.Getenv))
}

func flagLookup(cmd *cobra.Command, env config.Lookup) config.Lookup {
	return func(key string) string {
		for flag, envKey := range flagEnv {
			if envKey != key {
				continue
			}
			f := cmd.Flags().Lookup(flag)
			if f != nil && f.Changed {
				return f.Value.String()
			}
		}
		return env(key)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "healthwatch %s (built %s)\n", config.Version, config.BuildTime)
		},
	}
}
