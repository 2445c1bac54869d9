package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"healthwatch/internal/app"
	"healthwatch/internal/config"
	"healthwatch/internal/logger"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the monitoring loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, warnings := loadConfig(cmd)
			log := logger.New(cfg, os.Stderr)
			for _, w := range warnings {
				log.Warn().Msg(w)
			}

			log.Info().
				Str("version", config.Version).
				Dur("interval", cfg.Interval).
				Float64("threshold", cfg.AlertThreshold).
				Bool("debug", cfg.Debug).
				Str("sampler", cfg.Sampler).
				Str("providers", strings.Join(cfg.Providers, ",")).
				Dur("forecast_window", cfg.ForecastWindow).
				Msg("healthwatch starting")

			a := app.New(cfg, log, cmd.OutOrStdout())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.Run(ctx)
		},
	}

	cmd.Flags().String("interval", "", "sampling interval, e.g. 30s")
	cmd.Flags().String("threshold", "", "alert threshold in percent")
	cmd.Flags().String("sampler", "", "metric source: host or simulated")
	cmd.Flags().String("listen", "", "HTTP listen address, e.g. localhost:8080")
	cmd.Flags().String("sinks", "", "comma separated output sinks: console, log")
	return cmd
}
