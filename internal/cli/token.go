package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthwatch/internal/logger"
	"healthwatch/internal/middleware"
	"healthwatch/internal/services"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a token for the /ws tick stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ := loadConfig(cmd)

			server, _ := cmd.Flags().GetString("server")
			if server == "" {
				server, _ = os.Hostname()
			}
			if !middleware.NewInputValidator().ValidateServerName(server) {
				return fmt.Errorf("invalid server name %q", server)
			}

			auth, err := services.NewAuthService(cfg.JWTSecret, cfg.SecretKeyFile, cfg.TokenExpiry, logger.New(cfg, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			token, err := auth.GenerateToken(server)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			if cfg.ListenAddr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "connect: ws://%s/ws?token=<token> (valid for %s)\n", cfg.ListenAddr, auth.TokenExpiry())
			}
			return nil
		},
	}

	cmd.Flags().String("server", "", "server name embedded in the token (default: hostname)")
	return cmd
}
