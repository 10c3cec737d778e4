package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabex/internal/config"
	"github.com/KaramelBytes/tabex/internal/session"
	"github.com/KaramelBytes/tabex/internal/web"
)

var (
	serveEnvFile string
	serveHost    string
	servePort    int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Overload overwrites existing env vars, so .env wins over the shell.
		envFiles := []string{}
		if serveEnvFile != "" {
			envFiles = append(envFiles, serveEnvFile)
		}
		if err := godotenv.Overload(envFiles...); err != nil {
			if serveEnvFile != "" {
				return fmt.Errorf("load env file: %w", err)
			}
			slog.Debug("no .env file found, using environment variables")
		} else {
			// TABEX_ variables from the file must reach viper.
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
			applyLogFlags()
		}

		c := settings()
		if cmd.Flags().Changed("host") {
			c.ServerHost = serveHost
		}
		if cmd.Flags().Changed("port") {
			c.ServerPort = servePort
		}
		if err := c.Validate(); err != nil {
			return err
		}

		store := session.NewStore(c.SessionTTL(), c.MaxSessions)
		server := web.NewServer(c, store)
		slog.Info("configuration loaded",
			"addr", c.Addr(),
			"max_upload_mb", c.MaxUploadMB,
			"session_ttl_min", c.SessionTTLMin,
			"max_sessions", c.MaxSessions,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
			return err
		}
		slog.Info("server stopped")
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", "", "load environment from this file (default: .env when present)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides server_host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server_port)")
}
