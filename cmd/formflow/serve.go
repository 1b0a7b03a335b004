package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/formflow/internal/cli"
	httpAdapter "github.com/aretw0/formflow/pkg/adapters/http"
)

// shutdownTimeout gives outstanding requests a deadline for completion.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the forms over a JSON API, with Prometheus metrics on /metrics.
Idle sessions are abandoned on the reaper schedule unless --no-reaper is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.HTTP.Port, _ = cmd.Flags().GetString("port")
		}
		if noReaper, _ := cmd.Flags().GetBool("no-reaper"); noReaper {
			cfg.Reaper.Enabled = false
		}

		app, err := cli.Build(cfg, nil)
		if err != nil {
			return err
		}
		defer app.Close()
		logger := app.Logger

		handler, err := httpAdapter.NewHandler(app.Engine,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithGatherer(app.Registry),
		)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              ":" + cfg.HTTP.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if cfg.Reaper.Enabled {
			r := app.Reaper()
			if err := r.Start(sigCtx); err != nil {
				return err
			}
			defer r.Stop()
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting formflow server", "addr", srv.Addr, "dir", cfg.Dir, "store", cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("formflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("no-reaper", false, "Do not abandon idle sessions")
}
