package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prajwal-pl/dnd-pdf-zone/internal/httpapi"
	"github.com/prajwal-pl/dnd-pdf-zone/internal/metrics"
)

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `Serve POST /api/v1/export, /validate, /resolve and /inspect, plus /health and Prometheus metrics.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Server.ListenAddr = listen
			}
			var m *metrics.Metrics
			if a.cfg.Metrics.Enabled {
				m = metrics.New()
			}
			srv := httpapi.NewServer(a.cfg, m, a.logger, version)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "override server.listen_addr")
	return cmd
}
