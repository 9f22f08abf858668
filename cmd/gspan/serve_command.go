package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/gspan/internal/api"
	"github.com/dgallion1/gspan/internal/pipeline"
	"github.com/dgallion1/gspan/internal/render"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if port != "" {
				cfg.Port = port
			}
			if err := cfg.ValidateServe(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			log := ctx.serverLogger(cmd.OutOrStdout())

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			parser, err := pipeline.NewParser(cfg, log)
			if err != nil {
				return err
			}
			fetcher := ctx.exportClient()
			defer fetcher.Close()

			stats := pipeline.NewParseStats(time.Hour)
			worker := pipeline.NewWorker(fetcher, parser, pipeline.SourceOptions(cfg), stats, log)
			orch := pipeline.NewOrchestrator(cfg, worker, log)
			orch.Start(runCtx)

			httpServer := &http.Server{
				Handler:      api.NewServer(orch, render.New(), stats, log, cfg),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}
			ln, err := net.Listen("tcp", ":"+cfg.Port)
			if err != nil {
				orch.Stop()
				return fmt.Errorf("listen: %w", err)
			}
			log.Info("starting gspan", "addr", ln.Addr().String(), "workers", cfg.WorkerCount)
			return runServer(runCtx, httpServer, ln, orch, log)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides config)")
	return cmd
}

// runServer serves until ctx is done, then drains HTTP requests before
// stopping the pipeline so no handler can submit to a closed queue.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, orch *pipeline.Orchestrator, log *slog.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
	}()

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-drained
		err = nil
	}
	orch.Stop()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
