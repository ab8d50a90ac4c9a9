// ABOUTME: Serve command running the HTTP server, station, and sources
// ABOUTME: Shuts down gracefully on SIGINT or SIGTERM
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/nowplaying-broadcaster/internal/application/config"
	"github.com/harper/nowplaying-broadcaster/internal/application/manager"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/http"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/logging"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the broadcaster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configFlag)
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging, os.Stderr)

	mgr, err := manager.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}

	if err := mgr.Start(); err != nil {
		return fmt.Errorf("start sources: %w", err)
	}

	router := http.NewRouter(http.Options{
		Station:       mgr.Station(),
		Metrics:       mgr.Metrics().Handler(),
		AllowedOrigin: cfg.Update.AllowedOrigin,
		MaxBodyBytes:  cfg.Update.MaxBodyBytes,
		Keepalive:     cfg.Stream.Keepalive(),
		Logger:        logger.With(slog.String("component", "http")),
	})

	addr := cfg.Addr()
	srv := &nethttp.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Streaming
		IdleTimeout:  0, // Streaming
		BaseContext: func(_ net.Listener) context.Context {
			return context.Background()
		},
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Graceful shutdown
	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()

		logger.Info("shutting down")

		// Open event streams never go idle, so end them before draining.
		mgr.Station().Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		shutdown <- srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening",
		slog.String("addr", "http://"+addr),
		slog.String("allowed_origin", cfg.Update.AllowedOrigin),
		slog.Int("sources", len(mgr.Sources())),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		stop()
		mgr.Shutdown()
		return fmt.Errorf("http server: %w", err)
	}

	if err := <-shutdown; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := mgr.Shutdown(); err != nil {
		return fmt.Errorf("shutdown sources: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
