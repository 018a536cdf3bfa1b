// Package main provides the entry point for the videosend HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maauso/videosend/internal/bootstrap"
	"github.com/maauso/videosend/internal/config"
	"github.com/maauso/videosend/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	envErr := godotenv.Load()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to read .env file", slog.String("error", envErr.Error()))
	}

	logger.Info("starting videosend server",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.Int("bridge_workers", cfg.BridgeWorkers),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)
	logger.Debug("effective configuration", slog.String("config", cfg.String()))

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	// Initialize HTTP handlers and router
	handlers := server.NewHandlers(deps.Pipeline, deps.Conversions, deps.Scratch, logger)
	router := server.NewRouter(handlers, logger, server.DefaultConfig())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Thumbnails are rendered synchronously
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, srv, logger); err != nil {
		return err
	}
	return shutdown(srv, handlers, logger)
}

// serve runs srv until ctx is cancelled or the listener fails.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
		return nil
	case err := <-errCh:
		return err
	}
}

// shutdown stops accepting requests, then gives background conversions the
// rest of the grace period before their scratch output is abandoned.
func shutdown(srv *http.Server, handlers *server.Handlers, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	done := make(chan struct{})
	go func() {
		handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("conversions still running at shutdown")
	}

	logger.Info("server stopped gracefully")
	return nil
}
