// Package main runs the War scoring server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tkahng/war/config"
	"github.com/tkahng/war/score"
	"github.com/tkahng/war/score/sqlite"
	"github.com/tkahng/war/server"
	"github.com/tkahng/war/telemetry"
	"github.com/tkahng/war/websocket"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.ServiceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close score store", slog.Any("error", err))
		}
	}()

	hub := websocket.NewHub(websocket.DefaultUpgrader(cfg.AllowedOrigins), logger)
	broker := server.NewGameBroker(cfg.Engine(), store, cfg.MaxConcurrentGames, logger, server.WithFeed(hub))
	srv := server.NewGameServer(broker, store, hub, logger, cfg.AllowedOrigins)
	srv.Start()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = srv.Stop(context.Background())
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.Any("error", err))
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("game server shutdown", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}

// openStore returns a SQLite store when a database path is configured and an
// in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config) (score.Store, error) {
	if cfg.DBPath == "" {
		return score.NewMemoryStore(score.DefaultHistory), nil
	}
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open score store: %w", err)
	}
	return store, nil
}
