// Package main is the entry point for the Daybook embedding service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/daybook-edu/daybook/internal/config"
	"github.com/daybook-edu/daybook/internal/embeddings"
	"github.com/daybook-edu/daybook/internal/events"
	"github.com/daybook-edu/daybook/internal/middleware"
	"github.com/daybook-edu/daybook/internal/server"
	"github.com/daybook-edu/daybook/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("DAYBOOK_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Embedding provider
	var provider embeddings.Provider
	switch cfg.EmbeddingBackend {
	case "openai":
		provider = embeddings.NewOpenAIProvider(cfg.EmbeddingModel, logger)
	default:
		provider = embeddings.NewHashProvider()
	}
	logger.Info("embedding provider initialized", "backend", provider.Name(), "model", provider.Model())

	// Admin token verification
	var admin *middleware.AdminVerifier
	if cfg.AdminKey != "" {
		admin, err = middleware.NewAdminVerifier(cfg.AdminKey, cfg.AdminTokenTTL)
		if err != nil {
			logger.Error("invalid admin key", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("no admin key configured, generation endpoints are disabled")
	}

	// Event bus (NATS) — optional, service works without it
	var bus *events.Client
	if cfg.NatsURL != "" {
		bus, err = events.NewClient(cfg.NatsURL, logger)
		if err != nil {
			logger.Warn("failed to connect to NATS, running without event bus", "error", err)
			bus = nil
		} else {
			defer bus.Close()
			logger.Info("connected to NATS", "url", cfg.NatsURL)
		}
	}

	// Server (also constructs the embedding engine)
	srv := server.New(cfg, db, bus, provider, admin, logger)

	// Embed newly imported expectations as they are announced
	if bus != nil {
		subscriber := events.NewSubscriber(bus, srv.Semantic, store.NewExpectationStore(db), logger)
		if err := subscriber.Start(ctx); err != nil {
			logger.Warn("failed to start event subscriber", "error", err)
		} else {
			defer subscriber.Stop()
		}
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down gracefully...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("Daybook starting", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Daybook stopped")
}
