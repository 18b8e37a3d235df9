// Package server provides the HTTP server setup for Daybook.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/daybook-edu/daybook/internal/api"
	"github.com/daybook-edu/daybook/internal/config"
	"github.com/daybook-edu/daybook/internal/embeddings"
	"github.com/daybook-edu/daybook/internal/events"
	"github.com/daybook-edu/daybook/internal/middleware"
	"github.com/daybook-edu/daybook/internal/semantic"
	"github.com/daybook-edu/daybook/internal/store"
)

// Server holds all dependencies for the Daybook HTTP server.
type Server struct {
	Router   *chi.Mux
	Config   *config.Config
	DB       *store.DB
	Bus      *events.Client
	Semantic *semantic.Service
	Logger   *slog.Logger
}

// New creates a new Server with all routes configured.
func New(cfg *config.Config, db *store.DB, bus *events.Client, provider embeddings.Provider, admin *middleware.AdminVerifier, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.ClientAuth())
	r.Use(middleware.RequestLogging(logger))

	// Stores
	expectationStore := store.NewExpectationStore(db)
	embeddingStore := store.NewEmbeddingStore(db)

	// Engine
	svc := semantic.NewService(provider, embeddingStore, expectationStore, semantic.ConfigFromEnv(), logger)

	// Publisher (may be nil if NATS not available)
	var publisher *events.Publisher
	if bus != nil {
		publisher = events.NewPublisher(bus, logger)
	}

	// Handlers
	healthHandler := api.NewHealthHandler(db, svc, bus)
	embeddingsHandler := api.NewEmbeddingsHandler(svc, expectationStore, publisher)
	expectationsHandler := api.NewExpectationsHandler(expectationStore, publisher)

	// Rate limiters
	searchRL := middleware.NewRateLimiter(cfg.SearchRateLimit, cfg.RateWindow)
	expectationRL := middleware.NewRateLimiter(cfg.ExpectationRateLimit, cfg.RateWindow)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (no rate limit)
		r.Get("/health", healthHandler.Health)
		r.Get("/stats", healthHandler.Stats)

		// Embeddings
		r.Route("/embeddings", func(r chi.Router) {
			r.Get("/status", embeddingsHandler.Status)

			r.Group(func(r chi.Router) {
				r.Use(searchRL.Middleware)
				r.Get("/similar/{id}", embeddingsHandler.Similar)
				r.Post("/search", embeddingsHandler.Search)
			})

			// Admin-gated generation
			r.Group(func(r chi.Router) {
				r.Use(admin.Middleware)
				r.Post("/generate", embeddingsHandler.Generate)
				r.Post("/expectations/{id}", embeddingsHandler.GenerateOne)
			})
		})

		// Expectations
		r.Route("/expectations", func(r chi.Router) {
			r.Use(expectationRL.Middleware)
			r.Post("/", expectationsHandler.Create)
			r.Get("/", expectationsHandler.List)
			r.Get("/{id}", expectationsHandler.Get)
		})
	})

	return &Server{
		Router:   r,
		Config:   cfg,
		DB:       db,
		Bus:      bus,
		Semantic: svc,
		Logger:   logger,
	}
}
