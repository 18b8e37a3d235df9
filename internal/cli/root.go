// Package cli implements the daybookctl admin commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/daybook-edu/daybook/internal/config"
	"github.com/daybook-edu/daybook/internal/embeddings"
	"github.com/daybook-edu/daybook/internal/semantic"
	"github.com/daybook-edu/daybook/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "daybookctl",
	Short: "Daybook curriculum embedding administration",
	Long: `daybookctl manages the curriculum-expectation embedding engine:
coverage status, bulk generation sweeps, stale-model cleanup, and
free-text similarity search from the terminal.

Example usage:
  daybookctl status              # embedding coverage and provider state
  daybookctl sweep               # embed expectations that lack embeddings
  daybookctl sweep --force       # re-embed everything
  daybookctl cleanup             # evict embeddings from older models
  daybookctl search "count to 10"`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// engine holds the connected dependencies a command needs.
type engine struct {
	db  *store.DB
	svc *semantic.Service
}

// connect loads config, connects to the database, and builds the engine.
// The caller must Close the returned engine.
func connect(ctx context.Context) (*engine, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Commands log to stderr so command output stays pipeable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	var provider embeddings.Provider
	switch cfg.EmbeddingBackend {
	case "openai":
		provider = embeddings.NewOpenAIProvider(cfg.EmbeddingModel, logger)
	default:
		provider = embeddings.NewHashProvider()
	}

	svc := semantic.NewService(provider,
		store.NewEmbeddingStore(db),
		store.NewExpectationStore(db),
		semantic.ConfigFromEnv(),
		logger,
	)

	return &engine{db: db, svc: svc}, nil
}

func (e *engine) Close() {
	e.db.Close()
}
