// Package config provides environment-based configuration for Daybook.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Daybook service.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Database (PostgreSQL with pgvector)
	DatabaseURL string

	// NATS event bus (optional)
	NatsURL string

	// Embeddings
	EmbeddingBackend string // "hash" or "openai"
	EmbeddingModel   string

	// Admin token verification (fernet key, URL-safe base64)
	AdminKey      string
	AdminTokenTTL time.Duration

	// Rate limiting
	SearchRateLimit      int           // requests per window
	ExpectationRateLimit int           // requests per window
	RateWindow           time.Duration // window for rate limiting
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	c := &Config{
		Port:                 envInt("DAYBOOK_PORT", 8600),
		LogLevel:             envStr("DAYBOOK_LOG_LEVEL", "info"),
		DatabaseURL:          envStr("DATABASE_URL", ""),
		NatsURL:              envStr("NATS_URL", ""),
		EmbeddingBackend:     envStr("EMBEDDING_BACKEND", "hash"),
		EmbeddingModel:       envStr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		AdminKey:             envStr("DAYBOOK_ADMIN_KEY", ""),
		AdminTokenTTL:        envDuration("DAYBOOK_ADMIN_TOKEN_TTL", time.Hour),
		SearchRateLimit:      envInt("SEARCH_RATE_LIMIT", 60),
		ExpectationRateLimit: envInt("EXPECTATION_RATE_LIMIT", 120),
		RateWindow:           time.Minute,
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return c, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
