// Package semantic implements the curriculum-expectation embedding engine:
// cache-or-create embedding generation, batch sweeps, and in-process
// nearest-neighbor similarity search.
package semantic

import (
	"os"
	"strconv"
	"time"
)

// Config holds engine tuning loaded from environment variables.
type Config struct {
	// BatchSize is the provider batch ceiling: the maximum number of texts
	// sent in one provider call.
	BatchSize int

	// BatchDelay is the pause between successive provider chunks in a batch
	// run. Zero disables throttling (tests).
	BatchDelay time.Duration

	// SimilarThreshold is the default inclusive minimum similarity for
	// anchor-based search.
	SimilarThreshold float64

	// SimilarLimit is the default result cap for anchor-based search.
	SimilarLimit int

	// SearchThreshold is the default inclusive minimum similarity for
	// free-text search.
	SearchThreshold float64

	// SearchLimit is the default result cap for free-text search.
	SearchLimit int
}

// ConfigFromEnv loads engine configuration from environment variables.
func ConfigFromEnv() Config {
	return Config{
		BatchSize:        envIntOrDefault("DAYBOOK_EMBED_BATCH_SIZE", 100),
		BatchDelay:       envDurationOrDefault("DAYBOOK_EMBED_BATCH_DELAY", time.Second),
		SimilarThreshold: envFloatOrDefault("DAYBOOK_SIMILAR_THRESHOLD", 0.8),
		SimilarLimit:     envIntOrDefault("DAYBOOK_SIMILAR_LIMIT", 10),
		SearchThreshold:  envFloatOrDefault("DAYBOOK_SEARCH_THRESHOLD", 0.7),
		SearchLimit:      envIntOrDefault("DAYBOOK_SEARCH_LIMIT", 20),
	}
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
