// Package embeddings provides a swappable interface for text embedding generation.
package embeddings

import "context"

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// DefaultDimensions is the vector width of DefaultModel.
const DefaultDimensions = 1536

// Provider generates text embeddings.
type Provider interface {
	// EmbedOne generates an embedding vector for a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one embedding per input text, in input order.
	// The returned slice has the same length as texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Available reports whether the provider holds valid credentials.
	// Checked at call time so credential changes take effect without a restart.
	Available() bool

	// Name returns the provider name for logging.
	Name() string

	// Model returns the model identifier stored alongside each embedding.
	Model() string

	// Dimensions returns the vector width the provider produces.
	Dimensions() int
}
