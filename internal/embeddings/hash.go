package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashModel identifies embeddings produced by the hash provider.
const HashModel = "hash-v1"

// HashDimensions is the hash provider's vector width. Kept small; hash
// vectors never mix with real model vectors because the model field differs.
const HashDimensions = 384

// HashProvider generates embeddings by hashing word tokens into vector
// dimensions. Not semantically meaningful, but deterministic and offline,
// which makes it useful for development and tests: texts sharing keywords
// still score higher than unrelated texts.
type HashProvider struct{}

// NewHashProvider creates a new HashProvider.
func NewHashProvider() *HashProvider {
	return &HashProvider{}
}

// Name returns the provider name.
func (p *HashProvider) Name() string { return "hash" }

// Model returns the model identifier stored with each embedding.
func (p *HashProvider) Model() string { return HashModel }

// Dimensions returns the vector width.
func (p *HashProvider) Dimensions() int { return HashDimensions }

// Available always reports true; no credentials are involved.
func (p *HashProvider) Available() bool { return true }

// EmbedOne hashes words and word bigrams into a normalized vector.
func (p *HashProvider) EmbedOne(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, HashDimensions)
	words := tokenize(text)

	for _, word := range words {
		vec[bucket(word)] += 1.0
	}
	// Bigrams capture a little word ordering.
	for i := 0; i < len(words)-1; i++ {
		vec[bucket(words[i]+" "+words[i+1])] += 0.5
	}

	// L2 normalize; empty text stays a zero vector.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (p *HashProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.EmbedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func bucket(token string) int {
	h := fnv.New64a()
	h.Write([]byte(token))
	return int(h.Sum64() % uint64(HashDimensions))
}

// tokenize splits text into lowercase word tokens of length >= 2.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var result []string
	for _, f := range fields {
		if len(f) >= 2 {
			result = append(result, f)
		}
	}
	return result
}
