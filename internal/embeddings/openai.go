package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/embeddings"

	// MaxRetries is the attempt budget for transient provider failures.
	MaxRetries = 3

	// RetryBaseDelay is the backoff unit: attempt n waits base << (n-1).
	// The batch generator reuses it as the inter-chunk throttle interval.
	RetryBaseDelay = time.Second
)

// OpenAIProvider generates embeddings using OpenAI's API.
type OpenAIProvider struct {
	model  string
	dims   int
	client *http.Client
	logger *slog.Logger

	// apiKey is looked up per call so toggling the credential in the
	// environment is reflected without reconstructing the provider.
	apiKey func() string
}

// NewOpenAIProvider creates a new OpenAI embedding provider. The API key is
// read from OPENAI_API_KEY at call time.
func NewOpenAIProvider(model string, logger *slog.Logger) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{
		model:  model,
		dims:   DefaultDimensions,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
		apiKey: func() string { return os.Getenv("OPENAI_API_KEY") },
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return "openai" }

// Model returns the configured model identifier.
func (p *OpenAIProvider) Model() string { return p.model }

// Dimensions returns the vector width for the configured model.
func (p *OpenAIProvider) Dimensions() int { return p.dims }

// Available reports whether an API key is currently configured.
func (p *OpenAIProvider) Available() bool { return p.apiKey() != "" }

type openAIRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EmbedOne generates an embedding for a single text.
func (p *OpenAIProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for a batch of texts in one API call.
// Transient failures are retried up to MaxRetries with exponential backoff;
// the wait is cut short if ctx is cancelled.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if !p.Available() {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	body, err := json.Marshal(openAIRequest{Input: texts, Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(RetryBaseDelay << (attempt - 2)):
			}
		}

		vecs, err := p.doRequest(ctx, body, len(texts))
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		p.logger.Warn("embedding request failed", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("embedding %d texts after %d attempts: %w", len(texts), MaxRetries, lastErr)
}

func (p *OpenAIProvider) doRequest(ctx context.Context, body []byte, want int) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("OpenAI error (status %d): %s", resp.StatusCode, result.Error.Message)
	}
	if len(result.Data) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(result.Data))
	}

	// The API may return entries out of order; restore input order by index.
	vecs := make([][]float32, want)
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
