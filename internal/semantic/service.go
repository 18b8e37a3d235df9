package semantic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/daybook-edu/daybook/internal/embeddings"
	"github.com/daybook-edu/daybook/internal/store"
)

// EmbeddingStore is the persistence the engine reads and writes. It is the
// single source of truth; vectors are never cached in process across calls.
type EmbeddingStore interface {
	Get(ctx context.Context, expectationID uuid.UUID) (*store.EmbeddingRecord, error)
	UpsertOne(ctx context.Context, r *store.EmbeddingRecord) error
	UpsertMany(ctx context.Context, records []*store.EmbeddingRecord) error
	ListAll(ctx context.Context) ([]store.EmbeddingRecord, error)
	ListExcluding(ctx context.Context, expectationID uuid.UUID) ([]store.EmbeddingRecord, error)
	EmbeddedIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	DeleteWhereModelNot(ctx context.Context, model string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ExpectationSource is read-only access to the curriculum expectations the
// engine embeds and returns snapshots of.
type ExpectationSource interface {
	Get(ctx context.Context, id uuid.UUID) (*store.Expectation, error)
	ListAll(ctx context.Context) ([]store.Expectation, error)
	ListWithoutEmbeddings(ctx context.Context) ([]store.Expectation, error)
	Count(ctx context.Context) (int64, error)
}

// Match is one similarity-search result.
type Match struct {
	Expectation store.Expectation `json:"expectation"`
	Similarity  float64           `json:"similarity"`
}

// SearchOptions override the configured defaults for one query.
type SearchOptions struct {
	// Threshold is the inclusive minimum similarity. Nil uses the default
	// for the call path.
	Threshold *float64

	// Limit caps the result count. Zero uses the default.
	Limit int
}

// Status summarizes embedding coverage for the status endpoint and CLI.
type Status struct {
	Available            bool   `json:"available"`
	TotalExpectations    int64  `json:"total_expectations"`
	EmbeddedExpectations int64  `json:"embedded_expectations"`
	MissingEmbeddings    int64  `json:"missing_embeddings"`
	Model                string `json:"model"`
}

// Service is the embedding engine. All state lives in the store; the service
// itself is safe for concurrent use.
type Service struct {
	provider     embeddings.Provider
	records      EmbeddingStore
	expectations ExpectationSource
	config       Config
	logger       *slog.Logger
}

// NewService creates a new embedding engine.
func NewService(provider embeddings.Provider, records EmbeddingStore, expectations ExpectationSource, config Config, logger *slog.Logger) *Service {
	return &Service{
		provider:     provider,
		records:      records,
		expectations: expectations,
		config:       config,
		logger:       logger,
	}
}

// Available reports whether the embedding provider is configured.
func (s *Service) Available() bool { return s.provider.Available() }

// Model returns the currently configured embedding model.
func (s *Service) Model() string { return s.provider.Model() }

// Status reports embedding coverage.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	total, err := s.expectations.Count(ctx)
	if err != nil {
		return nil, err
	}
	embedded, err := s.records.Count(ctx)
	if err != nil {
		return nil, err
	}
	missing := total - embedded
	if missing < 0 {
		missing = 0
	}
	return &Status{
		Available:            s.provider.Available(),
		TotalExpectations:    total,
		EmbeddedExpectations: embedded,
		MissingEmbeddings:    missing,
		Model:                s.provider.Model(),
	}, nil
}

// GetOrCreate returns the stored embedding for an expectation, computing and
// persisting one on a cache miss. A hit never calls the provider. On a
// provider failure nothing is stored and the error is returned; two
// concurrent misses for the same id collapse to one row via the store's
// upsert key.
func (s *Service) GetOrCreate(ctx context.Context, exp *store.Expectation) (*store.EmbeddingRecord, error) {
	rec, err := s.records.Get(ctx, exp.ID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNoRows) {
		return nil, err
	}

	if !s.provider.Available() {
		return nil, ErrUnavailable
	}

	vec, err := s.provider.EmbedOne(ctx, ExpectationText(exp))
	if err != nil {
		return nil, fmt.Errorf("embedding expectation %s: %w", exp.ID, err)
	}

	rec = &store.EmbeddingRecord{
		ExpectationID: exp.ID,
		Embedding:     pgvector.NewVector(vec),
		Model:         s.provider.Model(),
		Dimensions:    len(vec),
	}
	if err := s.records.UpsertOne(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Debug("embedding created", "expectation_id", exp.ID, "model", rec.Model)
	return rec, nil
}

// FindSimilarTo returns expectations most similar to the anchor expectation,
// scored by cosine similarity against every other stored embedding. The
// anchor must already be embedded; ErrNotFound is returned otherwise so the
// caller knows to generate it first.
func (s *Service) FindSimilarTo(ctx context.Context, anchorID uuid.UUID, opts SearchOptions) ([]Match, error) {
	anchor, err := s.records.Get(ctx, anchorID)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return nil, fmt.Errorf("no embedding found for expectation %s: %w", anchorID, ErrNotFound)
		}
		return nil, err
	}

	others, err := s.records.ListExcluding(ctx, anchorID)
	if err != nil {
		return nil, err
	}

	threshold := s.config.SimilarThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.SimilarLimit
	}

	return s.rank(ctx, anchor.Embedding.Slice(), others, threshold, limit)
}

// SearchByText embeds a free-text query on the fly and scores it against all
// stored embeddings. Unlike the anchor path there is no pre-existing record
// to miss, so an unconfigured provider or a failed query embed degrades to
// an empty result instead of an error.
func (s *Service) SearchByText(ctx context.Context, query string, opts SearchOptions) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query text is required", ErrInvalidInput)
	}

	if !s.provider.Available() {
		return []Match{}, nil
	}

	queryVec, err := s.provider.EmbedOne(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, returning no results", "error", err)
		return []Match{}, nil
	}

	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	threshold := s.config.SearchThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.SearchLimit
	}

	return s.rank(ctx, queryVec, records, threshold, limit)
}

type scoredRecord struct {
	id         uuid.UUID
	similarity float64
}

// rank scores records against the query vector, keeps those at or above the
// threshold, sorts by similarity descending (ties: expectation id ascending,
// for a reproducible order), truncates to limit, and attaches expectation
// snapshots.
func (s *Service) rank(ctx context.Context, query []float32, records []store.EmbeddingRecord, threshold float64, limit int) ([]Match, error) {
	scored := make([]scoredRecord, 0, len(records))
	for _, rec := range records {
		sim, err := CosineSimilarity(query, rec.Embedding.Slice())
		if err != nil {
			// A stale-model record with a different vector width; cleanup
			// will evict it. Skip rather than fail the whole scan.
			s.logger.Debug("skipping incompatible embedding", "expectation_id", rec.ExpectationID, "model", rec.Model)
			continue
		}
		if sim >= threshold {
			scored = append(scored, scoredRecord{id: rec.ExpectationID, similarity: sim})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].similarity != scored[j].similarity {
			return scored[i].similarity > scored[j].similarity
		}
		return bytes.Compare(scored[i].id[:], scored[j].id[:]) < 0
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	matches := make([]Match, 0, len(scored))
	for _, sc := range scored {
		exp, err := s.expectations.Get(ctx, sc.id)
		if err != nil {
			if errors.Is(err, store.ErrNoRows) {
				// Embedding outlived its expectation; ignore the orphan.
				continue
			}
			return nil, err
		}
		matches = append(matches, Match{Expectation: *exp, Similarity: sc.similarity})
	}
	return matches, nil
}
