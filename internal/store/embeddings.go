package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingRecord is a stored vector embedding for one expectation.
// At most one record exists per expectation; replacement is whole-record.
type EmbeddingRecord struct {
	ExpectationID uuid.UUID       `json:"expectation_id"`
	Embedding     pgvector.Vector `json:"-"`
	Model         string          `json:"model"`
	Dimensions    int             `json:"dimensions"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EmbeddingStore provides persistence for expectation embeddings.
type EmbeddingStore struct {
	db DBTX
}

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db.Pool}
}

const upsertEmbeddingSQL = `
	INSERT INTO expectation_embeddings (expectation_id, embedding, model, dimensions)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (expectation_id) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		model = EXCLUDED.model,
		dimensions = EXCLUDED.dimensions,
		updated_at = now()
	RETURNING created_at, updated_at
`

// Get fetches the embedding for an expectation. Returns ErrNoRows if absent.
func (s *EmbeddingStore) Get(ctx context.Context, expectationID uuid.UUID) (*EmbeddingRecord, error) {
	r := &EmbeddingRecord{}
	err := s.db.QueryRow(ctx, `
		SELECT expectation_id, embedding, model, dimensions, created_at, updated_at
		FROM expectation_embeddings WHERE expectation_id = $1
	`, expectationID).Scan(&r.ExpectationID, &r.Embedding, &r.Model, &r.Dimensions, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("get embedding %s: %w", expectationID, err)
	}
	return r, nil
}

// UpsertOne inserts or replaces the embedding for an expectation. Concurrent
// upserts for the same id collapse to one row (last write wins).
func (s *EmbeddingStore) UpsertOne(ctx context.Context, r *EmbeddingRecord) error {
	err := s.db.QueryRow(ctx, upsertEmbeddingSQL,
		r.ExpectationID, r.Embedding, r.Model, r.Dimensions).
		Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert embedding %s: %w", r.ExpectationID, err)
	}
	return nil
}

// UpsertMany inserts or replaces embeddings in one pipelined batch rather
// than one round-trip per record.
func (s *EmbeddingStore) UpsertMany(ctx context.Context, records []*EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, r := range records {
		b.Queue(upsertEmbeddingSQL, r.ExpectationID, r.Embedding, r.Model, r.Dimensions)
	}

	results := s.db.SendBatch(ctx, b)
	defer results.Close()

	for _, r := range records {
		if err := results.QueryRow().Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
			return fmt.Errorf("upsert embedding %s: %w", r.ExpectationID, err)
		}
	}
	return nil
}

// ListAll returns every embedding record.
func (s *EmbeddingStore) ListAll(ctx context.Context) ([]EmbeddingRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT expectation_id, embedding, model, dimensions, created_at, updated_at
		FROM expectation_embeddings
	`)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	return collectEmbeddings(rows)
}

// ListExcluding returns every embedding record except the given expectation's.
func (s *EmbeddingStore) ListExcluding(ctx context.Context, expectationID uuid.UUID) ([]EmbeddingRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT expectation_id, embedding, model, dimensions, created_at, updated_at
		FROM expectation_embeddings WHERE expectation_id != $1
	`, expectationID)
	if err != nil {
		return nil, fmt.Errorf("list embeddings excluding %s: %w", expectationID, err)
	}
	defer rows.Close()

	return collectEmbeddings(rows)
}

// EmbeddedIDs reports which of the given expectation ids already have an
// embedding record.
func (s *EmbeddingStore) EmbeddedIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]bool{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT expectation_id FROM expectation_embeddings WHERE expectation_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("embedded ids: %w", err)
	}
	defer rows.Close()

	embedded := make(map[uuid.UUID]bool, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan embedded id: %w", err)
		}
		embedded[id] = true
	}
	return embedded, rows.Err()
}

// DeleteWhereModelNot removes records produced by a different model and
// returns how many were deleted. Idempotent.
func (s *EmbeddingStore) DeleteWhereModelNot(ctx context.Context, model string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM expectation_embeddings WHERE model != $1
	`, model)
	if err != nil {
		return 0, fmt.Errorf("delete stale embeddings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of embedding records.
func (s *EmbeddingStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM expectation_embeddings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

func collectEmbeddings(rows pgx.Rows) ([]EmbeddingRecord, error) {
	var result []EmbeddingRecord
	for rows.Next() {
		var r EmbeddingRecord
		if err := rows.Scan(&r.ExpectationID, &r.Embedding, &r.Model, &r.Dimensions, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
