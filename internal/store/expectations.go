package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNoRows is returned when a lookup matches nothing.
var ErrNoRows = pgx.ErrNoRows

// Expectation is a curriculum-standard statement that lessons and units are
// tagged against.
type Expectation struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	Grade       int       `json:"grade"`
	Strand      *string   `json:"strand,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExpectationCreateInput is the input for creating an expectation.
type ExpectationCreateInput struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Subject     string  `json:"subject"`
	Grade       int     `json:"grade"`
	Strand      *string `json:"strand,omitempty"`
}

// ExpectationFilter specifies criteria for listing expectations.
type ExpectationFilter struct {
	Subject *string
	Grade   *int
	Limit   int
	Offset  int
}

// ExpectationStore provides persistence for curriculum expectations.
type ExpectationStore struct {
	db DBTX
}

// NewExpectationStore creates a new ExpectationStore.
func NewExpectationStore(db *DB) *ExpectationStore {
	return &ExpectationStore{db: db.Pool}
}

const expectationColumns = "id, code, description, subject, grade, strand, created_at, updated_at"

func scanExpectation(row pgx.Row) (*Expectation, error) {
	e := &Expectation{}
	err := row.Scan(&e.ID, &e.Code, &e.Description, &e.Subject, &e.Grade, &e.Strand, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new expectation.
func (s *ExpectationStore) Create(ctx context.Context, input ExpectationCreateInput) (*Expectation, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO expectations (id, code, description, subject, grade, strand)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+expectationColumns+`
	`, uuid.New(), input.Code, input.Description, input.Subject, input.Grade, input.Strand)

	e, err := scanExpectation(row)
	if err != nil {
		return nil, fmt.Errorf("create expectation: %w", err)
	}
	return e, nil
}

// Get fetches an expectation by id. Returns ErrNoRows if absent.
func (s *ExpectationStore) Get(ctx context.Context, id uuid.UUID) (*Expectation, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+expectationColumns+` FROM expectations WHERE id = $1
	`, id)

	e, err := scanExpectation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("get expectation %s: %w", id, err)
	}
	return e, nil
}

// List returns expectations matching the filter, ordered by subject, grade, code.
func (s *ExpectationStore) List(ctx context.Context, filter ExpectationFilter) ([]Expectation, error) {
	query := `SELECT ` + expectationColumns + ` FROM expectations WHERE 1=1`
	args := []any{}
	n := 0

	if filter.Subject != nil {
		n++
		query += fmt.Sprintf(" AND subject = $%d", n)
		args = append(args, *filter.Subject)
	}
	if filter.Grade != nil {
		n++
		query += fmt.Sprintf(" AND grade = $%d", n)
		args = append(args, *filter.Grade)
	}
	query += " ORDER BY subject, grade, code"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expectations: %w", err)
	}
	defer rows.Close()

	return collectExpectations(rows)
}

// ListAll returns every expectation.
func (s *ExpectationStore) ListAll(ctx context.Context) ([]Expectation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+expectationColumns+` FROM expectations ORDER BY subject, grade, code
	`)
	if err != nil {
		return nil, fmt.Errorf("list all expectations: %w", err)
	}
	defer rows.Close()

	return collectExpectations(rows)
}

// ListWithoutEmbeddings returns expectations that have no embedding record.
func (s *ExpectationStore) ListWithoutEmbeddings(ctx context.Context) ([]Expectation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+prefixedExpectationColumns("e")+`
		FROM expectations e
		LEFT JOIN expectation_embeddings emb ON emb.expectation_id = e.id
		WHERE emb.expectation_id IS NULL
		ORDER BY e.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("expectations without embeddings: %w", err)
	}
	defer rows.Close()

	return collectExpectations(rows)
}

// Count returns the total number of expectations.
func (s *ExpectationStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM expectations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expectations: %w", err)
	}
	return count, nil
}

func prefixedExpectationColumns(alias string) string {
	return alias + ".id, " + alias + ".code, " + alias + ".description, " +
		alias + ".subject, " + alias + ".grade, " + alias + ".strand, " +
		alias + ".created_at, " + alias + ".updated_at"
}

func collectExpectations(rows pgx.Rows) ([]Expectation, error) {
	var result []Expectation
	for rows.Next() {
		var e Expectation
		if err := rows.Scan(&e.ID, &e.Code, &e.Description, &e.Subject, &e.Grade, &e.Strand, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan expectation: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
