package semantic

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/daybook-edu/daybook/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider is an in-memory embedding provider with call counting and
// scripted failures.
type fakeProvider struct {
	available bool
	model     string
	dims      int

	embedFn func(text string) []float32

	oneCalls   int
	batchCalls int
	batchSizes []int

	// failCalls holds 1-based EmbedBatch call numbers that should fail.
	failCalls map[int]bool
	oneErr    error
}

func newFakeProvider() *fakeProvider {
	p := &fakeProvider{
		available: true,
		model:     "fake-model",
		dims:      3,
	}
	p.embedFn = func(text string) []float32 {
		// Distinct, deterministic, non-zero vectors per text.
		var sum float32
		for _, r := range text {
			sum += float32(r)
		}
		return []float32{sum, 1, 0}
	}
	return p
}

func (p *fakeProvider) Available() bool { return p.available }
func (p *fakeProvider) Name() string    { return "fake" }
func (p *fakeProvider) Model() string   { return p.model }
func (p *fakeProvider) Dimensions() int { return p.dims }

func (p *fakeProvider) EmbedOne(_ context.Context, text string) ([]float32, error) {
	p.oneCalls++
	if p.oneErr != nil {
		return nil, p.oneErr
	}
	return p.embedFn(text), nil
}

func (p *fakeProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.batchCalls++
	p.batchSizes = append(p.batchSizes, len(texts))
	if p.failCalls[p.batchCalls] {
		return nil, errors.New("scripted batch failure")
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = p.embedFn(t)
	}
	return vecs, nil
}

// fakeRecordStore is an in-memory EmbeddingStore.
type fakeRecordStore struct {
	records map[uuid.UUID]store.EmbeddingRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[uuid.UUID]store.EmbeddingRecord)}
}

func (s *fakeRecordStore) put(id uuid.UUID, vec []float32, model string) {
	s.records[id] = store.EmbeddingRecord{
		ExpectationID: id,
		Embedding:     pgvector.NewVector(vec),
		Model:         model,
		Dimensions:    len(vec),
	}
}

func (s *fakeRecordStore) Get(_ context.Context, id uuid.UUID) (*store.EmbeddingRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNoRows
	}
	return &rec, nil
}

func (s *fakeRecordStore) UpsertOne(_ context.Context, r *store.EmbeddingRecord) error {
	s.records[r.ExpectationID] = *r
	return nil
}

func (s *fakeRecordStore) UpsertMany(_ context.Context, records []*store.EmbeddingRecord) error {
	for _, r := range records {
		s.records[r.ExpectationID] = *r
	}
	return nil
}

func (s *fakeRecordStore) ListAll(_ context.Context) ([]store.EmbeddingRecord, error) {
	return s.list(uuid.Nil), nil
}

func (s *fakeRecordStore) ListExcluding(_ context.Context, id uuid.UUID) ([]store.EmbeddingRecord, error) {
	return s.list(id), nil
}

func (s *fakeRecordStore) list(exclude uuid.UUID) []store.EmbeddingRecord {
	var result []store.EmbeddingRecord
	for id, rec := range s.records {
		if id != exclude {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].ExpectationID[:], result[j].ExpectationID[:]) < 0
	})
	return result
}

func (s *fakeRecordStore) EmbeddedIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	embedded := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			embedded[id] = true
		}
	}
	return embedded, nil
}

func (s *fakeRecordStore) DeleteWhereModelNot(_ context.Context, model string) (int64, error) {
	var deleted int64
	for id, rec := range s.records {
		if rec.Model != model {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeRecordStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

// fakeExpectations is an in-memory ExpectationSource. Missing expectations
// are computed against the paired record store.
type fakeExpectations struct {
	expectations map[uuid.UUID]store.Expectation
	records      *fakeRecordStore
}

func newFakeExpectations(records *fakeRecordStore) *fakeExpectations {
	return &fakeExpectations{
		expectations: make(map[uuid.UUID]store.Expectation),
		records:      records,
	}
}

func (s *fakeExpectations) add(id uuid.UUID, code, description string) {
	s.expectations[id] = store.Expectation{
		ID:          id,
		Code:        code,
		Description: description,
		Subject:     "math",
		Grade:       1,
	}
}

func (s *fakeExpectations) Get(_ context.Context, id uuid.UUID) (*store.Expectation, error) {
	exp, ok := s.expectations[id]
	if !ok {
		return nil, store.ErrNoRows
	}
	return &exp, nil
}

func (s *fakeExpectations) ListAll(_ context.Context) ([]store.Expectation, error) {
	return s.listWhere(func(uuid.UUID) bool { return true }), nil
}

func (s *fakeExpectations) ListWithoutEmbeddings(_ context.Context) ([]store.Expectation, error) {
	return s.listWhere(func(id uuid.UUID) bool {
		_, embedded := s.records.records[id]
		return !embedded
	}), nil
}

func (s *fakeExpectations) listWhere(keep func(uuid.UUID) bool) []store.Expectation {
	var result []store.Expectation
	for id, exp := range s.expectations {
		if keep(id) {
			result = append(result, exp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) < 0
	})
	return result
}

func (s *fakeExpectations) Count(_ context.Context) (int64, error) {
	return int64(len(s.expectations)), nil
}

// newTestService wires a service over fresh fakes.
func newTestService(cfg Config) (*Service, *fakeProvider, *fakeRecordStore, *fakeExpectations) {
	provider := newFakeProvider()
	records := newFakeRecordStore()
	expectations := newFakeExpectations(records)
	svc := NewService(provider, records, expectations, cfg, testLogger())
	return svc, provider, records, expectations
}

// seqID returns a deterministic uuid whose first byte is n, so byte order
// matches numeric order in tie-break assertions.
func seqID(n byte) uuid.UUID {
	var id uuid.UUID
	id[0] = n
	id[6] = 0x40 // version 4
	id[8] = 0x80 // variant
	return id
}
