package semantic

import (
	"context"

	"github.com/daybook-edu/daybook/internal/store"
)

// GenerateMissing embeds every expectation that has no embedding record, or
// every expectation when force is true. Returns the number of records the
// run produced; failed chunks reduce the yield, and re-running picks up the
// remainder. An empty selection returns 0 without touching the provider.
func (s *Service) GenerateMissing(ctx context.Context, force bool, progress BatchProgress) (int, error) {
	var (
		expectations []store.Expectation
		err          error
	)
	if force {
		expectations, err = s.expectations.ListAll(ctx)
	} else {
		expectations, err = s.expectations.ListWithoutEmbeddings(ctx)
	}
	if err != nil {
		return 0, err
	}
	if len(expectations) == 0 {
		s.logger.Info("no expectations need embeddings")
		return 0, nil
	}
	if !s.provider.Available() {
		return 0, ErrUnavailable
	}

	items := make([]BatchItem, len(expectations))
	for i := range expectations {
		items[i] = BatchItem{ID: expectations[i].ID, Text: ExpectationText(&expectations[i])}
	}

	records, err := s.generateBatch(ctx, items, progress, force)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// CleanupStale deletes embedding records produced by a model other than the
// currently configured one, forcing regeneration on next access. Idempotent:
// a second call deletes nothing.
func (s *Service) CleanupStale(ctx context.Context) (int64, error) {
	deleted, err := s.records.DeleteWhereModelNot(ctx, s.provider.Model())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("removed stale-model embeddings", "deleted", deleted, "model", s.provider.Model())
	}
	return deleted, nil
}
