package semantic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/time/rate"

	"github.com/daybook-edu/daybook/internal/store"
)

// BatchItem is one (id, text) pair for batch embedding.
type BatchItem struct {
	ID   uuid.UUID
	Text string
}

// BatchProgress, when set, is called after every chunk with the number of
// items processed so far and the total. Used by the CLI progress bar.
type BatchProgress func(done, total int)

// GenerateBatch embeds many items, amortizing provider round-trips. Items
// are partitioned into chunks of at most Config.BatchSize and the chunks run
// strictly sequentially: the inter-chunk wait is the backpressure mechanism,
// so chunks must never overlap. Within a chunk, ids that already have an
// embedding pass through unchanged; only the rest are sent to the provider,
// and the provider's positional output order is zipped back onto them.
//
// A failed chunk is logged and skipped; the remaining chunks still run. The
// returned slice therefore may be shorter than items — callers re-run to
// pick up stragglers.
func (s *Service) GenerateBatch(ctx context.Context, items []BatchItem, progress BatchProgress) ([]*store.EmbeddingRecord, error) {
	return s.generateBatch(ctx, items, progress, false)
}

// generateBatch is GenerateBatch with an overwrite switch: when force is
// true the already-embedded shortcut is disabled and every item is re-sent
// to the provider, replacing stored records via upsert.
func (s *Service) generateBatch(ctx context.Context, items []BatchItem, progress BatchProgress, force bool) ([]*store.EmbeddingRecord, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if !s.provider.Available() {
		return nil, ErrUnavailable
	}

	var limiter *rate.Limiter
	if s.config.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.config.BatchDelay), 1)
	}

	var result []*store.EmbeddingRecord
	done := 0
	for start := 0; start < len(items); start += s.config.BatchSize {
		end := min(start+s.config.BatchSize, len(items))
		chunk := items[start:end]

		if start > 0 && limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		records, err := s.generateChunk(ctx, chunk, force)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Warn("embedding chunk failed, continuing",
				"start", start, "size", len(chunk), "error", err)
		} else {
			result = append(result, records...)
		}

		done += len(chunk)
		if progress != nil {
			progress(done, len(items))
		}
	}

	s.logger.Info("batch embedding finished", "requested", len(items), "produced", len(result))
	return result, nil
}

// generateChunk embeds one chunk: already-embedded ids are fetched and
// passed through (unless force), new ones go to the provider in a single call.
func (s *Service) generateChunk(ctx context.Context, chunk []BatchItem, force bool) ([]*store.EmbeddingRecord, error) {
	embedded := map[uuid.UUID]bool{}
	if !force {
		ids := make([]uuid.UUID, len(chunk))
		for i, item := range chunk {
			ids[i] = item.ID
		}
		var err error
		embedded, err = s.records.EmbeddedIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	var result []*store.EmbeddingRecord
	var toEmbed []BatchItem
	for _, item := range chunk {
		if !embedded[item.ID] {
			toEmbed = append(toEmbed, item)
			continue
		}
		rec, err := s.records.Get(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	if len(toEmbed) == 0 {
		return result, nil
	}

	texts := make([]string, len(toEmbed))
	for i, item := range toEmbed {
		texts[i] = item.Text
	}

	vecs, err := s.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(toEmbed) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vecs), len(toEmbed))
	}

	created := make([]*store.EmbeddingRecord, len(toEmbed))
	for i, item := range toEmbed {
		created[i] = &store.EmbeddingRecord{
			ExpectationID: item.ID,
			Embedding:     pgvector.NewVector(vecs[i]),
			Model:         s.provider.Model(),
			Dimensions:    len(vecs[i]),
		}
	}
	if err := s.records.UpsertMany(ctx, created); err != nil {
		return nil, err
	}

	return append(result, created...), nil
}
