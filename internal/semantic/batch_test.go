package semantic

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func batchItems(n int) []BatchItem {
	items := make([]BatchItem, n)
	for i := range items {
		items[i] = BatchItem{ID: seqID(byte(i + 1)), Text: fmt.Sprintf("E%d: expectation %d", i+1, i+1)}
	}
	return items
}

func TestGenerateBatch_ChunksByBatchSize(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 50
	svc, provider, records, _ := newTestService(cfg)

	items := batchItems(60)
	result, err := svc.GenerateBatch(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 60 {
		t.Errorf("got %d records, want 60", len(result))
	}
	if provider.batchCalls != 2 {
		t.Errorf("provider called %d times, want 2", provider.batchCalls)
	}
	if len(provider.batchSizes) == 2 && (provider.batchSizes[0] != 50 || provider.batchSizes[1] != 10) {
		t.Errorf("batch sizes = %v, want [50 10]", provider.batchSizes)
	}
	if len(records.records) != 60 {
		t.Errorf("%d records persisted, want 60", len(records.records))
	}
}

func TestGenerateBatch_SkipsAlreadyEmbedded(t *testing.T) {
	svc, provider, records, _ := newTestService(testConfig())
	ctx := context.Background()

	items := batchItems(10)
	// Pre-embed four of them.
	for i := 0; i < 4; i++ {
		records.put(items[i].ID, []float32{1, 0, 0}, "fake-model")
	}

	result, err := svc.GenerateBatch(ctx, items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 10 {
		t.Errorf("got %d records, want 10 (pre-embedded pass through)", len(result))
	}
	if provider.batchCalls != 1 || provider.batchSizes[0] != 6 {
		t.Errorf("provider got %v texts, want one call with 6", provider.batchSizes)
	}
}

func TestGenerateBatch_PositionalCorrespondence(t *testing.T) {
	svc, provider, records, _ := newTestService(testConfig())

	items := batchItems(5)
	_, err := svc.GenerateBatch(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, item := range items {
		rec, ok := records.records[item.ID]
		if !ok {
			t.Fatalf("no record for %s", item.ID)
		}
		want := provider.embedFn(item.Text)
		got := rec.Embedding.Slice()
		if len(got) != len(want) {
			t.Fatalf("vector length mismatch for %s", item.ID)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("record %s holds the wrong vector (zip order broken)", item.ID)
				break
			}
		}
	}
}

func TestGenerateBatch_FailedChunkDoesNotAbortRun(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 2
	svc, provider, _, _ := newTestService(cfg)
	provider.failCalls = map[int]bool{2: true}

	items := batchItems(6) // chunks of 2: calls 1, 2, 3
	result, err := svc.GenerateBatch(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("a failed chunk must not fail the run: %v", err)
	}

	if provider.batchCalls != 3 {
		t.Errorf("provider called %d times, want 3 (later chunks still run)", provider.batchCalls)
	}
	if len(result) != 4 {
		t.Errorf("got %d records, want 4 (failed chunk yields none)", len(result))
	}
	// Yield shortfall tells the caller how many remain.
	if missing := len(items) - len(result); missing != 2 {
		t.Errorf("missing = %d, want 2", missing)
	}
}

func TestGenerateBatch_EmptyInput(t *testing.T) {
	svc, provider, _, _ := newTestService(testConfig())

	result, err := svc.GenerateBatch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 || provider.batchCalls != 0 {
		t.Error("empty input must produce no work")
	}
}

func TestGenerateBatch_Unavailable(t *testing.T) {
	svc, provider, _, _ := newTestService(testConfig())
	provider.available = false

	_, err := svc.GenerateBatch(context.Background(), batchItems(3), nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGenerateBatch_ProgressReportsEveryChunk(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 4
	svc, _, _, _ := newTestService(cfg)

	var reports [][2]int
	_, err := svc.GenerateBatch(context.Background(), batchItems(10), func(done, total int) {
		reports = append(reports, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{4, 10}, {8, 10}, {10, 10}}
	if len(reports) != len(want) {
		t.Fatalf("got %d progress reports, want %d", len(reports), len(want))
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Errorf("report %d = %v, want %v", i, reports[i], want[i])
		}
	}
}
