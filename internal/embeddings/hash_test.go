package embeddings_test

import (
	"context"
	"testing"

	"github.com/daybook-edu/daybook/internal/embeddings"
	"github.com/daybook-edu/daybook/internal/semantic"
)

func TestHashProvider_Embed(t *testing.T) {
	p := embeddings.NewHashProvider()

	if p.Name() != "hash" {
		t.Errorf("expected name 'hash', got %q", p.Name())
	}
	if !p.Available() {
		t.Error("hash provider must always be available")
	}

	vec, err := p.EmbedOne(context.Background(), "count forward by ones to 100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != embeddings.HashDimensions {
		t.Errorf("expected %d dimensions, got %d", embeddings.HashDimensions, len(vec))
	}

	// L2 norm should be ~1.0 for non-empty text.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("expected L2 norm ~1.0, got %f", norm)
	}
}

func TestHashProvider_SimilarTexts(t *testing.T) {
	p := embeddings.NewHashProvider()
	ctx := context.Background()

	v1, _ := p.EmbedOne(ctx, "count forward to twenty")
	v2, _ := p.EmbedOne(ctx, "count forward to twenty")  // identical
	v3, _ := p.EmbedOne(ctx, "photosynthesis in plants") // unrelated

	sim12, err := semantic.CosineSimilarity(v1, v2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sim13, err := semantic.CosineSimilarity(v1, v3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sim12 < 0.99 {
		t.Errorf("identical texts should have similarity ~1.0, got %f", sim12)
	}
	if sim13 >= sim12 {
		t.Errorf("unrelated text scored too high: same=%f unrelated=%f", sim12, sim13)
	}
}

func TestHashProvider_EmptyTextIsZeroVector(t *testing.T) {
	p := embeddings.NewHashProvider()

	vec, err := p.EmbedOne(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("empty text should produce a zero vector")
		}
	}

	// Zero vectors score 0 against anything; they never error.
	other, _ := p.EmbedOne(context.Background(), "anything at all")
	sim, err := semantic.CosineSimilarity(vec, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 0 {
		t.Errorf("zero vector similarity = %f, want 0", sim)
	}
}

func TestHashProvider_BatchOrder(t *testing.T) {
	p := embeddings.NewHashProvider()
	ctx := context.Background()

	texts := []string{"first text", "second text", "third text"}
	vecs, err := p.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}

	for i, text := range texts {
		single, _ := p.EmbedOne(ctx, text)
		sim, err := semantic.CosineSimilarity(vecs[i], single)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sim < 0.999 {
			t.Errorf("batch position %d does not match its input text", i)
		}
	}
}
