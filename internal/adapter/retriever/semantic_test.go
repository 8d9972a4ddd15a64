package retriever

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bloxmate/internal/adapter/embedding"
	"bloxmate/internal/adapter/store"
	"bloxmate/internal/domain"
)

func TestSemanticRetriever_Search(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(16)

	texts := []string{"dns firewall rules", "dhcp lease time", "grid manager login"}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	rows := make([]domain.DocumentChunk, len(texts))
	for i, text := range texts {
		rows[i] = domain.DocumentChunk{ID: text, Content: text, Embedding: vecs[i]}
	}
	idx, err := store.BuildIndex(rows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	r := NewSemanticRetriever(idx, emb)
	results, err := r.Search(ctx, "dhcp lease time", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "dhcp lease time" {
		t.Errorf("expected exact text to rank first, got %s", results[0].Chunk.ID)
	}
}

func TestSemanticRetriever_EmptyIndex(t *testing.T) {
	idx, _ := store.BuildIndex(nil)
	r := NewSemanticRetriever(idx, embedding.NewMockEmbedder(16))

	_, err := r.Search(context.Background(), "q", 8)
	if !errors.Is(err, domain.ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex, got %v", err)
	}
}

func TestSemanticRetriever_DimensionMismatch(t *testing.T) {
	idx, err := store.BuildIndex([]domain.DocumentChunk{{ID: "a", Embedding: []float32{1, 0, 0}}})
	if err != nil {
		t.Fatal(err)
	}
	r := NewSemanticRetriever(idx, embedding.NewMockEmbedder(4))

	_, err = r.Search(context.Background(), "q", 8)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSemanticRetriever_SetIndex(t *testing.T) {
	empty, _ := store.BuildIndex(nil)
	r := NewSemanticRetriever(empty, embedding.NewMockEmbedder(3))
	if r.Fingerprint() != "" {
		t.Errorf("expected no fingerprint, got %q", r.Fingerprint())
	}

	idx, err := store.BuildIndex([]domain.DocumentChunk{{ID: "a", Embedding: []float32{1, 0, 1}}})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "vectors.db")
	if err := idx.Persist(path, &store.SchemaInfo{Version: store.CurrentSchemaVersion, Fingerprint: "f00d"}); err != nil {
		t.Fatal(err)
	}

	r.SetIndex(idx)
	if r.Fingerprint() != "f00d" {
		t.Errorf("expected fingerprint f00d, got %q", r.Fingerprint())
	}
	results, err := r.Search(context.Background(), "anything", 1)
	if err != nil {
		t.Fatalf("search after swap: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ID != "a" {
		t.Errorf("expected row a from the new index, got %v", results)
	}
}
