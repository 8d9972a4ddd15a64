package store

import (
	"errors"
	"path/filepath"
	"testing"

	"bloxmate/internal/domain"
)

func TestSearch_OrderAndLimit(t *testing.T) {
	idx, err := BuildIndex([]domain.DocumentChunk{
		row("far", 0, 1),
		row("near", 1, 0.1),
		row("mid", 1, 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "near" || results[1].Chunk.ID != "mid" {
		t.Errorf("expected [near mid], got [%s %s]", results[0].Chunk.ID, results[1].Chunk.ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("expected descending scores, got %f then %f", results[0].Score, results[1].Score)
	}
}

func TestSearch_TiesKeepRowOrder(t *testing.T) {
	idx, err := BuildIndex([]domain.DocumentChunk{
		row("first", 2, 0),
		row("other", 0, 1),
		row("second", 1, 0),
		row("third", 5, 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, want := range []string{"first", "second", "third", "other"} {
		if results[i].Chunk.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, results[i].Chunk.ID)
		}
	}
	if results[0].Row != 0 || results[1].Row != 2 {
		t.Errorf("expected row numbers 0 and 2, got %d and %d", results[0].Row, results[1].Row)
	}
}

func TestSearch_EmptyAndMismatch(t *testing.T) {
	empty, err := BuildIndex(nil)
	if err != nil {
		t.Fatal(err)
	}
	results, err := empty.Search([]float32{1, 2}, 8)
	if err != nil || len(results) != 0 {
		t.Errorf("expected no results and no error, got %v, %v", results, err)
	}

	idx, _ := BuildIndex([]domain.DocumentChunk{row("a", 1, 0)})
	if _, err := idx.Search([]float32{1, 0, 0}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestBuildIndex_DimensionMismatch(t *testing.T) {
	_, err := BuildIndex([]domain.DocumentChunk{row("a", 1, 0), row("b", 1, 0, 0)})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vector_index.db")

	idx, err := BuildIndex([]domain.DocumentChunk{row("a", 1, 0), row("b", 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	info := &SchemaInfo{Version: CurrentSchemaVersion, Fingerprint: "cafe", Rows: 2, Dimension: 2}
	if idx.Fingerprint() != "" {
		t.Errorf("expected no fingerprint before persist, got %q", idx.Fingerprint())
	}
	if err := idx.Persist(path, info); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if idx.Fingerprint() != "cafe" {
		t.Errorf("expected persisted index to carry fingerprint cafe, got %q", idx.Fingerprint())
	}

	loaded, savedInfo, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", loaded.Len())
	}
	if savedInfo.Fingerprint != "cafe" || loaded.Fingerprint() != "cafe" {
		t.Errorf("expected fingerprint cafe, got %s and %s", savedInfo.Fingerprint, loaded.Fingerprint())
	}

	results, _ := loaded.Search([]float32{0, 1}, 1)
	if len(results) != 1 || results[0].Chunk.ID != "b" {
		t.Errorf("expected b as nearest, got %v", results)
	}

	// Persisting again replaces the file.
	if err := idx.Persist(path, &SchemaInfo{Version: CurrentSchemaVersion, Fingerprint: "beef"}); err != nil {
		t.Fatal(err)
	}
	_, savedInfo, _ = LoadIndex(path)
	if savedInfo.Fingerprint != "beef" {
		t.Errorf("expected replaced fingerprint beef, got %s", savedInfo.Fingerprint)
	}
}
