package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloxmate/internal/domain"
)

func scored(id string) []domain.ScoredChunk {
	return []domain.ScoredChunk{{Chunk: domain.DocumentChunk{ID: id}, Score: 1}}
}

func TestQueryCache_GetPut(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	if _, hit := c.Get("ab12", "what is ipam", 8); hit {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("ab12", "what is ipam", 8, scored("a"))

	got, hit := c.Get("ab12", "  What is   IPAM ", 8)
	if !hit {
		t.Fatal("expected hit for normalized question")
	}
	if got[0].Chunk.ID != "a" {
		t.Errorf("expected chunk a, got %s", got[0].Chunk.ID)
	}

	if _, hit := c.Get("ab12", "what is ipam", 4); hit {
		t.Error("expected miss for different k")
	}
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("", "q1", 8, scored("1"))
	c.Put("", "q2", 8, scored("2"))

	// Touch q1 so q2 becomes the oldest.
	c.Get("", "q1", 8)
	c.Put("", "q3", 8, scored("3"))

	if _, hit := c.Get("", "q2", 8); hit {
		t.Error("expected q2 to be evicted")
	}
	if _, hit := c.Get("", "q1", 8); !hit {
		t.Error("expected q1 to survive")
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("", "q", 8, scored("1"))
	now = now.Add(2 * time.Minute)

	if _, hit := c.Get("", "q", 8); hit {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("expected expired entry to be removed, size %d", c.Size())
	}
}

func TestQueryCache_NewFingerprintDropsEntries(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("old", "q1", 8, scored("1"))
	c.Put("old", "q2", 8, scored("2"))

	if _, hit := c.Get("new", "q1", 8); hit {
		t.Error("expected miss after the index changed")
	}
	if c.Size() != 0 {
		t.Errorf("expected entries from the old index to be dropped, size %d", c.Size())
	}

	// Going back does not resurrect them.
	if _, hit := c.Get("old", "q2", 8); hit {
		t.Error("expected dropped entry to stay gone")
	}
}

type countingRetriever struct {
	calls       int
	err         error
	fingerprint string
}

func (r *countingRetriever) Search(_ context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return scored(r.fingerprint + query), nil
}

func (r *countingRetriever) Fingerprint() string {
	return r.fingerprint
}

func TestCachedRetriever(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Search(ctx, "dns", 8); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 underlying call, got %d", inner.calls)
	}
}

func TestCachedRetriever_IndexSwapMisses(t *testing.T) {
	inner := &countingRetriever{fingerprint: "v1:"}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))
	ctx := context.Background()

	if _, err := r.Search(ctx, "dns", 8); err != nil {
		t.Fatal(err)
	}

	inner.fingerprint = "v2:"
	got, err := r.Search(ctx, "dns", 8)
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a fresh search after the swap, got %d calls", inner.calls)
	}
	if got[0].Chunk.ID != "v2:dns" {
		t.Errorf("expected results from the new index, got %s", got[0].Chunk.ID)
	}
}

func TestCachedRetriever_ErrorsAreNotCached(t *testing.T) {
	inner := &countingRetriever{err: errors.New("boom")}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))
	ctx := context.Background()

	r.Search(ctx, "dns", 8)
	r.Search(ctx, "dns", 8)
	if inner.calls != 2 {
		t.Errorf("expected 2 underlying calls, got %d", inner.calls)
	}
}
