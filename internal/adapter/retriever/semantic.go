package retriever

import (
	"context"
	"fmt"
	"sync"

	"bloxmate/internal/domain"
	"bloxmate/internal/port"
)

// SemanticRetriever embeds the query and searches the vector index.
type SemanticRetriever struct {
	mu       sync.RWMutex
	index    port.VectorIndex
	embedder port.Embedder
}

func NewSemanticRetriever(index port.VectorIndex, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
	}
}

// SetIndex swaps the index searched by later calls.
func (r *SemanticRetriever) SetIndex(index port.VectorIndex) {
	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
}

// Fingerprint returns the fingerprint of the current index, or "" when the
// index does not carry one.
func (r *SemanticRetriever) Fingerprint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.index.(interface{ Fingerprint() string }); ok {
		return f.Fingerprint()
	}
	return ""
}

// Search returns domain.ErrEmptyIndex when there is nothing to search.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	r.mu.RLock()
	index := r.index
	r.mu.RUnlock()

	if index == nil || index.Len() == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("semantic search not available: embeddings not configured")
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
