package port

import (
	"context"

	"bloxmate/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex searches embedding vectors by similarity.
type VectorIndex interface {
	// Search returns at most k chunks ordered by descending similarity.
	Search(query []float32, k int) ([]domain.ScoredChunk, error)

	// Len returns the number of indexed rows.
	Len() int
}
