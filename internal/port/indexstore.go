package port

import "bloxmate/internal/domain"

// EmbeddingStore is the append-only table of embedded chunks plus the file
// cache that records which source files have already been processed.
type EmbeddingStore interface {
	HasCacheEntry(key string) (bool, error)

	// CommitFile appends rows and, when key is non-empty, records the cache
	// entry in the same transaction.
	CommitFile(key string, rows []domain.DocumentChunk) error

	Rows() ([]domain.DocumentChunk, error)

	Count() (int, error)

	Dimension() (int, error)

	Fingerprint() (string, error)

	Close() error
}
