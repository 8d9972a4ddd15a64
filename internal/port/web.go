package port

import (
	"context"

	"bloxmate/internal/domain"
)

// WebSearcher queries an external search provider.
type WebSearcher interface {
	Search(ctx context.Context, query string, n int) ([]domain.SearchResult, error)
}

// PageFetcher downloads a page and returns its readable text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
