package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"bloxmate/internal/domain"
)

// SerpAPISearcher queries Google through serpapi.com.
type SerpAPISearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error,omitempty"`
}

func NewSerpAPISearcher(apiKeyEnv string, timeout time.Duration) (*SerpAPISearcher, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return &SerpAPISearcher{
		apiKey:  apiKey,
		baseURL: "https://serpapi.com/search.json",
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (s *SerpAPISearcher) Search(ctx context.Context, query string, n int) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(n))
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var sr serpResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if sr.Error != "" {
		return nil, fmt.Errorf("serpapi error: %s", sr.Error)
	}

	results := make([]domain.SearchResult, 0, n)
	for _, r := range sr.OrganicResults {
		if len(results) >= n {
			break
		}
		if r.Link == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:   r.Title,
			URL:     r.Link,
			Snippet: r.Snippet,
		})
	}
	return results, nil
}
