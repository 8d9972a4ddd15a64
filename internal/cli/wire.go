package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bloxmate/config"
	"bloxmate/internal/adapter/cache"
	"bloxmate/internal/adapter/chunker"
	"bloxmate/internal/adapter/completion"
	"bloxmate/internal/adapter/directory"
	"bloxmate/internal/adapter/embedding"
	"bloxmate/internal/adapter/extract"
	"bloxmate/internal/adapter/retriever"
	"bloxmate/internal/adapter/store"
	"bloxmate/internal/adapter/tokenizer"
	"bloxmate/internal/adapter/web"
	"bloxmate/internal/port"
	"bloxmate/internal/usecase"
)

func newCompleter(ctx context.Context, c config.CompletionConfig) (port.Completer, error) {
	switch c.Provider {
	case "azure":
		return completion.NewAzureClient(c.APIKeyEnv, c.EndpointEnv, c.Model, c.APIVersion, c.Timeout)
	case "openai":
		return completion.NewOpenAIClient(c.APIKeyEnv, c.Model, c.BaseURL, c.Timeout)
	case "gemini":
		return completion.NewGenAIClient(ctx, c.APIKeyEnv, c.Model)
	case "mock":
		return completion.NewMockClient(""), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", c.Provider)
	}
}

func newEmbedder(ctx context.Context, c config.EmbeddingConfig) (port.Embedder, error) {
	switch c.Provider {
	case "azure":
		return embedding.NewAzureEmbedder(c.APIKeyEnv, c.EndpointEnv, c.Model, c.APIVersion, c.Dimension, c.Timeout)
	case "openai":
		if c.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(c.APIKeyEnv, c.Model, c.BaseURL, c.Dimension, c.Timeout)
		}
		return embedding.NewOpenAIEmbedder(c.APIKeyEnv, c.Model, c.Dimension, c.Timeout)
	case "gemini":
		return embedding.NewGenAIEmbedder(ctx, c.APIKeyEnv, c.Model, c.Dimension)
	case "mock":
		return embedding.NewMockEmbedder(c.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", c.Provider)
	}
}

// newSearcher returns the configured web searcher. SerpAPI falls back to
// DuckDuckGo when its key is missing.
func newSearcher(c config.EscalationConfig, serpKeyEnv string, log *zap.Logger) port.WebSearcher {
	if c.Provider == "serpapi" {
		s, err := web.NewSerpAPISearcher(serpKeyEnv, c.FetchTimeout)
		if err == nil {
			return s
		}
		log.Warn("serpapi unavailable, using duckduckgo", zap.Error(err))
	}
	return web.NewDuckDuckGoSearcher(c.FetchTimeout)
}

// newCourseSearcher prefers SerpAPI for course lookups, as its results carry
// snippets, and otherwise scrapes DuckDuckGo.
func newCourseSearcher(c *config.Config, log *zap.Logger) port.WebSearcher {
	if s, err := web.NewSerpAPISearcher(c.Learning.SerpAPIKeyEnv, c.Escalation.FetchTimeout); err == nil {
		return s
	}
	log.Debug("no serpapi key, course search uses duckduckgo")
	return web.NewDuckDuckGoSearcher(c.Escalation.FetchTimeout)
}

// openIndex opens the embedding store and loads the vector index, rebuilding
// it when the store changed. An index that cannot be loaded leaves the store
// open with an empty index. The caller closes the store.
func openIndex(c *config.Config, log *zap.Logger) (*store.BoltStore, *usecase.IndexLoader, *store.VectorIndex, error) {
	if err := c.EnsureDataDir(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(c.Index.StorePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open embedding store: %w", err)
	}

	loader := usecase.NewIndexLoader(st, c.Index.IndexPath, log)
	return st, loader, loader.LoadOrEmpty(), nil
}

// newRetriever also returns the semantic retriever so its index can be
// swapped after a reload.
func newRetriever(c *config.Config, idx port.VectorIndex, embedder port.Embedder) (port.Retriever, *retriever.SemanticRetriever) {
	semantic := retriever.NewSemanticRetriever(idx, embedder)
	var r port.Retriever = semantic
	if c.Retrieve.CacheSize > 0 {
		r = cache.NewCachedRetriever(r, cache.NewQueryCache(c.Retrieve.CacheSize, c.Retrieve.CacheTTL))
	}
	return r, semantic
}

// assistant holds the wired router and the resources it keeps open.
type assistant struct {
	router   *usecase.Router
	store    *store.BoltStore
	loader   *usecase.IndexLoader
	semantic *retriever.SemanticRetriever
}

func (a *assistant) Close() error {
	return a.store.Close()
}

// Reload picks up an index rebuilt since the assistant started and returns
// its row count.
func (a *assistant) Reload() (int, error) {
	idx, _, err := a.loader.Load()
	if err != nil {
		return 0, err
	}
	a.semantic.SetIndex(idx)
	return idx.Len(), nil
}

func newAssistant(ctx context.Context, c *config.Config, log *zap.Logger) (*assistant, error) {
	llm, err := newCompleter(ctx, c.Completion)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	embedder, err := newEmbedder(ctx, c.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	st, loader, idx, err := openIndex(c, log)
	if err != nil {
		return nil, err
	}
	ret, semantic := newRetriever(c, idx, embedder)

	packer := usecase.NewContextPacker(tokenizer.NewCounter(c.Retrieve.TokenModel, log), c.Retrieve.ContextTokens)
	retrieval := usecase.NewRetrievalResponder(llm, ret, packer, c.Retrieve, log)

	var escalator usecase.WebEscalator
	if c.Escalation.Enabled {
		fetcher := web.NewPageFetcher(c.Escalation.FetchTimeout, c.Escalation.MaxPageChars)
		escalator = usecase.NewEscalator(newSearcher(c.Escalation, c.Learning.SerpAPIKeyEnv, log), fetcher, llm, c.Escalation, log)
	}

	dir := directory.New(nil)
	if c.Directory.CSVPath != "" {
		if loaded, err := directory.Load(c.Directory.CSVPath); err != nil {
			log.Warn("organization chart unavailable", zap.String("path", c.Directory.CSVPath), zap.Error(err))
		} else {
			dir = loaded
		}
	}

	extractor := extract.NewDefaultRegistry()
	responders := []port.Responder{
		usecase.NewProductResponder(retrieval, usecase.NewInsufficiencyEvaluator(), escalator, log),
		usecase.NewLearningResponder(newCourseSearcher(c, log), llm, c.Learning, log),
		usecase.NewOrgChartResponder(dir, usecase.NewWeeklyUpdates(c.Directory.UpdatesPath, extractor, log), llm),
		usecase.NewCommsResponder(llm),
		usecase.NewOnboardingResponder(
			c.Onboarding.Documents,
			extractor,
			chunker.NewTextChunker(c.Onboarding.ChunkSize, c.Onboarding.ChunkOverlap),
			llm,
			log,
		),
	}

	classifier := usecase.NewClassifier(llm, c.Router, log)
	return &assistant{
		router:   usecase.NewRouter(classifier, c.Router, log, responders...),
		store:    st,
		loader:   loader,
		semantic: semantic,
	}, nil
}
