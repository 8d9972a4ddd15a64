package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"bloxmate/config"
	"bloxmate/internal/logging"
	"bloxmate/internal/port"
	"bloxmate/internal/prompt"
)

const (
	NoOnlineResultsAnswer  = "I couldn't find additional information online. Please try a more specific query or check official Infoblox documentation."
	NoOnlineContentAnswer  = "I found some resources online, but couldn't extract useful content. Please check official Infoblox documentation for accurate information."
	OnlineCompletionFailed = "I encountered an error while processing online information. Please try again or check official Infoblox documentation."
)

// WebEscalator answers from web pages when local knowledge falls short.
type WebEscalator interface {
	Escalate(ctx context.Context, query, priorAnswer string) string
}

// Escalator searches the web, fetches the top results one at a time and asks
// the completion service to answer from them with citations.
type Escalator struct {
	searcher port.WebSearcher
	fetcher  port.PageFetcher
	llm      port.Completer
	cfg      config.EscalationConfig
	logger   *zap.Logger
}

func NewEscalator(searcher port.WebSearcher, fetcher port.PageFetcher, llm port.Completer, cfg config.EscalationConfig, logger *zap.Logger) *Escalator {
	return &Escalator{
		searcher: searcher,
		fetcher:  fetcher,
		llm:      llm,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
	}
}

// Escalate always returns text; failures map to fixed messages.
func (e *Escalator) Escalate(ctx context.Context, query, priorAnswer string) string {
	searchQuery := strings.TrimSpace(e.cfg.QueryPrefix + " " + query)
	e.logger.Info("searching the web", zap.String("query", searchQuery))

	results, err := e.searcher.Search(ctx, searchQuery, e.cfg.MaxResults)
	if err != nil {
		e.logger.Warn("web search failed", zap.Error(err))
		return NoOnlineResultsAnswer
	}
	if len(results) > e.cfg.MaxResults {
		results = results[:e.cfg.MaxResults]
	}
	if len(results) == 0 {
		return NoOnlineResultsAnswer
	}

	var pages []prompt.Page
	for _, res := range results {
		if res.URL == "" {
			continue
		}
		e.logger.Debug("fetching page", zap.String("title", res.Title), zap.String("url", res.URL))

		content, err := e.fetch(ctx, res.URL)
		if err != nil {
			e.logger.Warn("skipping page", zap.String("url", res.URL), zap.Error(err))
			continue
		}
		if strings.TrimSpace(content) == "" {
			e.logger.Debug("skipping empty page", zap.String("url", res.URL))
			continue
		}
		pages = append(pages, prompt.Page{Title: res.Title, URL: res.URL, Content: content})
	}

	if len(pages) == 0 {
		return NoOnlineContentAnswer
	}

	user, err := prompt.Render("escalation.user", prompt.EscalationData{
		Query:       query,
		PriorAnswer: priorAnswer,
		Pages:       pages,
	})
	if err != nil {
		e.logger.Error("failed to build escalation prompt", zap.Error(err))
		return OnlineCompletionFailed
	}

	answer, err := e.llm.Complete(ctx, port.CompletionRequest{
		System:      prompt.System("escalation.system"),
		User:        user,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		e.logger.Warn("escalation completion failed", zap.Error(err))
		return OnlineCompletionFailed
	}
	return strings.TrimSpace(answer)
}

func (e *Escalator) fetch(ctx context.Context, url string) (string, error) {
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}
	return e.fetcher.Fetch(ctx, url)
}
