package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bloxmate/config"
	"bloxmate/internal/domain"
	"bloxmate/internal/logging"
	"bloxmate/internal/port"
	"bloxmate/internal/prompt"
)

// NoInformationAnswer is the answer when nothing local can be used.
const NoInformationAnswer = "I don't have enough information to answer that question based on my knowledge."

// RetrievalResponder answers product questions, either directly for known
// product jargon or from the top-k chunks of the vector index.
type RetrievalResponder struct {
	llm       port.Completer
	retriever port.Retriever
	packer    *ContextPacker
	keywords  []string
	topK      int
	logger    *zap.Logger
}

func NewRetrievalResponder(
	llm port.Completer,
	retriever port.Retriever,
	packer *ContextPacker,
	cfg config.RetrieveConfig,
	logger *zap.Logger,
) *RetrievalResponder {
	keywords := make([]string, len(cfg.DirectKeywords))
	for i, k := range cfg.DirectKeywords {
		keywords[i] = strings.ToLower(k)
	}
	return &RetrievalResponder{
		llm:       llm,
		retriever: retriever,
		packer:    packer,
		keywords:  keywords,
		topK:      cfg.TopK,
		logger:    logging.OrNop(logger),
	}
}

// IsDirect reports whether the query mentions a direct-answer keyword.
func (r *RetrievalResponder) IsDirect(query string) bool {
	lower := strings.ToLower(query)
	for _, k := range r.keywords {
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Answer returns an unevaluated candidate. Errors come only from the
// completion or embedding services; an empty index or one built with a
// different embedding dimension is a plain answer.
func (r *RetrievalResponder) Answer(ctx context.Context, query string) (domain.AnswerCandidate, error) {
	candidate := domain.AnswerCandidate{Origin: domain.TagProduct, Sufficiency: domain.Sufficient}

	var req port.CompletionRequest
	if r.IsDirect(query) {
		r.logger.Debug("direct answer path")
		req = port.CompletionRequest{System: prompt.System("direct.system"), User: query}
	} else {
		results, err := r.retriever.Search(ctx, query, r.topK)
		if errors.Is(err, domain.ErrEmptyIndex) || (err == nil && len(results) == 0) {
			r.logger.Debug("no retrieval results")
			candidate.Text = NoInformationAnswer
			return candidate, nil
		}
		if errors.Is(err, domain.ErrDimensionMismatch) {
			// Store built with another embedding model; reindex to recover.
			r.logger.Warn("query embedding does not match the index", zap.Error(err))
			candidate.Text = NoInformationAnswer
			return candidate, nil
		}
		if err != nil {
			return candidate, fmt.Errorf("failed to retrieve context: %w", err)
		}

		packed := r.packer.Pack(results)
		r.logger.Debug("packed context",
			zap.Int("chunks", len(packed.Chunks)),
			zap.Int("dropped", packed.Dropped),
			zap.Int("tokens", packed.UsedTokens))

		user, err := prompt.Render("rag.user", prompt.RAGData{Query: query, Context: packed.Text})
		if err != nil {
			return candidate, err
		}
		req = port.CompletionRequest{System: prompt.System("rag.system"), User: user}
	}

	answer, err := r.llm.Complete(ctx, req)
	if err != nil {
		return candidate, fmt.Errorf("failed to complete answer: %w", err)
	}
	candidate.Text = strings.TrimSpace(answer)
	if candidate.Text == "" {
		candidate.Text = NoInformationAnswer
	}
	return candidate, nil
}
