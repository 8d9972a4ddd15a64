package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bloxmate/internal/adapter/analyzer"
	"bloxmate/internal/domain"
	"bloxmate/internal/logging"
	"bloxmate/internal/port"
	"bloxmate/internal/prompt"
)

const (
	onboardingTopSections   = 5
	onboardingFallbackCount = 3
	onboardingPreviewChars  = 300

	NoOnboardingAnswer = "I couldn't find specific onboarding information for your query."
	onboardingFallback = "Here's some onboarding information that might help:"
)

// OnboardingResponder answers new-hire questions from onboarding documents.
// Documents are extracted and chunked on first use.
type OnboardingResponder struct {
	documents []string
	extractor port.Extractor
	chunker   port.Chunker
	llm       port.Completer
	logger    *zap.Logger

	terms    *analyzer.Analyzer
	once     sync.Once
	sections []indexedSection
}

type indexedSection struct {
	prompt.Section
	terms map[string]struct{}
}

func NewOnboardingResponder(documents []string, extractor port.Extractor, chunker port.Chunker, llm port.Completer, logger *zap.Logger) *OnboardingResponder {
	return &OnboardingResponder{
		documents: documents,
		extractor: extractor,
		chunker:   chunker,
		llm:       llm,
		logger:    logging.OrNop(logger),
		terms:     analyzer.New(true),
	}
}

func (o *OnboardingResponder) Tag() domain.AgentTag { return domain.TagOnboarding }

func (o *OnboardingResponder) Header() string { return "🚀 BloxMate Onboarding Assistant:" }

func (o *OnboardingResponder) Apology() string {
	return "I'm sorry, I couldn't retrieve onboarding information at the moment. Please try again later."
}

func (o *OnboardingResponder) load() {
	for _, path := range o.documents {
		text, err := o.extractor.Extract(path)
		if err != nil {
			o.logger.Warn("failed to load onboarding document", zap.String("path", path), zap.Error(err))
			continue
		}
		source := filepath.Base(path)
		for _, chunk := range o.chunker.Split(cleanText(text)) {
			o.sections = append(o.sections, indexSection(o.terms, prompt.Section{Source: source, Content: chunk}))
		}
	}
	o.logger.Debug("onboarding documents loaded", zap.Int("sections", len(o.sections)))
}

// Respond asks the completion service to answer from the best-matching
// sections. When that fails, the matching sections are shown directly.
func (o *OnboardingResponder) Respond(ctx context.Context, q domain.Query) (domain.Response, error) {
	o.once.Do(o.load)
	if len(o.sections) == 0 {
		return domain.Response{}, errors.New("no onboarding documents loaded")
	}

	matches := searchSections(o.terms, o.sections, q.Text, onboardingTopSections)
	excerpts := matches
	if len(excerpts) == 0 {
		for _, s := range o.sections[:min(onboardingTopSections, len(o.sections))] {
			excerpts = append(excerpts, s.Section)
		}
	}

	answer, err := o.complete(ctx, q.Text, excerpts)
	if err == nil {
		return domain.Response{AnswerText: answer}, nil
	}
	o.logger.Warn("onboarding completion failed, falling back to keyword search", zap.Error(err))

	resp := domain.Response{DisplayLines: []string{o.Apology()}}
	if len(matches) == 0 {
		resp.AnswerText = NoOnboardingAnswer
		return resp, nil
	}

	var sb strings.Builder
	sb.WriteString(onboardingFallback)
	for _, s := range matches[:min(onboardingFallbackCount, len(matches))] {
		fmt.Fprintf(&sb, "\n\n- From %s:\n%s", s.Source, preview(s.Content, onboardingPreviewChars))
	}
	resp.AnswerText = sb.String()
	return resp, nil
}

func (o *OnboardingResponder) complete(ctx context.Context, query string, sections []prompt.Section) (string, error) {
	user, err := prompt.Render("onboarding.user", prompt.OnboardingData{Query: query, Sections: sections})
	if err != nil {
		return "", err
	}
	answer, err := o.llm.Complete(ctx, port.CompletionRequest{
		System: prompt.System("onboarding.system"),
		User:   user,
	})
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errors.New("empty completion")
	}
	return answer, nil
}

func indexSection(a *analyzer.Analyzer, s prompt.Section) indexedSection {
	return indexedSection{Section: s, terms: a.TermSet(s.Content)}
}

// searchSections scores sections by how many distinct query terms they
// contain and returns up to n with a positive score, best first.
func searchSections(a *analyzer.Analyzer, sections []indexedSection, query string, n int) []prompt.Section {
	type scored struct {
		section prompt.Section
		score   int
	}
	var hits []scored
	for _, s := range sections {
		if score := a.Overlap(query, s.terms); score > 0 {
			hits = append(hits, scored{section: s.Section, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]prompt.Section, 0, min(n, len(hits)))
	for _, h := range hits[:min(n, len(hits))] {
		out = append(out, h.section)
	}
	return out
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
