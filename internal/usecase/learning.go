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

const NoCoursesAnswer = "I couldn't find any relevant LinkedIn Learning courses for your query. Please try a different search term."

var courseSeparator = strings.Repeat("-", 40)

// LearningResponder recommends LinkedIn Learning courses found through web
// search, each with a short generated description.
type LearningResponder struct {
	searcher   port.WebSearcher
	llm        port.Completer
	maxResults int
	logger     *zap.Logger
}

// NewLearningResponder accepts a nil searcher; Respond then fails and the
// router shows the apology.
func NewLearningResponder(searcher port.WebSearcher, llm port.Completer, cfg config.LearningConfig, logger *zap.Logger) *LearningResponder {
	return &LearningResponder{
		searcher:   searcher,
		llm:        llm,
		maxResults: cfg.MaxResults,
		logger:     logging.OrNop(logger),
	}
}

func (l *LearningResponder) Tag() domain.AgentTag { return domain.TagLearning }

func (l *LearningResponder) Header() string { return "🎓 BloxMate LinkedIn Learning Assistant:" }

func (l *LearningResponder) Apology() string {
	return "I'm sorry, I couldn't retrieve LinkedIn Learning courses at the moment. Please try again later."
}

func (l *LearningResponder) Respond(ctx context.Context, q domain.Query) (domain.Response, error) {
	if l.searcher == nil {
		return domain.Response{}, errors.New("course search is not configured")
	}

	results, err := l.searcher.Search(ctx, "site:linkedin.com/learning "+q.Text, l.maxResults)
	if err != nil {
		return domain.Response{}, fmt.Errorf("failed to search courses: %w", err)
	}
	if len(results) > l.maxResults {
		results = results[:l.maxResults]
	}
	if len(results) == 0 {
		return domain.Response{AnswerText: NoCoursesAnswer}, nil
	}

	blocks := make([]string, 0, len(results))
	for _, course := range results {
		blocks = append(blocks, l.describe(ctx, course)+"\n"+courseSeparator)
	}
	return domain.Response{AnswerText: strings.Join(blocks, "\n")}, nil
}

func (l *LearningResponder) describe(ctx context.Context, course domain.SearchResult) string {
	desc, err := l.enhance(ctx, course)
	if err != nil {
		l.logger.Warn("could not describe course", zap.String("title", course.Title), zap.Error(err))
		desc = strings.TrimSpace(course.Snippet)
		if desc == "" {
			return fmt.Sprintf("- %s: %s", course.Title, course.URL)
		}
	}
	return fmt.Sprintf("📚 %s\n🔗 %s\nℹ️ %s", course.Title, course.URL, desc)
}

func (l *LearningResponder) enhance(ctx context.Context, course domain.SearchResult) (string, error) {
	user, err := prompt.Render("course.user", prompt.CourseData{Title: course.Title, Link: course.URL})
	if err != nil {
		return "", err
	}
	desc, err := l.llm.Complete(ctx, port.CompletionRequest{
		System:      prompt.System("course.system"),
		User:        user,
		Temperature: 0.7,
		MaxTokens:   150,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(desc), nil
}
