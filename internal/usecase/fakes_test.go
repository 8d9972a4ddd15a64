package usecase

import (
	"context"
	"errors"
	"sync"

	"bloxmate/internal/domain"
	"bloxmate/internal/port"
)

type fakeCompleter struct {
	mu    sync.Mutex
	reply func(req port.CompletionRequest) (string, error)
	calls []port.CompletionRequest
}

func replyWith(s string) *fakeCompleter {
	return &fakeCompleter{reply: func(port.CompletionRequest) (string, error) { return s, nil }}
}

func failingCompleter() *fakeCompleter {
	return &fakeCompleter{reply: func(port.CompletionRequest) (string, error) {
		return "", errors.New("service unavailable")
	}}
}

func (f *fakeCompleter) Complete(_ context.Context, req port.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.reply(req)
}

func (f *fakeCompleter) ModelName() string { return "fake" }

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRetriever struct {
	results []domain.ScoredChunk
	err     error
	calls   int
	lastK   int
}

func (f *fakeRetriever) Search(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	f.calls++
	f.lastK = k
	return f.results, f.err
}

type fakeSearcher struct {
	results   []domain.SearchResult
	err       error
	lastQuery string
	lastN     int
}

func (f *fakeSearcher) Search(_ context.Context, query string, n int) ([]domain.SearchResult, error) {
	f.lastQuery = query
	f.lastN = n
	return f.results, f.err
}

type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	page, ok := f.pages[url]
	if !ok {
		return "", errors.New("404")
	}
	return page, nil
}

type fakeClassifier struct {
	result domain.Classification
	calls  int
}

func (f *fakeClassifier) Classify(context.Context, string) domain.Classification {
	f.calls++
	return f.result
}

type fakeResponder struct {
	tag   domain.AgentTag
	resp  domain.Response
	err   error
	panic bool
	calls int
}

func (f *fakeResponder) Tag() domain.AgentTag { return f.tag }
func (f *fakeResponder) Header() string       { return "header:" + string(f.tag) }
func (f *fakeResponder) Apology() string      { return "sorry:" + string(f.tag) }

func (f *fakeResponder) Respond(context.Context, domain.Query) (domain.Response, error) {
	f.calls++
	if f.panic {
		panic("responder exploded")
	}
	return f.resp, f.err
}

type fakeEscalator struct {
	answer string
	calls  int
	prior  string
}

func (f *fakeEscalator) Escalate(_ context.Context, _ string, prior string) string {
	f.calls++
	f.prior = prior
	return f.answer
}

// fakeEmbedder returns fixed-dimension vectors and fails the listed calls
// (1-based).
type fakeEmbedder struct {
	dim    int
	failOn map[int]bool
	calls  int
	texts  int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, errors.New("rate limited")
	}
	f.texts += len(texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(t))
		v[f.dim-1] = 1
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dim }
func (f *fakeEmbedder) ModelName() string { return "fake" }

type wordCounter struct{}

func (wordCounter) Count(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
