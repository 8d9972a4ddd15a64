package usecase

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bloxmate/internal/adapter/analyzer"
	"bloxmate/internal/adapter/directory"
	"bloxmate/internal/logging"
	"bloxmate/internal/port"
)

const snippetRadius = 50

// WeeklyUpdates searches a weekly status report for who is working on what.
// The report is extracted and split into per-person entries on first use.
type WeeklyUpdates struct {
	path      string
	extractor port.Extractor
	logger    *zap.Logger

	terms   *analyzer.Analyzer
	once    sync.Once
	entries []indexedUpdate
}

type indexedUpdate struct {
	directory.Update
	terms map[string]struct{}
}

func NewWeeklyUpdates(path string, extractor port.Extractor, logger *zap.Logger) *WeeklyUpdates {
	return &WeeklyUpdates{
		path:      path,
		extractor: extractor,
		logger:    logging.OrNop(logger),
		terms:     analyzer.New(true),
	}
}

func (w *WeeklyUpdates) load() {
	if w.path == "" {
		return
	}
	text, err := w.extractor.Extract(w.path)
	if err != nil {
		w.logger.Warn("failed to load weekly updates", zap.String("path", w.path), zap.Error(err))
		return
	}
	for _, u := range directory.ParseUpdates(text) {
		w.entries = append(w.entries, indexedUpdate{Update: u, terms: w.terms.TermSet(u.Content)})
	}
	w.logger.Debug("weekly updates loaded", zap.Int("people", len(w.entries)))
}

// Available reports whether any update entries were loaded.
func (w *WeeklyUpdates) Available() bool {
	w.once.Do(w.load)
	return len(w.entries) > 0
}

// Search returns the entries sharing at least one term with topic, most
// shared terms first. Ties keep report order.
func (w *WeeklyUpdates) Search(topic string) []directory.Update {
	w.once.Do(w.load)

	type scored struct {
		update directory.Update
		score  int
	}
	var hits []scored
	for _, e := range w.entries {
		if score := w.terms.Overlap(topic, e.terms); score > 0 {
			hits = append(hits, scored{update: e.Update, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]directory.Update, len(hits))
	for i, h := range hits {
		out[i] = h.update
	}
	return out
}

// snippets returns up to n excerpts of content around the words of topic,
// widened to word boundaries.
func snippets(content, topic string, n int) []string {
	var out []string
	for _, word := range strings.Fields(strings.ToLower(topic)) {
		if len(out) == n {
			break
		}
		word = strings.Trim(word, `?.,!'"`)
		if len(word) < 3 {
			continue
		}
		loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word)).FindStringIndex(content)
		if loc == nil {
			continue
		}
		start := max(0, loc[0]-snippetRadius)
		end := min(len(content), loc[1]+snippetRadius)
		for start > 0 && !isBreak(content[start]) {
			start--
		}
		for end < len(content) && !isBreak(content[end]) {
			end++
		}
		out = append(out, "..."+strings.TrimSpace(content[start:end])+"...")
	}
	return out
}

func isBreak(b byte) bool {
	return b == ' ' || b == '\n'
}
