package domain

import (
	"errors"
	"strings"
)

var (
	ErrParseFailed       = errors.New("classification reply could not be parsed")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyIndex        = errors.New("vector index is empty")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

type Query struct {
	ID   string
	Text string
}

// AgentTag identifies the responder that should handle a query.
type AgentTag string

const (
	TagProduct        AgentTag = "product"
	TagLearning       AgentTag = "learning"
	TagOrgChart       AgentTag = "org_chart"
	TagWorkplaceComms AgentTag = "workplace_comms"
	TagOnboarding     AgentTag = "onboarding"
)

// AllAgentTags returns the tags in prompt order.
func AllAgentTags() []AgentTag {
	return []AgentTag{TagProduct, TagLearning, TagOrgChart, TagWorkplaceComms, TagOnboarding}
}

// ParseAgentTag maps a case-insensitive label to a known tag.
func ParseAgentTag(s string) (AgentTag, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllAgentTags() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type ParseStatus int

const (
	Parsed ParseStatus = iota
	ParseFailed
)

func (s ParseStatus) String() string {
	if s == ParseFailed {
		return "parse_failed"
	}
	return "parsed"
}

// Classification is the labelled reply of the classifier. Confidence is always
// set; a ParseFailed status carries the fallback tag and confidence.
type Classification struct {
	Tag        AgentTag
	Confidence float64
	Status     ParseStatus
}

type DecisionKind int

const (
	Dispatch DecisionKind = iota
	Default
)

func (k DecisionKind) String() string {
	if k == Default {
		return "default"
	}
	return "dispatch"
}

type RoutingDecision struct {
	Kind       DecisionKind
	Tag        AgentTag
	Confidence float64
	Threshold  float64
}

type Sufficiency int

const (
	Sufficient Sufficiency = iota
	Insufficient
)

func (s Sufficiency) String() string {
	if s == Insufficient {
		return "insufficient"
	}
	return "sufficient"
}

type AnswerCandidate struct {
	Text        string
	Origin      AgentTag
	Sufficiency Sufficiency
}

// Response is what a responder hands back to the router: lines meant for
// display (headers, progress notes) and the answer itself.
type Response struct {
	DisplayLines []string
	AnswerText   string
}

func (r Response) String() string {
	var sb strings.Builder
	for _, l := range r.DisplayLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString(r.AnswerText)
	return sb.String()
}

// DocumentChunk is one row of the embedding store.
type DocumentChunk struct {
	ID                  string    `json:"id"`
	Content             string    `json:"content"`
	Embedding           []float32 `json:"embedding"`
	SourceURL           string    `json:"source_url"`
	Title               string    `json:"title"`
	DeepLink            string    `json:"deep_link"`
	DeepLinkDescription string    `json:"deep_link_description"`
}

type ScoredChunk struct {
	Chunk DocumentChunk
	Row   int
	Score float64
}

// CacheKey is the embedding cache key for a file at a given content hash.
func CacheKey(path, hash string) string {
	return path + "|" + hash
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type PageExtract struct {
	Title   string
	URL     string
	Content string
}

type Employee struct {
	Name    string
	Title   string
	Manager string
}
