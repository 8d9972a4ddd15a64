package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"bloxmate/config"
	"bloxmate/internal/domain"
	"bloxmate/internal/logging"
	"bloxmate/internal/port"
	"bloxmate/internal/prompt"
)

const classifyTemperature = 0.3

var tagDescriptions = map[domain.AgentTag]string{
	domain.TagProduct:        "For questions about products, resources, documentation, benefits, policies or Infoblox",
	domain.TagLearning:       "For queries about learning new skills or looking for LinkedIn Learning courses",
	domain.TagOrgChart:       "For questions about employees, managers, or organizational structure",
	domain.TagWorkplaceComms: `For questions about workplace communication, handling difficult conversations, or applying the "no jerks" policy`,
	domain.TagOnboarding:     "For questions about employee onboarding, first day tasks, required tools, teams to join, or training resources",
}

// QueryClassifier labels a query with an agent tag.
type QueryClassifier interface {
	Classify(ctx context.Context, query string) domain.Classification
}

// Classifier asks the completion service for an AGENT/CONFIDENCE reply.
// It never fails: unusable replies yield the configured fallback.
type Classifier struct {
	llm      port.Completer
	fallback domain.Classification
	logger   *zap.Logger
}

func NewClassifier(llm port.Completer, cfg config.RouterConfig, logger *zap.Logger) *Classifier {
	tag, ok := domain.ParseAgentTag(cfg.FallbackTag)
	if !ok {
		tag = domain.TagProduct
	}
	return &Classifier{
		llm: llm,
		fallback: domain.Classification{
			Tag:        tag,
			Confidence: cfg.FallbackConfidence,
			Status:     domain.ParseFailed,
		},
		logger: logging.OrNop(logger),
	}
}

func (c *Classifier) Classify(ctx context.Context, query string) domain.Classification {
	options := make([]prompt.Option, 0, len(tagDescriptions))
	for _, tag := range domain.AllAgentTags() {
		options = append(options, prompt.Option{Tag: string(tag), Description: tagDescriptions[tag]})
	}
	user, err := prompt.Render("classify.user", prompt.ClassifyData{Query: query, Options: options})
	if err != nil {
		c.logger.Error("failed to build classification prompt", zap.Error(err))
		return c.fallback
	}

	reply, err := c.llm.Complete(ctx, port.CompletionRequest{
		System:      prompt.System("classify.system"),
		User:        user,
		Temperature: classifyTemperature,
	})
	if err != nil {
		c.logger.Warn("classification call failed, using fallback", zap.Error(err))
		return c.fallback
	}

	cls, err := ParseClassification(reply)
	if err != nil {
		c.logger.Warn("classification reply rejected, using fallback",
			zap.String("reply", reply), zap.Error(err))
		return c.fallback
	}
	return cls
}

var (
	agentField        = regexp.MustCompile(`(?i)\bAGENT\s*:\s*["']?([A-Za-z_]+)`)
	confidenceField   = regexp.MustCompile(`(?i)\bCONFIDENCE\s*:\s*["']?(-?[0-9.]+)`)
	confidenceLexical = regexp.MustCompile(`^[01](\.[0-9]+)?$`)
)

// ParseClassification reads a reply of the form AGENT:<tag>|CONFIDENCE:<0.x>.
// Fields are found anywhere in the reply, in either order, so markdown
// emphasis, code fences, or surrounding prose do not matter. The first
// occurrence of each field wins. The tag must be known and the confidence a
// decimal within [0,1]; anything else is ErrParseFailed.
func ParseClassification(reply string) (domain.Classification, error) {
	failed := domain.Classification{Status: domain.ParseFailed}

	agent := agentField.FindStringSubmatch(reply)
	conf := confidenceField.FindStringSubmatch(reply)
	if agent == nil || conf == nil {
		return failed, fmt.Errorf("%w: missing AGENT or CONFIDENCE field", domain.ErrParseFailed)
	}

	tag, ok := domain.ParseAgentTag(agent[1])
	if !ok {
		return failed, fmt.Errorf("%w: unknown agent %q", domain.ErrParseFailed, agent[1])
	}

	confValue := strings.TrimRight(conf[1], ".")
	if !confidenceLexical.MatchString(confValue) {
		return failed, fmt.Errorf("%w: malformed confidence %q", domain.ErrParseFailed, conf[1])
	}
	value, err := strconv.ParseFloat(confValue, 64)
	if err != nil || value < 0 || value > 1 {
		return failed, fmt.Errorf("%w: confidence %q out of range", domain.ErrParseFailed, confValue)
	}

	return domain.Classification{Tag: tag, Confidence: value, Status: domain.Parsed}, nil
}
