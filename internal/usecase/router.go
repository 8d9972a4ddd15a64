package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bloxmate/config"
	"bloxmate/internal/domain"
	"bloxmate/internal/logging"
	"bloxmate/internal/port"
)

const MenuHeader = "❓ BloxMate Assistant:"

// CapabilityMenu is returned whenever no responder is selected.
const CapabilityMenu = `I'm not sure I understand your request. I can help with:
- Information about Infoblox products and documentation
- LinkedIn Learning course recommendations
- Organization structure and employee information
- Workplace communication guidance
- Employee onboarding resources

Please try asking about one of these topics.`

// Router classifies a query and dispatches it to the responder registered for
// the tag when the confidence clears that tag's threshold.
type Router struct {
	classifier QueryClassifier
	responders map[domain.AgentTag]port.Responder
	cfg        config.RouterConfig
	logger     *zap.Logger
}

func NewRouter(classifier QueryClassifier, cfg config.RouterConfig, logger *zap.Logger, responders ...port.Responder) *Router {
	r := &Router{
		classifier: classifier,
		responders: make(map[domain.AgentTag]port.Responder, len(responders)),
		cfg:        cfg,
		logger:     logging.OrNop(logger),
	}
	for _, resp := range responders {
		r.responders[resp.Tag()] = resp
	}
	return r
}

// Decide turns a classification into a routing decision.
func (r *Router) Decide(c domain.Classification) domain.RoutingDecision {
	threshold := r.cfg.Threshold(string(c.Tag))
	d := domain.RoutingDecision{
		Kind:       domain.Default,
		Tag:        c.Tag,
		Confidence: c.Confidence,
		Threshold:  threshold,
	}
	if _, ok := r.responders[c.Tag]; ok && c.Confidence >= threshold {
		d.Kind = domain.Dispatch
	}
	return d
}

// Classify exposes the classification and decision without dispatching.
func (r *Router) Classify(ctx context.Context, text string) (domain.Classification, domain.RoutingDecision) {
	c := r.classifier.Classify(ctx, strings.TrimSpace(text))
	return c, r.Decide(c)
}

// Route answers a query. It never returns an error: responder failures become
// that responder's apology and unroutable queries get the capability menu.
func (r *Router) Route(ctx context.Context, text string) domain.Response {
	q := domain.Query{ID: uuid.NewString(), Text: strings.TrimSpace(text)}
	log := r.logger.With(zap.String("query_id", q.ID))

	if q.Text == "" {
		return menu()
	}

	c := r.classifier.Classify(ctx, q.Text)
	d := r.Decide(c)
	log.Debug("routing decision",
		zap.String("tag", string(d.Tag)),
		zap.Float64("confidence", d.Confidence),
		zap.Float64("threshold", d.Threshold),
		zap.Stringer("kind", d.Kind),
		zap.Stringer("status", c.Status),
	)

	if d.Kind == domain.Default {
		return menu()
	}
	return r.dispatch(ctx, r.responders[d.Tag], q, log)
}

func (r *Router) dispatch(ctx context.Context, resp port.Responder, q domain.Query, log *zap.Logger) (out domain.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("responder panicked", zap.String("tag", string(resp.Tag())), zap.Any("panic", rec))
			out = apology(resp)
		}
	}()

	res, err := resp.Respond(ctx, q)
	if err != nil {
		log.Warn("responder failed", zap.String("tag", string(resp.Tag())), zap.Error(err))
		return apology(resp)
	}

	return domain.Response{
		DisplayLines: append([]string{resp.Header()}, res.DisplayLines...),
		AnswerText:   res.AnswerText,
	}
}

func apology(resp port.Responder) domain.Response {
	return domain.Response{
		DisplayLines: []string{resp.Header()},
		AnswerText:   resp.Apology(),
	}
}

func menu() domain.Response {
	return domain.Response{
		DisplayLines: []string{MenuHeader},
		AnswerText:   CapabilityMenu,
	}
}

// DescribeDecision renders a classification and its decision on one line.
func DescribeDecision(c domain.Classification, d domain.RoutingDecision) string {
	return fmt.Sprintf("tag=%s confidence=%.2f status=%s threshold=%.2f decision=%s",
		c.Tag, c.Confidence, c.Status, d.Threshold, d.Kind)
}
