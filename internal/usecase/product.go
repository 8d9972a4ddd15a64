package usecase

import (
	"context"

	"go.uber.org/zap"

	"bloxmate/internal/domain"
	"bloxmate/internal/logging"
)

const EscalationNotice = "⚠️ Local knowledge looked insufficient; searching online..."

// ProductResponder runs the retrieval responder and escalates to the web when
// the local answer reads as insufficient. A nil escalator disables escalation.
type ProductResponder struct {
	retrieval *RetrievalResponder
	evaluator *InsufficiencyEvaluator
	escalator WebEscalator
	logger    *zap.Logger
}

func NewProductResponder(retrieval *RetrievalResponder, evaluator *InsufficiencyEvaluator, escalator WebEscalator, logger *zap.Logger) *ProductResponder {
	return &ProductResponder{
		retrieval: retrieval,
		evaluator: evaluator,
		escalator: escalator,
		logger:    logging.OrNop(logger),
	}
}

func (p *ProductResponder) Tag() domain.AgentTag { return domain.TagProduct }

func (p *ProductResponder) Header() string { return "🔍 BloxMate Knowledge Base Agent:" }

func (p *ProductResponder) Apology() string {
	return "I'm sorry, I couldn't retrieve that information at the moment. Please try again or ask something else."
}

func (p *ProductResponder) Respond(ctx context.Context, q domain.Query) (domain.Response, error) {
	candidate, err := p.retrieval.Answer(ctx, q.Text)
	if err != nil {
		return domain.Response{}, err
	}
	candidate = p.evaluator.Evaluate(candidate)

	if candidate.Sufficiency == domain.Sufficient || p.escalator == nil {
		return domain.Response{AnswerText: candidate.Text}, nil
	}

	p.logger.Info("local answer insufficient, escalating", zap.String("query_id", q.ID))
	online := p.escalator.Escalate(ctx, q.Text, candidate.Text)
	return domain.Response{
		DisplayLines: []string{candidate.Text, EscalationNotice},
		AnswerText:   online,
	}, nil
}
