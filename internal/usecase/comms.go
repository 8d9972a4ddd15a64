package usecase

import (
	"context"
	"fmt"
	"strings"

	"bloxmate/internal/domain"
	"bloxmate/internal/port"
	"bloxmate/internal/prompt"
)

var communicationPrinciples = []string{
	"Assume positive intent",
	"Focus on the issue, not the person",
	"Use 'I' statements instead of 'you' statements",
	"Practice active listening",
	"Be specific about behaviors rather than making generalizations",
	"Acknowledge others' perspectives",
	"Offer solutions, not just complaints",
	"Express gratitude",
	"Choose appropriate timing and setting for difficult conversations",
	"Follow up after difficult conversations",
}

// CommsResponder gives advice for difficult workplace conversations.
type CommsResponder struct {
	llm port.Completer
}

func NewCommsResponder(llm port.Completer) *CommsResponder {
	return &CommsResponder{llm: llm}
}

func (c *CommsResponder) Tag() domain.AgentTag { return domain.TagWorkplaceComms }

func (c *CommsResponder) Header() string { return "🤝 BloxMate Workplace Communication Assistant:" }

func (c *CommsResponder) Apology() string {
	return "I'm sorry, I couldn't process your workplace communication query at the moment. Please try again later."
}

func (c *CommsResponder) Respond(ctx context.Context, q domain.Query) (domain.Response, error) {
	user, err := prompt.Render("comms.user", prompt.CommsData{Query: q.Text, Principles: communicationPrinciples})
	if err != nil {
		return domain.Response{}, err
	}

	advice, err := c.llm.Complete(ctx, port.CompletionRequest{
		System:      prompt.System("comms.system"),
		User:        user,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return domain.Response{}, fmt.Errorf("failed to generate advice: %w", err)
	}

	return domain.Response{
		DisplayLines: []string{"🤝 Workplace Communication Advice:", "-------------------------------"},
		AnswerText:   strings.TrimSpace(advice),
	}, nil
}
