package port

import (
	"context"

	"bloxmate/internal/domain"
)

// Responder answers queries routed to one agent tag.
type Responder interface {
	Tag() domain.AgentTag

	// Header is the display line shown above the answer.
	Header() string

	// Apology is shown in place of the answer when Respond fails.
	Apology() string

	Respond(ctx context.Context, query domain.Query) (domain.Response, error)
}
