package port

import "context"

// Completer represents a chat completion service.
type Completer interface {
	// Complete sends a system and user prompt and returns the reply text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the model or deployment.
	ModelName() string
}

// CompletionRequest is a single-turn completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int // 0 leaves the provider default
}
