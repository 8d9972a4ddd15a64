package completion

import (
	"context"

	"bloxmate/internal/port"
)

// MockClient returns a fixed reply; it backs the "mock" provider for offline runs.
type MockClient struct {
	reply string
}

func NewMockClient(reply string) *MockClient {
	if reply == "" {
		reply = "This is a mock response."
	}
	return &MockClient{reply: reply}
}

func (c *MockClient) Complete(_ context.Context, _ port.CompletionRequest) (string, error) {
	return c.reply, nil
}

func (c *MockClient) ModelName() string {
	return "mock"
}
