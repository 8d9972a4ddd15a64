package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"bloxmate/internal/port"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint,
// including Azure OpenAI deployments.
type OpenAIClient struct {
	endpoint string
	apiKey   string
	model    string
	azure    bool
	client   *http.Client

	mu    sync.Mutex
	stats Stats
}

// Stats tracks completion usage.
type Stats struct {
	TotalCalls        int
	TotalInputChars   int
	TotalOutputChars  int
	TotalInputTokens  int // estimated
	TotalOutputTokens int // estimated
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAzureClient targets {endpoint}/openai/deployments/{deployment}/chat/completions.
func NewAzureClient(apiKeyEnv, endpointEnv, deployment, apiVersion string, timeout time.Duration) (*OpenAIClient, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	endpoint := strings.TrimRight(os.Getenv(endpointEnv), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint not found in environment variable: %s", endpointEnv)
	}

	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		endpoint, url.PathEscape(deployment), url.QueryEscape(apiVersion))

	return &OpenAIClient{
		endpoint: u,
		apiKey:   apiKey,
		model:    deployment,
		azure:    true,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// NewOpenAIClient targets {baseURL}/chat/completions with bearer auth.
func NewOpenAIClient(apiKeyEnv, model, baseURL string, timeout time.Duration) (*OpenAIClient, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" && apiKeyEnv != "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	return &OpenAIClient{
		endpoint: strings.TrimRight(baseURL, "/") + "/chat/completions",
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Complete sends a system and user message and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body := chatRequest{
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if !c.azure {
		body.Model = c.model
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.azure {
		httpReq.Header.Set("api-key", c.apiKey)
	} else if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response (body: %s): %w", preview(respBody), err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	output := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	c.record(len(req.System)+len(req.User), len(output))
	return output, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}

// Stats returns usage statistics collected so far.
func (c *OpenAIClient) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *OpenAIClient) record(inputChars, outputChars int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalCalls++
	c.stats.TotalInputChars += inputChars
	c.stats.TotalOutputChars += outputChars
	// Rough token estimate: ~4 chars per token for English
	c.stats.TotalInputTokens += inputChars / 4
	c.stats.TotalOutputTokens += outputChars / 4
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
