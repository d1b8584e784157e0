package llm

import (
	"context"
	"fmt"

	"github.com/aholston/watchdogai/internal/httpx"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-haiku-20240307"
	defaultMaxTokens        = 1024
	anthropicVersion        = "2023-06-01"
)

// anthropicClient calls the Anthropic Messages API.
type anthropicClient struct {
	client      *httpx.Client
	model       string
	maxTokens   int
	temperature float64
}

func newAnthropic(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: anthropic provider requires an API key")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &anthropicClient{
		client: httpx.New(baseURL,
			httpx.WithHeader("x-api-key", cfg.APIKey),
			httpx.WithHeader("anthropic-version", anthropicVersion),
		),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *anthropicClient) Infer(ctx context.Context, prompt string) (string, error) {
	req := messagesRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	}

	var resp messagesResponse
	if err := a.client.PostJSON(ctx, "/v1/messages", req, &resp); err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("llm: response contained no text block")
}

func (a *anthropicClient) Model() string { return a.model }
