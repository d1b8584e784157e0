// Package llm provides the natural-language inference capability: a
// single-shot, stateless prompt-to-text surface.
package llm

import (
	"context"
	"fmt"
)

// Inferrer maps a prompt to completion text. Calls are stateless; every
// prompt must carry all context the model needs.
type Inferrer interface {
	Infer(ctx context.Context, prompt string) (string, error)
	// Model identifies the backing model for status reporting.
	Model() string
}

// Config selects and tunes an inference provider.
type Config struct {
	Provider    string // "anthropic"
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// New creates the configured inference provider.
func New(cfg Config) (Inferrer, error) {
	switch cfg.Provider {
	case "anthropic", "":
		return newAnthropic(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
