// Package embed provides the text-embedding capability: providers map log
// text to fixed-length float vectors for similarity comparison.
package embed

import (
	"context"
	"fmt"
)

// Embedder produces vector embeddings from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dim returns the embedding dimensionality.
	Dim() int
	Close() error
}

// Config selects and tunes an embedding provider.
type Config struct {
	Provider string // "openai" or "local"
	APIKey   string
	BaseURL  string // OpenAI-compatible endpoint; default https://api.openai.com
	Model    string // e.g. "text-embedding-3-small"
	Dim      int    // local provider dimensionality
}

// New creates the configured embedding provider.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAI(cfg)
	case "local", "":
		return newLocal(cfg.Dim), nil
	default:
		return nil, fmt.Errorf("embed: unknown provider %q", cfg.Provider)
	}
}
