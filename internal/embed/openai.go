package embed

import (
	"context"
	"fmt"

	"github.com/aholston/watchdogai/internal/httpx"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "text-embedding-3-small"
	openAIEmbedDim       = 1536
)

// openAIEmbedder calls an OpenAI-compatible /v1/embeddings endpoint.
type openAIEmbedder struct {
	client *httpx.Client
	model  string
}

func newOpenAI(cfg Config) (*openAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embed: openai provider requires an API key")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIEmbedder{
		client: httpx.New(baseURL, httpx.WithHeader("Authorization", "Bearer "+cfg.APIKey)),
		model:  model,
	}, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingsResponse
	err := e.client.PostJSON(ctx, "/v1/embeddings", embeddingsRequest{Model: e.model, Input: texts}, &resp)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	results := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(results) {
			return nil, fmt.Errorf("embed: response index %d out of range", d.Index)
		}
		results[d.Index] = d.Embedding
	}
	return results, nil
}

func (e *openAIEmbedder) Dim() int { return openAIEmbedDim }

func (e *openAIEmbedder) Close() error { return nil }
