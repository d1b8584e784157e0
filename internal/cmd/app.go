package cmd

import (
	"fmt"
	"os"

	"github.com/aholston/watchdogai/internal/config"
	"github.com/aholston/watchdogai/internal/embed"
	"github.com/aholston/watchdogai/internal/engine/extractor"
	"github.com/aholston/watchdogai/internal/findings"
	"github.com/aholston/watchdogai/internal/llm"
	"github.com/aholston/watchdogai/internal/logging"
	"github.com/aholston/watchdogai/internal/normalize"
	"github.com/aholston/watchdogai/internal/pipeline"
	"github.com/aholston/watchdogai/internal/vectorstore"
)

// app bundles the wired pipeline and the resources it owns.
type app struct {
	cfg   config.Config
	pipe  *pipeline.Pipeline
	emb   embed.Embedder
	store *vectorstore.FileStore
}

// newApp loads configuration and wires the full pipeline. jsonLogs selects
// the slog output format (JSON for server mode, text for CLI commands).
func newApp(jsonLogs bool) (*app, error) {
	cfg, err := config.Load(config.NewViper(cfgFile))
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel, jsonLogs)

	if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	emb, err := embed.New(embed.Config{
		Provider: cfg.Embed.Provider,
		APIKey:   cfg.Embed.APIKey,
		BaseURL:  cfg.Embed.BaseURL,
		Model:    cfg.Embed.Model,
		Dim:      cfg.Embed.Dim,
	})
	if err != nil {
		return nil, err
	}

	inf, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		emb.Close()
		return nil, err
	}

	store, err := vectorstore.OpenFile(cfg.Store.VectorPath())
	if err != nil {
		emb.Close()
		return nil, err
	}

	log, err := findings.Open(cfg.Store.FindingsPath())
	if err != nil {
		store.Close()
		emb.Close()
		return nil, err
	}

	norm := normalize.New(normalize.Options{
		JoinContinuations: true,
		MaxRecords:        cfg.Analysis.MaxRecords,
	})

	pipe := pipeline.New(norm, emb, inf, store, log,
		extractor.Config{MaxBatchChars: cfg.Analysis.MaxBatchChars},
		pipeline.Options{
			LLMProvider:    cfg.LLM.Provider,
			EmbedProvider:  cfg.Embed.Provider,
			StoreKind:      "file",
			RetrievalLimit: cfg.Analysis.RetrievalLimit,
		})

	return &app{cfg: cfg, pipe: pipe, emb: emb, store: store}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.emb.Close()
}
