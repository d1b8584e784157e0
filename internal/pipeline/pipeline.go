// Package pipeline wires the normalizer, indexer, retriever, extractor, and
// aggregator into the operations the CLI and HTTP front ends expose.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aholston/watchdogai/internal/embed"
	"github.com/aholston/watchdogai/internal/engine/aggregate"
	"github.com/aholston/watchdogai/internal/engine/extractor"
	"github.com/aholston/watchdogai/internal/engine/indexer"
	"github.com/aholston/watchdogai/internal/engine/retriever"
	"github.com/aholston/watchdogai/internal/findings"
	"github.com/aholston/watchdogai/internal/llm"
	"github.com/aholston/watchdogai/internal/model"
	"github.com/aholston/watchdogai/internal/normalize"
	"github.com/aholston/watchdogai/internal/vectorstore"
)

// IngestResult summarizes one ingest run.
type IngestResult struct {
	SourceFile string          `json:"source_file"`
	TotalLogs  int             `json:"total_logs"`
	Indexed    indexer.Result  `json:"indexed"`
	Findings   []model.Finding `json:"findings"`
}

// Status describes the running system.
type Status struct {
	LLMProvider   string `json:"llm_provider"`
	LLMModel      string `json:"llm_model"`
	EmbedProvider string `json:"embed_provider"`
	TotalLogs     int    `json:"total_logs"`
	StoreKind     string `json:"store_kind"`
	TotalFindings int    `json:"total_findings"`
}

// Options identifies the configured providers for status reporting and tunes
// retrieval.
type Options struct {
	LLMProvider    string
	EmbedProvider  string
	StoreKind      string
	RetrievalLimit int
}

// Pipeline is the log intelligence core. One instance serves many concurrent
// operations: the store and finding log carry their own write locks.
type Pipeline struct {
	normalizer *normalize.Normalizer
	indexer    *indexer.Indexer
	retriever  *retriever.Retriever
	extractor  *extractor.Extractor
	inferrer   llm.Inferrer
	store      vectorstore.Store
	log        *findings.Log
	opts       Options

	// onFinding, when set, observes every persisted finding (live stream).
	onFinding func(model.Finding)
}

// New assembles a Pipeline from its components.
func New(
	norm *normalize.Normalizer,
	emb embed.Embedder,
	inf llm.Inferrer,
	store vectorstore.Store,
	log *findings.Log,
	extractorCfg extractor.Config,
	opts Options,
) *Pipeline {
	if opts.RetrievalLimit <= 0 {
		opts.RetrievalLimit = 5
	}
	return &Pipeline{
		normalizer: norm,
		indexer:    indexer.New(emb, store),
		retriever:  retriever.New(emb, store),
		extractor:  extractor.New(inf, extractorCfg),
		inferrer:   inf,
		store:      store,
		log:        log,
		opts:       opts,
	}
}

// OnFinding registers an observer called for each finding as it is persisted.
func (p *Pipeline) OnFinding(fn func(model.Finding)) {
	p.onFinding = fn
}

// Ingest runs the full pipeline over one uploaded file: normalize, index,
// extract, persist. A FormatError aborts before any writes; embedding
// failures shrink index coverage without aborting.
func (p *Pipeline) Ingest(ctx context.Context, content []byte, sourceFile, formatHint string) (IngestResult, error) {
	format, err := normalize.SniffFormat(formatHint, sourceFile)
	if err != nil {
		return IngestResult{}, err
	}
	records, err := p.normalizer.Normalize(content, sourceFile, format)
	if err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{SourceFile: sourceFile, TotalLogs: len(records)}
	if len(records) == 0 {
		result.Findings = []model.Finding{}
		return result, nil
	}

	result.Indexed, err = p.indexer.Index(ctx, records)
	if err != nil {
		return result, fmt.Errorf("ingest %s: index: %w", sourceFile, err)
	}
	if n := len(result.Indexed.Failed); n > 0 {
		slog.Warn("records excluded from index", "source", sourceFile, "failed", n)
	}

	found, err := p.extractor.Extract(ctx, records)
	if err != nil {
		return result, fmt.Errorf("ingest %s: extract: %w", sourceFile, err)
	}
	if err := p.persistFindings(found); err != nil {
		return result, err
	}

	result.Findings = found
	if result.Findings == nil {
		result.Findings = []model.Finding{}
	}
	slog.Info("ingest complete",
		"source", sourceFile,
		"records", len(records),
		"inserted", result.Indexed.Inserted,
		"updated", result.Indexed.Updated,
		"findings", len(found))
	return result, nil
}

// Search returns stored records ranked by similarity to the query.
func (p *Pipeline) Search(ctx context.Context, query string, limit int) ([]retriever.Match, error) {
	if limit <= 0 {
		limit = p.opts.RetrievalLimit
	}
	return p.retriever.Query(ctx, query, limit)
}

// AnalyzeQuery retrieves the top-K records for a question and extracts one
// representative finding, which is persisted like any other.
func (p *Pipeline) AnalyzeQuery(ctx context.Context, query, analysisContext string) (model.Finding, error) {
	if analysisContext == "" {
		analysisContext = "General log analysis"
	}

	matches, err := p.retriever.Query(ctx, query, p.opts.RetrievalLimit)
	if err != nil {
		return model.Finding{}, err
	}

	scored := make([]extractor.ScoredRecord, len(matches))
	for i, m := range matches {
		scored[i] = extractor.Scored(m.Record, m.Similarity)
	}

	finding, err := p.extractor.ExtractOne(ctx, query, analysisContext, scored)
	if err != nil {
		return model.Finding{}, err
	}
	if err := p.persistFindings([]model.Finding{finding}); err != nil {
		return model.Finding{}, err
	}
	return finding, nil
}

// Report aggregates every finding accumulated so far.
func (p *Pipeline) Report(_ context.Context) model.Report {
	return aggregate.Build(p.log.All(), p.store.Count(), time.Now().UTC())
}

// Reset clears the vector store and the accumulated findings.
func (p *Pipeline) Reset() error {
	if err := p.store.Reset(); err != nil {
		return err
	}
	return p.log.Reset()
}

// Status reports the configured providers and store size.
func (p *Pipeline) Status() Status {
	return Status{
		LLMProvider:   p.opts.LLMProvider,
		LLMModel:      p.inferrer.Model(),
		EmbedProvider: p.opts.EmbedProvider,
		TotalLogs:     p.store.Count(),
		StoreKind:     p.opts.StoreKind,
		TotalFindings: p.log.Len(),
	}
}

func (p *Pipeline) persistFindings(found []model.Finding) error {
	if len(found) == 0 {
		return nil
	}
	if err := p.log.Append(found...); err != nil {
		return err
	}
	if p.onFinding != nil {
		for _, f := range found {
			p.onFinding(f)
		}
	}
	return nil
}
