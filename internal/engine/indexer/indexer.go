// Package indexer converts log records into vectors and upserts them into
// the vector store. Embedding failures are per-record and never abort the
// whole ingest.
package indexer

import (
	"context"
	"log/slog"

	"github.com/aholston/watchdogai/internal/embed"
	"github.com/aholston/watchdogai/internal/model"
	"github.com/aholston/watchdogai/internal/vectorstore"
)

const defaultBatchSize = 64

// FailedRecord reports one record excluded from the index after retries.
type FailedRecord struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

// Result summarizes an indexing run.
type Result struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Failed   []FailedRecord `json:"failed,omitempty"`
}

// Indexer embeds records and writes them to the store.
type Indexer struct {
	embedder  embed.Embedder
	store     vectorstore.Store
	batchSize int
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithBatchSize sets how many records are embedded per capability call.
func WithBatchSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// New creates an Indexer over the given embedder and store.
func New(emb embed.Embedder, store vectorstore.Store, opts ...Option) *Indexer {
	ix := &Indexer{
		embedder:  emb,
		store:     store,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index embeds records in batches and upserts them keyed by record ID.
// Upserts are idempotent: re-indexing an already-present ID overwrites.
// A store error is fatal; embedding errors only shrink coverage.
func (ix *Indexer) Index(ctx context.Context, records []model.LogRecord) (Result, error) {
	var result Result
	if len(records) == 0 {
		return result, nil
	}

	for start := 0; start < len(records); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		entries, failed := ix.embedBatch(ctx, batch)
		result.Failed = append(result.Failed, failed...)

		if len(entries) == 0 {
			continue
		}
		inserted, updated, err := ix.store.Upsert(entries)
		result.Inserted += inserted
		result.Updated += updated
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// embedBatch embeds a batch in one capability call, falling back to
// per-record calls when the batch fails so one poisoned record cannot take
// its neighbors down with it. The provider retries transient failures
// internally; records that still fail are reported, not raised.
func (ix *Indexer) embedBatch(ctx context.Context, batch []model.LogRecord) ([]vectorstore.Entry, []FailedRecord) {
	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.RawText
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, texts)
	if err == nil {
		entries := make([]vectorstore.Entry, len(batch))
		for i, r := range batch {
			entries[i] = vectorstore.Entry{Record: r, Vector: vecs[i]}
		}
		return entries, nil
	}

	slog.Warn("batch embedding failed, retrying records individually",
		"batch_size", len(batch), "error", err)

	var entries []vectorstore.Entry
	var failed []FailedRecord
	for _, r := range batch {
		vec, err := ix.embedder.Embed(ctx, r.RawText)
		if err != nil {
			failed = append(failed, FailedRecord{RecordID: r.ID, Reason: err.Error()})
			continue
		}
		entries = append(entries, vectorstore.Entry{Record: r, Vector: vec})
	}
	return entries, failed
}
