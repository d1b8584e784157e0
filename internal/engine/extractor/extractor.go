// Package extractor turns batches of log records into structured findings by
// way of the inference capability.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aholston/watchdogai/internal/llm"
	"github.com/aholston/watchdogai/internal/model"
)

// ErrInferenceUnavailable means the inference capability failed for every
// retry attempt across every batch. Partial-batch failures never surface as
// an error, only as reduced finding coverage.
var ErrInferenceUnavailable = errors.New("extractor: inference capability unavailable")

const (
	defaultMaxBatchChars  = 6000
	defaultMaxRecordChars = 500
)

// Config tunes chunking behavior.
type Config struct {
	// MaxBatchChars bounds the record text included in one inference call.
	MaxBatchChars int
	// MaxRecordChars truncates individual record texts inside the prompt.
	MaxRecordChars int
}

func (c Config) withDefaults() Config {
	if c.MaxBatchChars <= 0 {
		c.MaxBatchChars = defaultMaxBatchChars
	}
	if c.MaxRecordChars <= 0 {
		c.MaxRecordChars = defaultMaxRecordChars
	}
	return c
}

// Extractor produces findings from log records.
type Extractor struct {
	inferrer llm.Inferrer
	cfg      Config
	now      func() time.Time
}

// New creates an Extractor over the given inference capability.
func New(inf llm.Inferrer, cfg Config) *Extractor {
	return &Extractor{
		inferrer: inf,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// Extract analyzes records in char-budgeted batches and returns the merged
// findings. A batch whose response cannot be parsed contributes zero
// findings; the call fails only when every batch's inference call failed.
func (e *Extractor) Extract(ctx context.Context, records []model.LogRecord) ([]model.Finding, error) {
	if len(records) == 0 {
		return nil, nil
	}

	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.ID] = true
	}

	batches := e.chunk(records)
	var all []model.Finding
	failedBatches := 0

	for i, batch := range batches {
		prompt := buildBatchPrompt(batch, e.cfg.MaxRecordChars)

		reply, err := e.inferrer.Infer(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failedBatches++
			slog.Warn("inference failed for batch", "batch", i, "records", len(batch), "error", err)
			continue
		}

		raws, err := parseFindings(reply)
		if err != nil {
			// Recoverable parse failure: zero findings for this batch.
			slog.Warn("unparseable inference response", "batch", i, "error", err)
			continue
		}
		for _, raw := range raws {
			all = append(all, toFinding(raw, known, e.now()))
		}
	}

	if failedBatches == len(batches) {
		return nil, fmt.Errorf("%w: all %d batches failed", ErrInferenceUnavailable, len(batches))
	}
	return mergeFindings(all), nil
}

// ScoredRecord pairs a record with its retrieval similarity for
// retrieval-augmented analysis.
type ScoredRecord struct {
	Record     model.LogRecord
	Similarity float64
}

// Scored builds a ScoredRecord for ExtractOne callers.
func Scored(r model.LogRecord, similarity float64) ScoredRecord {
	return ScoredRecord{Record: r, Similarity: similarity}
}

// ExtractOne analyzes a retrieved record set against a user question and
// returns a single representative finding. An unparseable response degrades
// to a conservative low-confidence finding rather than an error.
func (e *Extractor) ExtractOne(ctx context.Context, question, analysisContext string, matches []ScoredRecord) (model.Finding, error) {
	known := make(map[string]bool, len(matches))
	for _, m := range matches {
		known[m.Record.ID] = true
	}

	prompt := buildQueryPrompt(question, analysisContext, matches, e.cfg.MaxRecordChars)
	reply, err := e.inferrer.Infer(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return model.Finding{}, ctx.Err()
		}
		return model.Finding{}, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}

	raws, err := parseFindings(reply)
	if err != nil || len(raws) == 0 {
		slog.Warn("unparseable inference response for query analysis", "error", err)
		return toFinding(rawFinding{
			Category:       string(model.CategoryOther),
			Severity:       string(model.SeverityLow),
			Confidence:     0.1,
			Issue:          "Analysis response could not be interpreted",
			Recommendation: "Review the matched log records manually.",
		}, nil, e.now()), nil
	}

	// The prompt asks for exactly one object; take the first if the model
	// returned several.
	return toFinding(raws[0], known, e.now()), nil
}

// chunk groups records into batches bounded by the char budget. Every batch
// holds at least one record so oversized records still get analyzed.
func (e *Extractor) chunk(records []model.LogRecord) [][]model.LogRecord {
	var batches [][]model.LogRecord
	var current []model.LogRecord
	budget := 0

	for _, r := range records {
		cost := len(r.RawText)
		if cost > e.cfg.MaxRecordChars {
			cost = e.cfg.MaxRecordChars
		}
		if len(current) > 0 && budget+cost > e.cfg.MaxBatchChars {
			batches = append(batches, current)
			current = nil
			budget = 0
		}
		current = append(current, r)
		budget += cost
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
