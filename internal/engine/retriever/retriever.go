// Package retriever answers free-text queries with the most similar stored
// log records.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/aholston/watchdogai/internal/embed"
	"github.com/aholston/watchdogai/internal/model"
	"github.com/aholston/watchdogai/internal/vectorstore"
)

// Match is one retrieved record with its similarity in [0,1].
type Match struct {
	Record     model.LogRecord `json:"record"`
	Similarity float64         `json:"similarity"`
}

// Retriever embeds queries and ranks stored records against them.
type Retriever struct {
	embedder embed.Embedder
	store    vectorstore.Store
}

// New creates a Retriever over the given embedder and store.
func New(emb embed.Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{embedder: emb, store: store}
}

// Query returns up to limit records ranked by descending similarity, ties
// broken by earlier record timestamp. An empty store yields an empty slice.
// The query text is embedded exactly once.
func (r *Retriever) Query(ctx context.Context, text string, limit int) ([]Match, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("retriever: limit must be positive, got %d", limit)
	}

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}

	hits, err := r.store.Nearest(vec, limit)
	if err != nil {
		return nil, fmt.Errorf("retriever: %w", err)
	}

	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = Match{
			Record:     h.Entry.Record,
			Similarity: normalizeSimilarity(h.Score),
		}
	}

	// The store ranks by raw score; re-rank on the normalized scale with the
	// timestamp tie-break so callers see one consistent ordering.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		ti, tj := matches[i].Record.Timestamp, matches[j].Record.Timestamp
		switch {
		case ti.IsZero():
			return false
		case tj.IsZero():
			return true
		default:
			return ti.Before(tj)
		}
	})
	return matches, nil
}

// normalizeSimilarity maps cosine similarity from [-1,1] onto [0,1] and
// clamps, so downstream consumers see one scale regardless of store metric.
func normalizeSimilarity(cos float64) float64 {
	s := (cos + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
