// Package vectorstore persists embedding vectors keyed by log record ID and
// answers nearest-neighbor queries over them.
package vectorstore

import (
	"errors"

	"github.com/aholston/watchdogai/internal/model"
)

// ErrUnavailable marks the store as unusable for the current pipeline run.
var ErrUnavailable = errors.New("vectorstore: store unavailable")

// Entry is one stored embedding plus the record it was computed from. The
// store owns entries exclusively; there is at most one entry per record ID.
type Entry struct {
	Record model.LogRecord `json:"record"`
	Vector []float32       `json:"vector"`
}

// Hit is a nearest-neighbor match with its raw cosine similarity in [-1,1].
type Hit struct {
	Entry Entry
	Score float64
}

// Store is the persistent vector index. Upsert overwrites entries with the
// same record ID, so re-ingestion never accumulates duplicates.
type Store interface {
	// Upsert inserts or overwrites entries, reporting how many were new.
	Upsert(entries []Entry) (inserted, updated int, err error)
	// Nearest returns up to k entries ranked by cosine similarity to vector,
	// highest first. An empty store yields an empty slice, not an error.
	Nearest(vector []float32, k int) ([]Hit, error)
	// Get looks up a single entry by record ID.
	Get(recordID string) (Entry, bool)
	Count() int
	// Reset removes every entry and persists the empty state.
	Reset() error
	Close() error
}
