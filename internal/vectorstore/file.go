package vectorstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Snapshot file layout: magic header followed by a zstd-compressed JSON
// array of entries. Written atomically via temp file + rename, so a crashed
// write never corrupts the previous snapshot.
var magicHeader = []byte("WDVEC1")

// FileStore is an in-memory vector index snapshotted to a single compressed
// file. Writers take the exclusive lock for the whole upsert+persist phase;
// reads are lock-shared and may run concurrently with each other.
type FileStore struct {
	path string

	mu      sync.RWMutex
	entries map[string]Entry
}

// OpenFile loads (or initializes) a FileStore at path.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: make(map[string]Entry),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(raw, magicHeader) {
		return fmt.Errorf("bad snapshot header in %s", s.path)
	}

	dec, err := zstd.NewReader(bytes.NewReader(raw[len(magicHeader):]))
	if err != nil {
		return err
	}
	defer dec.Close()

	var entries []Entry
	if err := json.NewDecoder(dec).Decode(&entries); err != nil {
		return err
	}
	for _, e := range entries {
		s.entries[e.Record.ID] = e
	}
	return nil
}

// Upsert inserts or overwrites entries and persists the snapshot before
// returning. Each call is independently atomic.
func (s *FileStore) Upsert(entries []Entry) (inserted, updated int, err error) {
	if len(entries) == 0 {
		return 0, 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if _, exists := s.entries[e.Record.ID]; exists {
			updated++
		} else {
			inserted++
		}
		s.entries[e.Record.ID] = e
	}

	if err := s.persistLocked(); err != nil {
		return inserted, updated, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return inserted, updated, nil
}

func (s *FileStore) persistLocked() error {
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	// Stable file content for identical stores.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Record.ID < entries[j].Record.ID
	})

	var buf bytes.Buffer
	buf.Write(magicHeader)
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(entries); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Nearest scans all entries and returns the k most similar, highest cosine
// similarity first.
func (s *FileStore) Nearest(vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.entries))
	for _, e := range s.entries {
		hits = append(hits, Hit{Entry: e, Score: cosine(vector, e.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Entry.Record.ID < hits[j].Entry.Record.ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get looks up a single entry by record ID.
func (s *FileStore) Get(recordID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[recordID]
	return e, ok
}

// Count returns the number of stored entries.
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset removes every entry and persists the empty snapshot.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op for FileStore; every upsert already persisted.
func (s *FileStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
