package vectorstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aholston/watchdogai/internal/model"
)

func entry(id string, vec []float32) Entry {
	return Entry{
		Record: model.LogRecord{
			ID:         id,
			RawText:    "text " + id,
			SourceFile: "test.log",
			Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Vector: vec,
	}
}

func TestUpsertInsertsAndUpdates(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "vec.db"))
	if err != nil {
		t.Fatal(err)
	}
	ins, upd, err := s.Upsert([]Entry{entry("a", []float32{1, 0}), entry("b", []float32{0, 1})})
	if err != nil {
		t.Fatal(err)
	}
	if ins != 2 || upd != 0 {
		t.Fatalf("first upsert: inserted=%d updated=%d", ins, upd)
	}

	ins, upd, err = s.Upsert([]Entry{entry("a", []float32{1, 1})})
	if err != nil {
		t.Fatal(err)
	}
	if ins != 0 || upd != 1 {
		t.Fatalf("re-upsert: inserted=%d updated=%d", ins, upd)
	}
	if s.Count() != 2 {
		t.Fatalf("count = %d after idempotent upsert, want 2", s.Count())
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.db")
	s, _ := OpenFile(path)
	if _, _, err := s.Upsert([]Entry{entry("a", []float32{1, 0}), entry("b", []float32{0, 1})}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s2.Count() != 2 {
		t.Fatalf("count after reopen = %d, want 2", s2.Count())
	}
	e, ok := s2.Get("a")
	if !ok {
		t.Fatal("entry a missing after reopen")
	}
	if e.Record.RawText != "text a" {
		t.Fatalf("record text lost: %q", e.Record.RawText)
	}
	if e.Record.Timestamp.IsZero() {
		t.Fatal("record timestamp lost across reopen")
	}
}

func TestResetClearsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.db")
	s, _ := OpenFile(path)
	if _, _, err := s.Upsert([]Entry{entry("a", []float32{1, 0})}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d after reset, want 0", s.Count())
	}

	s2, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s2.Count() != 0 {
		t.Fatalf("reset did not persist: count = %d after reopen", s2.Count())
	}
}

func TestNearestRanksBySimilarity(t *testing.T) {
	s, _ := OpenFile(filepath.Join(t.TempDir(), "vec.db"))
	s.Upsert([]Entry{
		entry("exact", []float32{1, 0}),
		entry("close", []float32{0.9, 0.1}),
		entry("far", []float32{0, 1}),
	})

	hits, err := s.Nearest([]float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Entry.Record.ID != "exact" || hits[1].Entry.Record.ID != "close" {
		t.Fatalf("wrong ranking: %s, %s", hits[0].Entry.Record.ID, hits[1].Entry.Record.ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatal("scores not descending")
	}
}

func TestNearestEmptyStore(t *testing.T) {
	s, _ := OpenFile(filepath.Join(t.TempDir(), "vec.db"))
	hits, err := s.Nearest([]float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty result, got %d hits", len(hits))
	}
}

func TestNearestDeterministicOrder(t *testing.T) {
	s, _ := OpenFile(filepath.Join(t.TempDir(), "vec.db"))
	s.Upsert([]Entry{
		entry("b", []float32{1, 0}),
		entry("a", []float32{1, 0}),
		entry("c", []float32{1, 0}),
	})
	first, _ := s.Nearest([]float32{1, 0}, 3)
	second, _ := s.Nearest([]float32{1, 0}, 3)
	for i := range first {
		if first[i].Entry.Record.ID != second[i].Entry.Record.ID {
			t.Fatalf("order differs between identical queries at %d", i)
		}
	}
}

func TestOpenFileRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.db")
	if err := os.WriteFile(path, []byte("not a snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}
