// Package findings keeps the durable accumulation of every finding produced
// so far. It backs report generation and survives process restarts. The log
// starts empty, is appended to by each extraction, and can be reset.
package findings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/aholston/watchdogai/internal/model"
)

var magicHeader = []byte("WDFND1")

// Log is a persistent append-only finding store. All mutations take the
// exclusive lock and persist before returning, mirroring the vector store's
// write discipline.
type Log struct {
	path string

	mu   sync.RWMutex
	list []model.Finding
}

// Open loads (or initializes) a finding log at path.
func Open(path string) (*Log, error) {
	l := &Log{path: path}
	if err := l.load(); err != nil {
		return nil, fmt.Errorf("findings: %w", err)
	}
	return l, nil
}

func (l *Log) load() error {
	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(raw, magicHeader) {
		return fmt.Errorf("bad snapshot header in %s", l.path)
	}

	dec, err := zstd.NewReader(bytes.NewReader(raw[len(magicHeader):]))
	if err != nil {
		return err
	}
	defer dec.Close()

	return json.NewDecoder(dec).Decode(&l.list)
}

// Append adds findings to the log and persists.
func (l *Log) Append(findings ...model.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.list = append(l.list, findings...)
	if err := l.persistLocked(); err != nil {
		return fmt.Errorf("findings: %w", err)
	}
	return nil
}

// All returns every finding in insertion order. The returned slice is a copy.
func (l *Log) All() []model.Finding {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Finding, len(l.list))
	copy(out, l.list)
	return out
}

// Len returns the number of persisted findings.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.list)
}

// Reset empties the log and persists the empty state.
func (l *Log) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.list = nil
	if err := l.persistLocked(); err != nil {
		return fmt.Errorf("findings: %w", err)
	}
	return nil
}

func (l *Log) persistLocked() error {
	var buf bytes.Buffer
	buf.Write(magicHeader)
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(l.list); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}
