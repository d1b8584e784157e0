package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// LogRecord is one normalized unit of log content. Records are immutable once
// created; ID is a deterministic hash so re-ingesting the same file produces
// the same records.
type LogRecord struct {
	ID         string    `json:"id"`
	RawText    string    `json:"raw_text"`
	Timestamp  time.Time `json:"timestamp,omitempty"` // zero when no timestamp was recognized
	SourceFile string    `json:"source_file"`
	LineOffset int       `json:"line_offset"`
}

// RecordID computes the stable identifier for a log record:
// a truncated SHA-256 over (source file, line offset, raw text).
func RecordID(sourceFile string, lineOffset int, rawText string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", sourceFile, lineOffset, rawText)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// HasTimestamp reports whether a timestamp was parsed out of the raw text.
func (r LogRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}
