// Package normalize splits raw uploaded content into discrete log records
// with stable identifiers. It is a pure transformation: no side effects, and
// degenerate input yields an empty slice rather than an error.
package normalize

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/valyala/fastjson"
	"golang.org/x/text/unicode/norm"

	"github.com/aholston/watchdogai/internal/model"
)

// Format identifies how raw content is split into records.
type Format string

const (
	FormatPlain Format = "plain"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// ErrUnknownFormat is returned when the declared format is unrecognized.
// The ingest is aborted before any writes.
var ErrUnknownFormat = errors.New("normalize: unknown log format")

// Options tunes normalizer behavior.
type Options struct {
	// JoinContinuations appends lines that do not begin with a recognized
	// timestamp (stack-trace continuations) onto the previous record.
	JoinContinuations bool
	// MaxRecords caps records produced per call; 0 means unlimited.
	MaxRecords int
}

// Normalizer converts raw bytes into ordered LogRecord slices.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer with the given options.
func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// SniffFormat resolves a format hint ("plain", "jsonl", "csv", a file
// extension, or "") against the source file name. An empty hint falls back to
// the file extension, and failing that to plain text.
func SniffFormat(hint, sourceFile string) (Format, error) {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hint), "."))
	if h == "" {
		h = strings.TrimPrefix(strings.ToLower(filepath.Ext(sourceFile)), ".")
	}
	switch h {
	case "", "plain", "text", "txt", "log":
		return FormatPlain, nil
	case "jsonl", "ndjson", "json":
		return FormatJSONL, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, hint)
	}
}

// Normalize splits content into records using the given format.
func (n *Normalizer) Normalize(content []byte, sourceFile string, format Format) ([]model.LogRecord, error) {
	switch format {
	case FormatPlain:
		return n.normalizePlain(content, sourceFile), nil
	case FormatJSONL:
		return n.normalizeJSONL(content, sourceFile), nil
	case FormatCSV:
		return n.normalizeCSV(content, sourceFile), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

func (n *Normalizer) normalizePlain(content []byte, sourceFile string) []model.LogRecord {
	var records []model.LogRecord
	offset := 0
	for _, rawLine := range bytes.Split(content, []byte("\n")) {
		offset++
		line := strings.TrimRight(string(rawLine), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		ts, hasTS := extractTimestamp(line)

		// Continuation lines (no timestamp, indented or obviously part of a
		// stack trace) extend the previous record.
		if n.opts.JoinContinuations && len(records) > 0 && !hasTS && looksLikeContinuation(line) {
			prev := &records[len(records)-1]
			prev.RawText = prev.RawText + "\n" + canonical(line)
			prev.ID = model.RecordID(sourceFile, prev.LineOffset, prev.RawText)
			continue
		}

		text := canonical(line)
		records = append(records, model.LogRecord{
			ID:         model.RecordID(sourceFile, offset, text),
			RawText:    text,
			Timestamp:  ts,
			SourceFile: sourceFile,
			LineOffset: offset,
		})
		if n.capped(len(records)) {
			break
		}
	}
	return records
}

func (n *Normalizer) normalizeJSONL(content []byte, sourceFile string) []model.LogRecord {
	var p fastjson.Parser
	var records []model.LogRecord
	offset := 0
	for _, rawLine := range bytes.Split(content, []byte("\n")) {
		offset++
		line := strings.TrimSpace(string(rawLine))
		if line == "" {
			continue
		}

		var ts time.Time
		text := canonical(line)
		if v, err := p.Parse(line); err == nil && v.Type() == fastjson.TypeObject {
			ts = jsonTimestamp(v)
		}
		// A line that fails to parse is kept verbatim rather than failing
		// the whole ingest.

		records = append(records, model.LogRecord{
			ID:         model.RecordID(sourceFile, offset, text),
			RawText:    text,
			Timestamp:  ts,
			SourceFile: sourceFile,
			LineOffset: offset,
		})
		if n.capped(len(records)) {
			break
		}
	}
	return records
}

func (n *Normalizer) normalizeCSV(content []byte, sourceFile string) []model.LogRecord {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil
	}

	var records []model.LogRecord
	offset := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		offset++
		if err != nil {
			continue
		}

		var parts []string
		var ts time.Time
		for i, val := range row {
			name := fmt.Sprintf("col%d", i)
			if i < len(header) {
				name = header[i]
			}
			if ts.IsZero() && isTimeColumn(name) {
				if t, ok := parseAnyTimestamp(val); ok {
					ts = t
				}
			}
			parts = append(parts, name+"="+val)
		}
		text := canonical(strings.Join(parts, " | "))

		records = append(records, model.LogRecord{
			ID:         model.RecordID(sourceFile, offset, text),
			RawText:    text,
			Timestamp:  ts,
			SourceFile: sourceFile,
			LineOffset: offset,
		})
		if n.capped(len(records)) {
			break
		}
	}
	return records
}

func (n *Normalizer) capped(count int) bool {
	return n.opts.MaxRecords > 0 && count >= n.opts.MaxRecords
}

// canonical applies NFC normalization so records that differ only in unicode
// form hash to the same ID and embed to the same vector.
func canonical(s string) string {
	return norm.NFC.String(s)
}

var (
	// Jan  2 15:04:05 (classic syslog prefix)
	syslogRe = regexp.MustCompile(`^([A-Z][a-z]{2})\s+(\d{1,2})\s+(\d{2}:\d{2}:\d{2})`)
	// 2006-01-02 15:04:05 or 2006-01-02T15:04:05 with optional zone/fraction
	isoRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)`)
	// [02/Jan/2006:15:04:05 -0700] anywhere early in the line (access logs)
	clfRe = regexp.MustCompile(`\[(\d{2}/[A-Z][a-z]{2}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})\]`)
)

// extractTimestamp recognizes common log timestamp prefixes. Syslog lines
// carry no year; the current year is assumed.
func extractTimestamp(line string) (time.Time, bool) {
	if m := isoRe.FindStringSubmatch(line); m != nil {
		if t, ok := parseAnyTimestamp(m[1] + "T" + strings.Replace(m[2], " ", "", -1)); ok {
			return t, true
		}
	}
	if m := syslogRe.FindStringSubmatch(line); m != nil {
		stamp := fmt.Sprintf("%s %s %s %d", m[1], m[2], m[3], time.Now().Year())
		if t, err := time.Parse("Jan 2 15:04:05 2006", stamp); err == nil {
			return t, true
		}
	}
	if m := clfRe.FindStringSubmatch(line); m != nil {
		if t, err := time.Parse("02/Jan/2006:15:04:05 -0700", m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseAnyTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isTimeColumn(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "time", "timestamp", "ts", "date", "datetime", "@timestamp":
		return true
	}
	return false
}

func looksLikeContinuation(line string) bool {
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		return true
	}
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "at ") || strings.HasPrefix(trimmed, "Caused by:")
}

// jsonTimestamp pulls a timestamp out of common JSON log fields.
func jsonTimestamp(v *fastjson.Value) time.Time {
	for _, key := range []string{"timestamp", "time", "ts", "@timestamp", "date"} {
		f := v.Get(key)
		if f == nil {
			continue
		}
		switch f.Type() {
		case fastjson.TypeString:
			if t, ok := parseAnyTimestamp(string(f.GetStringBytes())); ok {
				return t
			}
		case fastjson.TypeNumber:
			// Unix seconds or milliseconds.
			n := f.GetInt64()
			if n > 1e12 {
				return time.UnixMilli(n).UTC()
			}
			if n > 1e9 {
				return time.Unix(n, 0).UTC()
			}
		}
	}
	return time.Time{}
}
