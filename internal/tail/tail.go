// Package tail follows log files on disk and hands newly appended lines to
// an ingest callback in batches.
package tail

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultBatchLines    = 200
)

// Batch is a group of complete lines appended to one file since the last
// flush.
type Batch struct {
	SourceFile string
	Lines      []string
}

// Handler consumes a flushed batch. Returning an error logs the failure; the
// lines are not redelivered.
type Handler func(ctx context.Context, b Batch) error

// Option configures a Follower.
type Option func(*Follower)

// WithFlushInterval sets how often pending lines are flushed.
func WithFlushInterval(d time.Duration) Option {
	return func(f *Follower) {
		if d > 0 {
			f.flushInterval = d
		}
	}
}

// WithBatchLines flushes early once a file has this many pending lines.
func WithBatchLines(n int) Option {
	return func(f *Follower) {
		if n > 0 {
			f.batchLines = n
		}
	}
}

// FromStart reads existing file content on startup instead of only new
// appends.
func FromStart() Option {
	return func(f *Follower) { f.fromStart = true }
}

// Follower watches files with fsnotify and reads appended complete lines.
type Follower struct {
	paths         []string
	flushInterval time.Duration
	batchLines    int
	fromStart     bool

	mu      sync.Mutex
	files   map[string]*trackedFile
	pending map[string][]string
}

type trackedFile struct {
	file    *os.File
	partial string
}

// New creates a Follower over the given file paths.
func New(paths []string, opts ...Option) (*Follower, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("tail: no paths given")
	}
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("tail: %w", err)
		}
		abs[i] = a
	}

	f := &Follower{
		paths:         abs,
		flushInterval: defaultFlushInterval,
		batchLines:    defaultBatchLines,
		files:         make(map[string]*trackedFile),
		pending:       make(map[string][]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Run follows the files until the context is cancelled. Pending lines are
// flushed to the handler on the interval, on batch overflow, and once more
// at shutdown.
func (f *Follower) Run(ctx context.Context, handle Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tail: %w", err)
	}
	defer watcher.Close()

	// Watch parent directories so rotated files are seen when recreated.
	dirs := make(map[string]bool)
	for _, p := range f.paths {
		dir := filepath.Dir(p)
		if !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("tail: watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	for _, p := range f.paths {
		f.open(p)
		if f.fromStart {
			f.readNewLines(ctx, p, handle)
		}
	}

	ticker := time.NewTicker(f.flushInterval)
	defer ticker.Stop()

	wanted := make(map[string]bool, len(f.paths))
	for _, p := range f.paths {
		wanted[p] = true
	}

	for {
		select {
		case <-ctx.Done():
			f.flushAll(context.WithoutCancel(ctx), handle)
			f.closeAll()
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(ev.Name)
			if !wanted[path] {
				continue
			}
			switch {
			case ev.Op&fsnotify.Write != 0:
				f.readNewLines(ctx, path, handle)
			case ev.Op&fsnotify.Create != 0:
				// Rotation: the fresh file starts at offset zero.
				f.close(path)
				f.open(path)
				f.readNewLines(ctx, path, handle)
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				f.close(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)

		case <-ticker.C:
			f.flushAll(ctx, handle)
		}
	}
}

func (f *Follower) open(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.files[path]; ok {
		return
	}
	file, err := os.Open(path)
	if err != nil {
		slog.Warn("cannot open file", "path", path, "error", err)
		return
	}
	if !f.fromStart {
		file.Seek(0, io.SeekEnd)
	}
	f.files[path] = &trackedFile{file: file}
}

// readNewLines reads from the current offset to EOF, queues complete lines,
// and flushes if the batch bound is reached.
func (f *Follower) readNewLines(ctx context.Context, path string, handle Handler) {
	f.mu.Lock()
	tf, ok := f.files[path]
	if !ok {
		f.mu.Unlock()
		return
	}

	reader := bufio.NewReader(tf.file)
	for {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			// Incomplete trailing line waits for its newline.
			tf.partial += chunk
			break
		}
		line := tf.partial + chunk[:len(chunk)-1]
		tf.partial = ""
		if line != "" {
			f.pending[path] = append(f.pending[path], line)
		}
	}
	overflow := len(f.pending[path]) >= f.batchLines
	f.mu.Unlock()

	if overflow {
		f.flush(ctx, path, handle)
	}
}

func (f *Follower) flush(ctx context.Context, path string, handle Handler) {
	f.mu.Lock()
	lines := f.pending[path]
	delete(f.pending, path)
	f.mu.Unlock()

	if len(lines) == 0 {
		return
	}
	if err := handle(ctx, Batch{SourceFile: path, Lines: lines}); err != nil {
		slog.Error("batch handler failed", "path", path, "lines", len(lines), "error", err)
	}
}

func (f *Follower) flushAll(ctx context.Context, handle Handler) {
	f.mu.Lock()
	paths := make([]string, 0, len(f.pending))
	for p := range f.pending {
		paths = append(paths, p)
	}
	f.mu.Unlock()

	for _, p := range paths {
		f.flush(ctx, p, handle)
	}
}

func (f *Follower) close(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tf, ok := f.files[path]; ok {
		tf.file.Close()
		delete(f.files, path)
	}
}

func (f *Follower) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for path, tf := range f.files {
		tf.file.Close()
		delete(f.files, path)
	}
}
