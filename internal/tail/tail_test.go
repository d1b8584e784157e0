package tail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func appendTo(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func runFollower(t *testing.T, f *Follower) (chan Batch, context.CancelFunc) {
	t.Helper()
	batches := make(chan Batch, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx, func(_ context.Context, b Batch) error {
			batches <- b
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("follower did not stop")
		}
	})
	return batches, cancel
}

func waitBatch(t *testing.T, batches chan Batch) Batch {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(3 * time.Second):
		t.Fatal("no batch delivered")
		return Batch{}
	}
}

func TestAppendedLinesAreDelivered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	appendTo(t, path, "existing line\n")

	f, err := New([]string{path}, WithFlushInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches, _ := runFollower(t, f)

	// Only appends after startup are read.
	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "first new line\nsecond new line\n")

	b := waitBatch(t, batches)
	if b.SourceFile != path {
		t.Errorf("SourceFile = %q, want %q", b.SourceFile, path)
	}
	if len(b.Lines) != 2 || b.Lines[0] != "first new line" {
		t.Errorf("Lines = %q", b.Lines)
	}
}

func TestFromStartReadsExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	appendTo(t, path, "old one\nold two\n")

	f, err := New([]string{path}, FromStart(), WithFlushInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches, _ := runFollower(t, f)

	b := waitBatch(t, batches)
	if len(b.Lines) != 2 || b.Lines[1] != "old two" {
		t.Errorf("Lines = %q", b.Lines)
	}
}

func TestPartialLineWaitsForNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	appendTo(t, path, "")

	f, err := New([]string{path}, WithFlushInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches, _ := runFollower(t, f)

	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "half a line")

	select {
	case b := <-batches:
		t.Fatalf("incomplete line delivered: %q", b.Lines)
	case <-time.After(200 * time.Millisecond):
	}

	appendTo(t, path, " completed\n")
	b := waitBatch(t, batches)
	if len(b.Lines) != 1 || b.Lines[0] != "half a line completed" {
		t.Errorf("Lines = %q", b.Lines)
	}
}

func TestBatchOverflowFlushesEarly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	appendTo(t, path, "")

	f, err := New([]string{path}, WithBatchLines(2), WithFlushInterval(time.Minute))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches, _ := runFollower(t, f)

	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "a\nb\n")

	b := waitBatch(t, batches)
	if len(b.Lines) != 2 {
		t.Errorf("Lines = %q, want 2 lines before the interval", b.Lines)
	}
}

func TestNewRejectsEmptyPaths(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty path list")
	}
}
