// Package hub fans findings out to live subscribers (websocket clients).
package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aholston/watchdogai/internal/model"
)

const subscriberBuffer = 256

// Hub broadcasts findings to all subscribers as they are produced.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan model.Finding]bool
	dropped     atomic.Int64
	closed      bool
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{subscribers: make(map[chan model.Finding]bool)}
}

// Subscribe returns a buffered channel that receives every broadcast finding.
// The caller must Unsubscribe when done or the channel leaks.
func (h *Hub) Subscribe() chan model.Finding {
	ch := make(chan model.Finding, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		close(ch)
	} else {
		h.subscribers[ch] = true
	}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(ch chan model.Finding) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[ch] {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// Broadcast sends a finding to every subscriber. A subscriber with a full
// channel misses the finding rather than blocking the pipeline.
func (h *Hub) Broadcast(f model.Finding) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- f:
		default:
			slog.Warn("finding dropped for slow subscriber", "total_dropped", h.dropped.Add(1))
		}
	}
}

// Dropped returns the total number of findings dropped on full channels.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close closes every subscriber channel. Broadcast after Close is a no-op
// and later Subscribe calls return closed channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan model.Finding]bool)
	h.closed = true
}
