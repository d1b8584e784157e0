package hub

import (
	"testing"
	"time"

	"github.com/aholston/watchdogai/internal/model"
)

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := New()
	a := h.Subscribe()
	b := h.Subscribe()

	f := model.Finding{ID: "f-1", Category: model.CategoryBruteForce}
	h.Broadcast(f)

	for _, ch := range []chan model.Finding{a, b} {
		select {
		case got := <-ch:
			if got.ID != "f-1" {
				t.Errorf("got finding %q, want f-1", got.ID)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive broadcast")
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := New()
	h.Subscribe() // never read

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			h.Broadcast(model.Finding{ID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on slow subscriber")
	}
	if h.Dropped() != 10 {
		t.Errorf("Dropped = %d, want 10", h.Dropped())
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}

	// Double unsubscribe must not panic.
	h.Unsubscribe(ch)
	h.Broadcast(model.Finding{ID: "y"})
}

func TestSubscribeAfterClose(t *testing.T) {
	h := New()
	h.Close()

	ch := h.Subscribe()
	if _, ok := <-ch; ok {
		t.Error("subscribe after Close returned an open channel")
	}
	h.Broadcast(model.Finding{ID: "z"}) // must not panic
}
