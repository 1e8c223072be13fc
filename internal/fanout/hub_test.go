package fanout

import (
	"testing"
	"time"

	"github.com/snglth/rc-monitor/internal/duml"
)

func TestHub_Broadcast_DropDoesNotBlock(t *testing.T) {
	h := New()
	cl := &Client{Out: make(chan duml.Snapshot, 4), Closed: make(chan struct{})}
	h.Add(cl)
	defer h.Remove(cl)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		h.Broadcast(duml.Snapshot{FlightMode: duml.ModeSport})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Broadcast took too long: %s", elapsed)
	}
	if len(cl.Out) != cap(cl.Out) {
		t.Fatalf("expected client buffer to be full, got len=%d cap=%d", len(cl.Out), cap(cl.Out))
	}
}

func TestHub_Broadcast_DropKeepsOthersFlowing(t *testing.T) {
	h := New()
	slow := &Client{Out: make(chan duml.Snapshot, 1), Closed: make(chan struct{})}
	fast := &Client{Out: make(chan duml.Snapshot, 16), Closed: make(chan struct{})}
	h.Add(slow)
	h.Add(fast)
	defer h.Remove(slow)
	defer h.Remove(fast)

	h.Broadcast(duml.Snapshot{})
	for i := 0; i < 10; i++ {
		h.Broadcast(duml.Snapshot{})
	}

	got := 0
	timeout := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case <-fast.Out:
			got++
			if got >= 5 {
				break loop
			}
		case <-timeout:
			break loop
		}
	}
	if got == 0 {
		t.Fatal("fast client did not receive any snapshots while slow was backpressured")
	}
}

func TestHub_Broadcast_KickClosesSlowClient(t *testing.T) {
	h := New()
	h.Policy = PolicyKick
	cl := &Client{Out: make(chan duml.Snapshot, 1), Closed: make(chan struct{})}
	h.Add(cl)
	defer h.Remove(cl)

	h.Broadcast(duml.Snapshot{}) // fills buffer
	h.Broadcast(duml.Snapshot{}) // should trigger kick

	select {
	case <-cl.Closed:
	case <-time.After(time.Second):
		t.Fatal("expected client to be closed under kick policy")
	}
}

func TestHub_AddRemove_Count(t *testing.T) {
	h := New()
	if h.Count() != 0 {
		t.Fatalf("count = %d, want 0", h.Count())
	}
	cl := &Client{Out: make(chan duml.Snapshot, 1), Closed: make(chan struct{})}
	h.Add(cl)
	if h.Count() != 1 {
		t.Fatalf("count = %d, want 1", h.Count())
	}
	h.Remove(cl)
	if h.Count() != 0 {
		t.Fatalf("count = %d, want 0 after remove", h.Count())
	}
	h.Remove(cl) // idempotent
}
