// ABOUTME: Tests for the subscriber registry
// ABOUTME: Verifies idempotent removal, overflow pruning, and concurrent churn
package station

import (
	"sync"
	"testing"
)

type countingRecorder struct {
	mu      sync.Mutex
	updates int
	added   int
	removed int
	dropped int
}

func (c *countingRecorder) UpdateApplied() {
	c.mu.Lock()
	c.updates++
	c.mu.Unlock()
}

func (c *countingRecorder) SubscriberAdded() {
	c.mu.Lock()
	c.added++
	c.mu.Unlock()
}

func (c *countingRecorder) SubscriberRemoved(dropped bool) {
	c.mu.Lock()
	c.removed++
	if dropped {
		c.dropped++
	}
	c.mu.Unlock()
}

func TestRegistry_InitialFrame(t *testing.T) {
	r := NewRegistry(2, nil)

	sub := r.Subscribe([]byte("hello"))
	if got := string(<-sub.Frames()); got != "hello" {
		t.Errorf("expected initial frame 'hello', got %q", got)
	}
	if sub.ID() == "" {
		t.Error("expected subscriber id")
	}
}

func TestRegistry_UnsubscribeIdempotent(t *testing.T) {
	rec := &countingRecorder{}
	r := NewRegistry(2, rec)

	a := r.Subscribe(nil)
	b := r.Subscribe(nil)

	if !r.Unsubscribe(a.ID()) {
		t.Error("expected first unsubscribe to remove")
	}
	if r.Unsubscribe(a.ID()) {
		t.Error("expected second unsubscribe to be a no-op")
	}
	if r.Unsubscribe("unknown") {
		t.Error("expected unknown id to be a no-op")
	}

	if n := r.Broadcast([]byte("x")); n != 1 {
		t.Errorf("expected 1 delivery, got %d", n)
	}
	if got := string(<-b.Frames()); got != "x" {
		t.Errorf("expected 'x', got %q", got)
	}
	if rec.removed != 1 {
		t.Errorf("expected 1 removal recorded, got %d", rec.removed)
	}
}

func TestRegistry_PrunesFullSubscriber(t *testing.T) {
	rec := &countingRecorder{}
	r := NewRegistry(1, rec)

	slow := r.Subscribe(nil)
	fast := r.Subscribe(nil)

	r.Broadcast([]byte("1"))
	<-fast.Frames()

	// slow never read frame 1, so frame 2 overflows its queue.
	if n := r.Broadcast([]byte("2")); n != 1 {
		t.Errorf("expected 1 delivery, got %d", n)
	}
	if r.Len() != 1 {
		t.Errorf("expected slow subscriber pruned, got %d subscribers", r.Len())
	}
	if rec.dropped != 1 {
		t.Errorf("expected 1 drop recorded, got %d", rec.dropped)
	}

	if got := string(<-slow.Frames()); got != "1" {
		t.Errorf("expected queued frame '1', got %q", got)
	}
	if _, ok := <-slow.Frames(); ok {
		t.Error("expected pruned subscriber channel to be closed")
	}

	// Removing an already pruned subscriber is still a no-op.
	r.Unsubscribe(slow.ID())
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRegistry(4, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub := r.Subscribe(nil)
				r.Unsubscribe(sub.ID())
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			r.Broadcast([]byte("frame"))
		}
	}()

	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry(2, nil)
	subs := []*Subscriber{r.Subscribe(nil), r.Subscribe(nil)}

	r.CloseAll()

	for _, sub := range subs {
		if _, ok := <-sub.Frames(); ok {
			t.Error("expected closed channel")
		}
	}
	r.CloseAll()
}
