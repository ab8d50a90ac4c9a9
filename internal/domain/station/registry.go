// ABOUTME: Subscriber registry fanning out frames to connected viewers
// ABOUTME: Prunes subscribers whose queue overflows instead of blocking
package station

import (
	"sync"

	"github.com/google/uuid"

	"github.com/harper/nowplaying-broadcaster/internal/domain"
)

// Subscriber is one connected viewer. Frames are delivered in broadcast order
// and the channel is closed once the subscriber is removed.
type Subscriber struct {
	id     string
	frames chan []byte
}

func (s *Subscriber) ID() string {
	return s.id
}

func (s *Subscriber) Frames() <-chan []byte {
	return s.frames
}

type Registry struct {
	mu       sync.Mutex
	subs     map[string]*Subscriber
	buffer   int
	recorder domain.Recorder
}

func NewRegistry(buffer int, recorder domain.Recorder) *Registry {
	if buffer < 1 {
		buffer = 1
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Registry{
		subs:     make(map[string]*Subscriber),
		buffer:   buffer,
		recorder: recorder,
	}
}

// Subscribe registers a new subscriber. A non-nil initial frame is queued
// before the subscriber can receive any broadcast.
func (r *Registry) Subscribe(initial []byte) *Subscriber {
	sub := &Subscriber{
		id:     uuid.NewString(),
		frames: make(chan []byte, r.buffer),
	}
	if initial != nil {
		sub.frames <- initial
	}

	r.mu.Lock()
	r.subs[sub.id] = sub
	r.mu.Unlock()

	r.recorder.SubscriberAdded()
	return sub
}

// Unsubscribe removes the subscriber with the given id. Unknown or already
// removed ids are ignored. It reports whether anything was removed.
func (r *Registry) Unsubscribe(id string) bool {
	r.mu.Lock()
	removed := r.removeLocked(id)
	r.mu.Unlock()

	if removed {
		r.recorder.SubscriberRemoved(false)
	}
	return removed
}

// Broadcast queues payload for every subscriber without blocking. Subscribers
// with a full queue are dropped. It returns the number of deliveries.
func (r *Registry) Broadcast(payload []byte) int {
	r.mu.Lock()
	delivered := 0
	var stale []string
	for id, sub := range r.subs {
		select {
		case sub.frames <- payload:
			delivered++
		default:
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		r.removeLocked(id)
	}
	r.mu.Unlock()

	for range stale {
		r.recorder.SubscriberRemoved(true)
	}
	return delivered
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// CloseAll removes every subscriber, ending their streams.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	n := len(r.subs)
	for id := range r.subs {
		r.removeLocked(id)
	}
	r.mu.Unlock()

	for i := 0; i < n; i++ {
		r.recorder.SubscriberRemoved(false)
	}
}

// removeLocked must be called with r.mu held. Channels are only closed here,
// under the same lock that guards sends.
func (r *Registry) removeLocked(id string) bool {
	sub, ok := r.subs[id]
	if !ok {
		return false
	}
	delete(r.subs, id)
	close(sub.frames)
	return true
}

type nopRecorder struct{}

func (nopRecorder) UpdateApplied()         {}
func (nopRecorder) SubscriberAdded()       {}
func (nopRecorder) SubscriberRemoved(bool) {}
