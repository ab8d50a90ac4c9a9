// ABOUTME: Station domain model owning the now-playing record and its viewers
// ABOUTME: Serializes updates so every subscriber sees them in the same order
package station

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harper/nowplaying-broadcaster/internal/domain"
	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

type Config struct {
	SubscriberBuffer int
}

type Station struct {
	// mu orders updates against each other and against new subscriptions.
	mu sync.Mutex

	current   atomic.Pointer[track.Track]
	updatedAt atomic.Pointer[time.Time]

	registry *Registry
	recorder domain.Recorder
	logger   *slog.Logger
}

func New(cfg Config, recorder domain.Recorder, logger *slog.Logger) *Station {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Station{
		registry: NewRegistry(cfg.SubscriberBuffer, recorder),
		recorder: recorder,
		logger:   logger,
	}
	s.current.Store(&track.Track{})
	return s
}

// Snapshot returns the current record. Readers never observe a partial update.
func (s *Station) Snapshot() track.Track {
	return *s.current.Load()
}

// LastUpdate returns when the record was last replaced, or nil if never.
func (s *Station) LastUpdate() *time.Time {
	return s.updatedAt.Load()
}

// Update sanitizes raw, replaces the record wholesale and pushes it to every
// subscriber. It always succeeds.
func (s *Station) Update(raw track.Submission) track.Track {
	t := track.Sanitize(raw)
	payload := encode(t)

	s.mu.Lock()
	s.current.Store(&t)
	now := time.Now()
	s.updatedAt.Store(&now)
	delivered := s.registry.Broadcast(payload)
	s.mu.Unlock()

	s.recorder.UpdateApplied()
	s.logger.Debug("now playing updated",
		slog.String("display", t.DisplayLine()),
		slog.Int("delivered", delivered),
	)
	return t
}

// Subscribe registers a viewer whose first frame is the current snapshot.
func (s *Station) Subscribe() *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Subscribe(encode(s.Snapshot()))
}

// Unsubscribe is safe to call more than once.
func (s *Station) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	s.registry.Unsubscribe(sub.ID())
}

func (s *Station) SubscriberCount() int {
	return s.registry.Len()
}

// Shutdown drops every subscriber so their streams end.
func (s *Station) Shutdown() {
	s.registry.CloseAll()
}

func encode(t track.Track) []byte {
	b, err := json.Marshal(t)
	if err != nil {
		// Only strings are marshalled, so this cannot happen.
		return []byte(`{"title":"","artist":"","cover":"","url":""}`)
	}
	return b
}
