// ABOUTME: Domain interfaces for dependency inversion
// ABOUTME: Lets the station and manager depend on abstractions, not concrete implementations
package domain

import (
	"context"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

// TrackSource produces now-playing submissions from somewhere other than
// the HTTP update endpoint. Run blocks until ctx is done or the source fails.
type TrackSource interface {
	Name() string
	Run(ctx context.Context, publish func(track.Submission)) error
}

// Recorder observes broadcaster activity. Implementations must be safe for
// concurrent use.
type Recorder interface {
	UpdateApplied()
	SubscriberAdded()
	SubscriberRemoved(dropped bool)
}
