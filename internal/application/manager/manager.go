// ABOUTME: Station manager for lifecycle and wiring
// ABOUTME: Builds the station and its sources from config and supervises source goroutines
package manager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/harper/nowplaying-broadcaster/internal/application/config"
	"github.com/harper/nowplaying-broadcaster/internal/domain"
	"github.com/harper/nowplaying-broadcaster/internal/domain/station"
	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/metadata"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/metrics"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/mpd"
)

type Manager struct {
	station *station.Station
	metrics *metrics.Metrics
	sources []domain.TrackSource
	retry   time.Duration
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(st *station.Station, m *metrics.Metrics, sources []domain.TrackSource, retry time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		station: st,
		metrics: m,
		sources: sources,
		retry:   retry,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := metrics.New()
	st := station.New(station.Config{
		SubscriberBuffer: cfg.Stream.SubscriberBuffer,
	}, m, logger.With(slog.String("component", "station")))

	var sources []domain.TrackSource

	if cfg.Sources.MPD.Enabled {
		sources = append(sources, mpd.New(mpd.Config{
			Address:   cfg.Sources.MPD.Address,
			Password:  cfg.Sources.MPD.Password,
			KeepAlive: time.Duration(cfg.Sources.MPD.KeepaliveMs) * time.Millisecond,
		}))
	}

	if up := cfg.Sources.Upstream; up.Enabled {
		sources = append(sources, metadata.NewHTTP(metadata.HTTPConfig{
			URL:          up.URL,
			Timeout:      time.Duration(up.TimeoutMs) * time.Millisecond,
			PollInterval: time.Duration(up.PollMs) * time.Millisecond,
			Headers:      up.Headers,
			Fields: metadata.FieldPaths{
				Title:  up.Fields.Title,
				Artist: up.Fields.Artist,
				Cover:  up.Fields.Cover,
				URL:    up.Fields.URL,
			},
		}))
	}

	return New(st, m, sources, cfg.Sources.Retry(), logger), nil
}

func (m *Manager) Station() *station.Station {
	return m.station
}

func (m *Manager) Metrics() *metrics.Metrics {
	return m.metrics
}

func (m *Manager) Sources() []domain.TrackSource {
	return m.sources
}

// Start runs every source in its own goroutine. A source that fails is
// restarted after the retry delay until Shutdown.
func (m *Manager) Start() error {
	for _, src := range m.sources {
		m.wg.Add(1)
		go m.supervise(src)
	}
	return nil
}

func (m *Manager) supervise(src domain.TrackSource) {
	defer m.wg.Done()

	logger := m.logger.With(slog.String("source", src.Name()))
	logger.Info("source starting")

	for {
		err := src.Run(m.ctx, func(sub track.Submission) {
			m.station.Update(sub)
		})
		if m.ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("source stopped")
		}
		logger.Warn("source failed, retrying",
			slog.String("error", err.Error()),
			slog.Duration("retry", m.retry),
		)

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(m.retry):
		}
	}
}

// Shutdown stops the sources and then closes every viewer stream.
func (m *Manager) Shutdown() error {
	m.cancel()
	m.wg.Wait()

	m.station.Shutdown()
	return nil
}
