// ABOUTME: MPD source publishing the player's current song as now-playing
// ABOUTME: Follows idle "player" events and pings to keep the command connection alive
package mpd

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	m "github.com/fhs/gompd/v2/mpd"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

type Config struct {
	Address   string
	Password  string
	KeepAlive time.Duration
}

// player is the subset of the MPD client the watcher needs.
type player interface {
	Status() (m.Attrs, error)
	CurrentSong() (m.Attrs, error)
	Ping() error
	Close() error
}

var errWatcherClosed = errors.New("mpd watcher closed")

type Watcher struct {
	cfg Config
}

func New(cfg Config) *Watcher {
	return &Watcher{cfg: cfg}
}

func (w *Watcher) Name() string {
	return "mpd"
}

// Run publishes the current song on start and after every player event. It
// returns when ctx is done or the MPD connection fails.
func (w *Watcher) Run(ctx context.Context, publish func(track.Submission)) error {
	client, err := m.DialAuthenticated("tcp", w.cfg.Address, w.cfg.Password)
	if err != nil {
		return fmt.Errorf("dial mpd: %w", err)
	}
	defer client.Close()

	events, err := m.NewWatcher("tcp", w.cfg.Address, w.cfg.Password, "player")
	if err != nil {
		return fmt.Errorf("watch mpd: %w", err)
	}
	defer events.Close()

	return w.loop(ctx, client, events.Event, events.Error, publish)
}

func (w *Watcher) loop(ctx context.Context, client player, events <-chan string, errs <-chan error, publish func(track.Submission)) error {
	refresh := func() error {
		sub, err := current(client)
		if err != nil {
			return err
		}
		publish(sub)
		return nil
	}

	if err := refresh(); err != nil {
		return err
	}

	keepAlive := w.cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case subsystem, ok := <-events:
			if !ok {
				return errWatcherClosed
			}
			if subsystem != "player" {
				continue
			}
			if err := refresh(); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				return errWatcherClosed
			}
			return fmt.Errorf("mpd watcher: %w", err)
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return fmt.Errorf("mpd ping: %w", err)
			}
		}
	}
}

func current(client player) (track.Submission, error) {
	status, err := client.Status()
	if err != nil {
		return nil, fmt.Errorf("mpd status: %w", err)
	}

	// Paused and stopped both mean nothing is playing
	if status["state"] != "play" {
		return track.Submission{}, nil
	}

	song, err := client.CurrentSong()
	if err != nil {
		return nil, fmt.Errorf("mpd current song: %w", err)
	}

	return encodeSong(song), nil
}

// encodeSong maps MPD tags onto a submission. Streams often only carry a
// Name or a file URL, so those fill in missing tags.
func encodeSong(song m.Attrs) track.Submission {
	title := song["Title"]
	if title == "" {
		title = song["Name"]
	}
	if title == "" && song["file"] != "" {
		title = path.Base(song["file"])
	}

	artist := song["Artist"]
	if artist == "" {
		artist = song["AlbumArtist"]
	}

	var url string
	if f := song["file"]; strings.HasPrefix(f, "http://") || strings.HasPrefix(f, "https://") {
		url = f
	}

	return track.SubmissionFrom(title, artist, "", url)
}
