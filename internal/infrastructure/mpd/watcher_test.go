// ABOUTME: Tests for the MPD watcher against a fake player
// ABOUTME: Covers tag fallbacks, idle event refreshes, and connection failures
package mpd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	m "github.com/fhs/gompd/v2/mpd"
	"github.com/google/go-cmp/cmp"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

type fakePlayer struct {
	mu     sync.Mutex
	status m.Attrs
	song   m.Attrs
	err    error
	pings  int
}

func (f *fakePlayer) Status() (m.Attrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func (f *fakePlayer) CurrentSong() (m.Attrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.song, nil
}

func (f *fakePlayer) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakePlayer) Close() error { return nil }

func (f *fakePlayer) set(state string, song m.Attrs) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = m.Attrs{"state": state}
	f.song = song
}

type collector struct {
	mu    sync.Mutex
	subs  []track.Track
	added chan struct{}
}

func newCollector() *collector {
	return &collector{added: make(chan struct{}, 16)}
}

func (c *collector) publish(sub track.Submission) {
	c.mu.Lock()
	c.subs = append(c.subs, track.Sanitize(sub))
	c.mu.Unlock()
	c.added <- struct{}{}
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.added:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for publish")
	}
}

func (c *collector) tracks() []track.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]track.Track(nil), c.subs...)
}

func TestEncodeSong(t *testing.T) {
	tests := []struct {
		name string
		song m.Attrs
		want track.Track
	}{
		{
			name: "tagged file",
			song: m.Attrs{"Title": "Song", "Artist": "Band", "file": "music/song.flac"},
			want: track.Track{Title: "Song", Artist: "Band"},
		},
		{
			name: "album artist fallback",
			song: m.Attrs{"Title": "Song", "AlbumArtist": "Various", "file": "a.mp3"},
			want: track.Track{Title: "Song", Artist: "Various"},
		},
		{
			name: "stream name",
			song: m.Attrs{"Name": "Radio One", "file": "https://radio.example/live"},
			want: track.Track{Title: "Radio One", URL: "https://radio.example/live"},
		},
		{
			name: "untagged file",
			song: m.Attrs{"file": "incoming/untitled.ogg"},
			want: track.Track{Title: "untitled.ogg"},
		},
		{
			name: "empty",
			song: m.Attrs{},
			want: track.Track{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := track.Sanitize(encodeSong(tt.song))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("encodeSong mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCurrent_NotPlaying(t *testing.T) {
	for _, state := range []string{"pause", "stop"} {
		p := &fakePlayer{}
		p.set(state, m.Attrs{"Title": "Song", "Artist": "Band"})

		sub, err := current(p)
		if err != nil {
			t.Fatalf("current(%s): %v", state, err)
		}
		if got := track.Sanitize(sub); !got.IsEmpty() {
			t.Errorf("current(%s) = %+v, want empty", state, got)
		}
	}
}

func TestLoop_RefreshesOnPlayerEvents(t *testing.T) {
	p := &fakePlayer{}
	p.set("play", m.Attrs{"Title": "One", "Artist": "Band"})

	events := make(chan string)
	errs := make(chan error)
	c := newCollector()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := New(Config{KeepAlive: time.Hour})
	go func() {
		done <- w.loop(ctx, p, events, errs, c.publish)
	}()

	c.wait(t)

	// Non-player subsystems are ignored
	events <- "mixer"

	p.set("play", m.Attrs{"Title": "Two", "Artist": "Band"})
	events <- "player"
	c.wait(t)

	p.set("stop", nil)
	events <- "player"
	c.wait(t)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("loop returned error after cancel: %v", err)
	}

	want := []track.Track{
		{Title: "One", Artist: "Band"},
		{Title: "Two", Artist: "Band"},
		{},
	}
	if diff := cmp.Diff(want, c.tracks()); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}
}

func TestLoop_WatcherError(t *testing.T) {
	p := &fakePlayer{}
	p.set("stop", nil)

	errs := make(chan error, 1)
	errs <- errors.New("connection reset")

	w := New(Config{KeepAlive: time.Hour})
	err := w.loop(context.Background(), p, make(chan string), errs, func(track.Submission) {})
	if err == nil {
		t.Fatal("expected error from watcher")
	}
}

func TestLoop_EventsClosed(t *testing.T) {
	p := &fakePlayer{}
	p.set("stop", nil)

	events := make(chan string)
	close(events)

	w := New(Config{KeepAlive: time.Hour})
	err := w.loop(context.Background(), p, events, make(chan error), func(track.Submission) {})
	if !errors.Is(err, errWatcherClosed) {
		t.Fatalf("loop error = %v, want errWatcherClosed", err)
	}
}

func TestLoop_StatusFailure(t *testing.T) {
	p := &fakePlayer{err: errors.New("broken pipe")}

	w := New(Config{})
	err := w.loop(context.Background(), p, make(chan string), make(chan error), func(track.Submission) {})
	if err == nil {
		t.Fatal("expected status error to end the loop")
	}
}

func TestLoop_PingsOnKeepAlive(t *testing.T) {
	p := &fakePlayer{}
	p.set("stop", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := New(Config{KeepAlive: 5 * time.Millisecond})
	go func() {
		done <- w.loop(ctx, p, make(chan string), make(chan error), func(track.Submission) {})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		n := p.pings
		p.mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pings < 2 {
		t.Errorf("pings = %d, want at least 2", p.pings)
	}
}
