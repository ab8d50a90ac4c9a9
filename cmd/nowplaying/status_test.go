package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harper/nowplaying-broadcaster/internal/domain/station"
	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
	apphttp "github.com/harper/nowplaying-broadcaster/internal/infrastructure/http"
)

func newTestServer(t *testing.T, allowedOrigin string) (*station.Station, string) {
	t.Helper()
	st := station.New(station.Config{SubscriberBuffer: 4}, nil, nil)
	srv := httptest.NewServer(apphttp.NewRouter(apphttp.Options{
		Station:       st,
		AllowedOrigin: allowedOrigin,
		MaxBodyBytes:  64 * 1024,
	}))
	t.Cleanup(srv.Close)
	return st, srv.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderLinesAligned(t *testing.T) {
	got := renderLines([]field{
		{label: "Title", value: "Song"},
		{label: "Viewers", value: "2"},
	})
	want := "Title:   Song\nViewers: 2"
	if got != want {
		t.Fatalf("renderLines mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestStatusFieldsOmitsEmptyLinks(t *testing.T) {
	fields := statusFields(statusReport{
		NowPlaying: track.Track{Title: "Song", Artist: "Band"},
		Line:       "Song - Band",
	})
	for _, f := range fields {
		if f.label == "Cover" || f.label == "URL" {
			t.Fatalf("unexpected %s field for empty value", f.label)
		}
		if f.label == "Updated" && f.value != "never" {
			t.Fatalf("Updated = %q, want never", f.value)
		}
	}
}

func TestPushThenStatusJSON(t *testing.T) {
	_, url := newTestServer(t, "https://radio.example")

	out, err := execute(t, "push", "--server", url, "--origin", "https://radio.example", "--title", "Song", "--artist", "Band")
	if err != nil {
		t.Fatalf("push failed: %v\n%s", err, out)
	}
	if strings.TrimSpace(out) != "Song - Band" {
		t.Fatalf("push output = %q", out)
	}

	out, err = execute(t, "status", "--server", url, "--json")
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}

	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status output: %v\n%s", err, out)
	}
	if report.Line != "Song - Band" {
		t.Errorf("line = %q, want %q", report.Line, "Song - Band")
	}
	if report.UpdatedAt == nil {
		t.Error("expected updated_at after push")
	}
}

func TestPushRejectedWithoutOrigin(t *testing.T) {
	st, url := newTestServer(t, "https://radio.example")

	if _, err := execute(t, "push", "--server", url, "--title", "Song"); err == nil {
		t.Fatal("expected push without origin to fail")
	}
	if !st.Snapshot().IsEmpty() {
		t.Fatalf("record changed: %+v", st.Snapshot())
	}
}

func TestStatusPlainOutput(t *testing.T) {
	st, url := newTestServer(t, "")
	st.Update(track.SubmissionFrom("Song", "Band", "", "https://example.com/song"))

	out, err := execute(t, "status", "--server", url)
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Now playing:", "Song - Band", "URL:", "https://example.com/song", "Viewers:"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}
