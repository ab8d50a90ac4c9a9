// ABOUTME: HTTP metadata provider polling an upstream JSON now-playing endpoint
// ABOUTME: Maps dotted key paths onto track fields and publishes changes
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

// FieldPaths lists dotted key paths per track field. The first path that
// resolves to a non-empty value wins.
type FieldPaths struct {
	Title  []string
	Artist []string
	Cover  []string
	URL    []string
}

type HTTPConfig struct {
	URL          string
	Timeout      time.Duration
	PollInterval time.Duration
	Headers      map[string]string
	Fields       FieldPaths
}

type HTTPProvider struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTP(cfg HTTPConfig) *HTTPProvider {
	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	return &HTTPProvider{
		cfg:    cfg,
		client: client,
	}
}

func (h *HTTPProvider) Name() string {
	return "upstream"
}

func (h *HTTPProvider) Fetch(ctx context.Context) (track.Submission, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", h.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json")
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	return track.Submission{
		"title":  lookupFirst(data, h.cfg.Fields.Title),
		"artist": lookupFirst(data, h.cfg.Fields.Artist),
		"cover":  lookupFirst(data, h.cfg.Fields.Cover),
		"url":    lookupFirst(data, h.cfg.Fields.URL),
	}, nil
}

// Run polls until ctx is done, publishing only when the sanitized record
// changes. Fetch errors are skipped; the next tick tries again.
func (h *HTTPProvider) Run(ctx context.Context, publish func(track.Submission)) error {
	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	var last *track.Track
	poll := func() {
		sub, err := h.Fetch(ctx)
		if err != nil {
			return
		}
		t := track.Sanitize(sub)
		if last != nil && *last == t {
			return
		}
		last = &t
		publish(sub)
	}

	// Poll immediately on start
	poll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		}
	}
}

func lookupFirst(data map[string]interface{}, paths []string) interface{} {
	for _, p := range paths {
		if v := lookup(data, p); v != nil && v != "" {
			return v
		}
	}
	return nil
}

// lookup walks a dotted path like "now.firstLine.title" through nested objects.
func lookup(data map[string]interface{}, path string) interface{} {
	var cur interface{} = data
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}
