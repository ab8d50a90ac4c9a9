// ABOUTME: HTTP handlers for one-shot reads of the now-playing record
// ABOUTME: Implements page, JSON snapshot, SVG image, and health check routes
package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/harper/nowplaying-broadcaster/internal/domain/station"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/render"
)

// publicRead marks a response as readable from any origin and never cached.
func publicRead(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}

type PageHandler struct {
	st     *station.Station
	logger *slog.Logger
}

func NewPageHandler(st *station.Station, logger *slog.Logger) *PageHandler {
	return &PageHandler{st: st, logger: logger}
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := render.Page(&buf, h.st.Snapshot()); err != nil {
		h.logger.Error("render page", slog.String("error", err.Error()))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	publicRead(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// JSONHandler serves the snapshot. ?format=line returns the older
// {"nowPlaying": "title - artist"} shape.
type JSONHandler struct {
	st *station.Station
}

func NewJSONHandler(st *station.Station) *JSONHandler {
	return &JSONHandler{st: st}
}

func (h *JSONHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := h.st.Snapshot()

	publicRead(w)
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Query().Get("format") == "line" {
		type response struct {
			NowPlaying string `json:"nowPlaying"`
		}
		json.NewEncoder(w).Encode(response{NowPlaying: snap.DisplayLine()})
		return
	}

	json.NewEncoder(w).Encode(snap)
}

type SVGHandler struct {
	st     *station.Station
	logger *slog.Logger
}

func NewSVGHandler(st *station.Station, logger *slog.Logger) *SVGHandler {
	return &SVGHandler{st: st, logger: logger}
}

func (h *SVGHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := render.SVG(&buf, h.st.Snapshot()); err != nil {
		h.logger.Error("render svg", slog.String("error", err.Error()))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	publicRead(w)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

type HealthzHandler struct {
	st *station.Station
}

func NewHealthzHandler(st *station.Station) *HealthzHandler {
	return &HealthzHandler{st: st}
}

func (h *HealthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type response struct {
		OK          bool    `json:"ok"`
		Subscribers int     `json:"subscribers"`
		UpdatedAt   *string `json:"updated_at,omitempty"`
	}

	var updatedAt *string
	if t := h.st.LastUpdate(); t != nil {
		s := t.Format("2006-01-02T15:04:05Z07:00")
		updatedAt = &s
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response{
		OK:          true,
		Subscribers: h.st.SubscriberCount(),
		UpdatedAt:   updatedAt,
	})
}
