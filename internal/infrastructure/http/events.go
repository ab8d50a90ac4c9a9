// ABOUTME: Server-sent events stream pushing every now-playing update
// ABOUTME: Sends the snapshot first and unsubscribes when the connection ends
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/harper/nowplaying-broadcaster/internal/domain/station"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/sse"
)

type EventsHandler struct {
	st        *station.Station
	keepalive time.Duration
	logger    *slog.Logger
}

func NewEventsHandler(st *station.Station, keepalive time.Duration, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{st: st, keepalive: keepalive, logger: logger}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	publicRead(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sub := h.st.Subscribe()
	defer h.st.Unsubscribe(sub)

	log := h.logger.With(slog.String("subscriber", sub.ID()), slog.String("transport", "sse"))
	log.Debug("viewer connected")
	defer log.Debug("viewer disconnected")

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-sub.Frames():
			if !ok {
				// Dropped by the registry or shut down
				return
			}
			if _, err := w.Write(sse.BuildFrame(frame)); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write(sse.Comment("keepalive")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
