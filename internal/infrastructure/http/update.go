// ABOUTME: Update endpoint accepting now-playing submissions from the userscript
// ABOUTME: Gated by a single allowed Origin; malformed bodies degrade to empty fields
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/harper/nowplaying-broadcaster/internal/domain/station"
	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

type UpdateHandler struct {
	st      *station.Station
	maxBody int64
	logger  *slog.Logger
}

func NewUpdateHandler(st *station.Station, maxBody int64, logger *slog.Logger) *UpdateHandler {
	return &UpdateHandler{st: st, maxBody: maxBody, logger: logger}
}

func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var raw track.Submission

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		// Never rejected: an unreadable body is an empty submission.
		h.logger.Debug("malformed update body", slog.String("error", err.Error()))
		raw = nil
	}

	t := h.st.Update(raw)
	h.logger.Info("updated", slog.String("now_playing", t.DisplayLine()))

	w.WriteHeader(http.StatusOK)
}

// RequireOrigin lets through only requests whose Origin header equals allowed
// and answers CORS preflight for it. An empty allowed accepts any origin.
// The Origin header is trivially forged outside browsers; this only keeps
// other web pages from posting updates.
func RequireOrigin(allowed string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowed == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			if r.Header.Get("Origin") != allowed {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
