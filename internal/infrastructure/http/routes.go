// ABOUTME: Route table and request logging middleware
// ABOUTME: Wires every handler onto one mux around a single station
package http

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/harper/nowplaying-broadcaster/internal/domain/station"
)

type Options struct {
	Station       *station.Station
	Metrics       http.Handler
	AllowedOrigin string
	MaxBodyBytes  int64
	Keepalive     time.Duration
	Logger        *slog.Logger
}

func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	keepalive := opts.Keepalive
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	st := opts.Station

	update := RequireOrigin(opts.AllowedOrigin, NewUpdateHandler(st, opts.MaxBodyBytes, logger))

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", NewPageHandler(st, logger))
	mux.Handle("GET /events", NewEventsHandler(st, keepalive, logger))
	mux.Handle("GET /ws", NewWebSocketHandler(st, keepalive, logger))
	mux.Handle("GET /json", NewJSONHandler(st))
	mux.Handle("GET /nowplaying.svg", NewSVGHandler(st, logger))
	mux.Handle("POST /update", update)
	mux.Handle("OPTIONS /update", update)
	mux.Handle("GET /healthz", NewHealthzHandler(st))
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return logRequests(logger, mux)
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// statusRecorder keeps Flush and Hijack reachable for streaming handlers.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
