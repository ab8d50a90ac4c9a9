// ABOUTME: WebSocket push channel carrying the same frames as /events
// ABOUTME: A read loop detects peer close; pings keep the connection alive
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harper/nowplaying-broadcaster/internal/domain/station"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers are public, any origin may read
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	st        *station.Station
	keepalive time.Duration
	logger    *slog.Logger
}

func NewWebSocketHandler(st *station.Station, keepalive time.Duration, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{st: st, keepalive: keepalive, logger: logger}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sub := h.st.Subscribe()
	defer h.st.Unsubscribe(sub)

	log := h.logger.With(slog.String("subscriber", sub.ID()), slog.String("transport", "websocket"))
	log.Debug("viewer connected")
	defer log.Debug("viewer disconnected")

	pongWait := 2 * h.keepalive
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			// Viewers never send anything meaningful; reading surfaces close frames.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case frame, ok := <-sub.Frames():
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
