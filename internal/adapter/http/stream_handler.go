package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sfd-loan-engine/internal/notifier"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// dashboards are served from other origins; access control sits in front of the engine
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler pushes loan events to websocket clients, per SFD or for
// the whole network.
type StreamHandler struct {
	hub    *notifier.Hub
	logger *slog.Logger
}

func NewStreamHandler(hub *notifier.Hub, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{hub: hub, logger: logger}
}

// SfdEvents streams one SFD's events. The umbrella wildcard is only served
// by AllEvents.
func (h *StreamHandler) SfdEvents(c echo.Context) error {
	sfdID := strings.TrimSpace(c.Param("sfd_id"))
	if sfdID == "" || sfdID == notifier.AllSfds {
		return writeError(c, validationErr("sfd_id %q does not name a single SFD", sfdID))
	}
	return h.serve(c, sfdID)
}

func (h *StreamHandler) AllEvents(c echo.Context) error { return h.serve(c, notifier.AllSfds) }

func (h *StreamHandler) serve(c echo.Context, sfdID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}
	sub := h.hub.Subscribe(sfdID)
	h.logger.Info("event stream opened", "sfd_id", sfdID, "remote", c.RealIP())

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, sub, done)

	sub.Close()
	_ = conn.Close()
	h.logger.Info("event stream closed", "sfd_id", sfdID, "dropped", sub.Dropped())
	return nil
}

// readPump only drains control frames; clients never send data.
func (h *StreamHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writePump(conn *websocket.Conn, sub *notifier.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
