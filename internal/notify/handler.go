package notify

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard and the API share an origin behind the same proxy.
		return true
	},
}

// Handler upgrades authenticated requests to websocket connections. The
// route is mounted behind the auth middleware, so the actor is already
// resolved by the time we get here.
type Handler struct {
	logger *slog.Logger
	hub    *Hub
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, hub *Hub) *Handler {
	return &Handler{logger: logger, hub: hub}
}

// ServeWS handles GET /ws.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade", slog.Any("error", err))
		return
	}
	client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 256)}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
