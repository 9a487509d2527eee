// Package notify pushes lifecycle events to connected dashboard clients over
// websockets. Delivery status changes and expiry warnings fan out here.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Envelope is the wire format of one pushed event.
type Envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// Hub maintains the set of active clients and fans broadcast messages out to
// them. Slow clients are dropped rather than allowed to stall the loop.
type Hub struct {
	logger     *slog.Logger
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub initializes a hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the dispatch loop until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("ws client connected", slog.Int("clients", len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("ws client disconnected", slog.Int("clients", len(h.clients)))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast pushes one event to every connected client. It never blocks the
// caller; when the hub's buffer is full the event is dropped and logged.
func (h *Hub) Broadcast(event string, payload any) {
	raw, err := json.Marshal(Envelope{Event: event, Payload: payload, At: time.Now()})
	if err != nil {
		h.logger.Error("ws marshal event", slog.String("event", event), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		h.logger.Warn("ws broadcast buffer full, dropping event", slog.String("event", event))
	}
}
