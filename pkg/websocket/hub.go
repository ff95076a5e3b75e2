package websocket

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is the envelope pushed to every connected dispatch dashboard.
type Event struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.WithField("clients", len(h.clients)).Debug("dashboard client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.WithField("clients", len(h.clients)).Debug("dashboard client disconnected")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than stall dispatch events.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Publish fans an event out to all connected clients. It never blocks the
// caller; events to a full hub buffer are dropped.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := json.Marshal(Event{
		Event:     event,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to marshal dashboard event")
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.WithField("event", event).Warn("dashboard event dropped, hub backlogged")
	}
}
