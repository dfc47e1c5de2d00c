package websocket

import (
	"encoding/json"
	"sync"

	"pdf-assistant-be/internal/pkg/logger"
)

// Hub fans session events out to the presentation clients watching each
// session. Sessions are owned by this single instance, so there is no
// cross-instance fanout layer; a session's events exist only here.
type Hub struct {
	// Registered clients map: SessionID -> list of clients (multi-tab preview)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends one session event to every client watching that session.
// Never blocks: a client with a full buffer is dropped and unregistered.
func (h *Hub) Publish(sessionID, event string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"event":      event,
		"session_id": sessionID,
		"data":       payload,
	})
	if err != nil {
		h.logger.Warn("Hub", "Failed to marshal event", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	// The read lock must cover the sends themselves: Run closes Send under
	// the write lock, so a send outside the lock can hit a closed channel.
	h.mu.RLock()
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"session_id": sessionID})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
	h.mu.RUnlock()
}

// Attach wires a fresh client into the hub and starts its pumps.
func (h *Hub) Attach(client *Client) {
	h.register <- client
	go client.writePump()
	client.readPump()
}
