package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"healthwatch/internal/models"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string          `json:"type"` // "tick", "auth", "auth_ok", "auth_error", "ping", "error"
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Token     string          `json:"token,omitempty"` // For auth messages from client
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID   string
	Conn *websocket.Conn
	Send chan WebSocketMessage
}

// WebSocketHub manages connected clients and broadcasts every tick to them.
// It doubles as a Sink.
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	mu         sync.RWMutex
	logger     zerolog.Logger
}

func NewWebSocketHub(logger zerolog.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		logger:     logger,
	}
}

// Run manages the hub's event loop until ctx is cancelled, then closes every
// client's send channel.
func (h *WebSocketHub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("client", client.ID).Int("total", total).Msg("[WS] client connected")

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("client", clientID).Int("total", total).Msg("[WS] client disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

// Report broadcasts the record as a "tick" message. A full broadcast queue
// drops the message rather than stalling the monitor.
func (h *WebSocketHub) Report(ctx context.Context, record models.TickRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	msg := WebSocketMessage{
		Type:      "tick",
		Timestamp: record.Snapshot.Timestamp,
		Data:      data,
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn().Uint64("sequence", record.Sequence).Msg("[WS] broadcast queue full, dropping tick")
	}
	return nil
}

// Register adds a new client to the hub
func (h *WebSocketHub) Register(ctx context.Context, client *ClientConnection) bool {
	select {
	case h.register <- client:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(ctx context.Context, clientID string) {
	select {
	case h.unregister <- clientID:
	case <-ctx.Done():
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendMessage sends a message to a specific client
func (h *WebSocketHub) SendMessage(clientID string, msg WebSocketMessage) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[clientID]
	if !exists {
		return false
	}

	select {
	case client.Send <- msg:
		return true
	default:
		return false // Send channel full
	}
}
