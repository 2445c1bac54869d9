package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"healthwatch/internal/middleware"
	"healthwatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketController streams tick records to authenticated clients
type WebSocketController struct {
	ctx       context.Context // lifetime of the hub
	hub       *services.WebSocketHub
	auth      *services.AuthService
	security  *middleware.SecurityLogger
	validator *middleware.InputValidator
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

func NewWebSocketController(ctx context.Context, hub *services.WebSocketHub, auth *services.AuthService, security *middleware.SecurityLogger, allowedOrigins []string, logger zerolog.Logger) *WebSocketController {
	return &WebSocketController{
		ctx:       ctx,
		hub:       hub,
		auth:      auth,
		security:  security,
		validator: middleware.NewInputValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// originChecker allows requests without an Origin header (non-browser
// clients) and, when a list is configured, only the listed origins.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := strings.TrimRight(r.Header.Get("Origin"), "/")
		if origin == "" || len(allowedOrigins) == 0 {
			return true
		}
		for _, o := range allowedOrigins {
			o = strings.TrimRight(strings.TrimSpace(o), "/")
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket handles incoming WebSocket connections
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		wc.security.LogFailedAuth(c.ClientIP(), "missing token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	if !wc.validator.ValidateToken(token) {
		wc.security.LogFailedAuth(c.ClientIP(), "malformed token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	claims, err := wc.auth.ValidateToken(token)
	if err != nil {
		wc.security.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.Warn().Err(err).Msg("[WS] upgrade failed")
		return
	}

	client := &services.ClientConnection{
		ID:   claims.ServerName + "-" + uuid.NewString(),
		Conn: ws,
		Send: make(chan services.WebSocketMessage, 64),
	}
	if !wc.hub.Register(wc.ctx, client) {
		ws.Close()
		return
	}
	wc.security.LogWebSocketConnected(c.ClientIP(), claims.ServerName)

	ip := c.ClientIP()
	go wc.writePump(client)
	go wc.readPump(client, ip)
}

// bearerToken reads the token from the Authorization header, falling back
// to the token query parameter for browsers.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// readPump reads messages from the WebSocket client. Unregistering closes
// the send channel, and writePump closes the connection once it has flushed
// what is queued.
func (wc *WebSocketController) readPump(client *services.ClientConnection, ip string) {
	defer func() {
		wc.hub.Unregister(wc.ctx, client.ID)
		wc.security.LogWebSocketDisconnected(ip, client.ID)
	}()

	client.Conn.SetReadLimit(4096)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				wc.logger.Warn().Err(err).Str("client", client.ID).Msg("[WS] read error")
			}
			return
		}

		switch msg.Type {
		case "auth":
			// token refresh on a live connection
			claims, err := wc.auth.ValidateToken(msg.Token)
			if err != nil {
				wc.security.LogFailedAuth(ip, "websocket auth message: "+err.Error())
				wc.hub.SendMessage(client.ID, services.WebSocketMessage{
					Type:      "auth_error",
					Timestamp: time.Now(),
					Error:     "invalid token",
				})
				return
			}
			data, _ := json.Marshal(gin.H{"server": claims.ServerName})
			wc.hub.SendMessage(client.ID, services.WebSocketMessage{
				Type:      "auth_ok",
				Timestamp: time.Now(),
				Data:      data,
			})

		case "ping":
			wc.hub.SendMessage(client.ID, services.WebSocketMessage{Type: "pong", Timestamp: time.Now()})

		case "subscribe":
			// every client already receives ticks

		case "unsubscribe":
			return

		default:
			wc.logger.Debug().Str("type", msg.Type).Str("client", client.ID).Msg("[WS] unknown message type")
		}
	}
}

// writePump writes messages to the WebSocket client
func (wc *WebSocketController) writePump(client *services.ClientConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the hub
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					wc.logger.Warn().Err(err).Str("client", client.ID).Msg("[WS] write error")
				}
				return
			}

		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
