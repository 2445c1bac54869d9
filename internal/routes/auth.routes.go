package routes

import (
	"healthwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the authenticated WebSocket stream.
// Token generation is done via CLI (no HTTP endpoint).
func RegisterAuthRoutes(r *gin.Engine, ws *controllers.WebSocketController) {
	r.GET("/ws", ws.HandleWebSocket)
}
