package routes

import (
	"net/http"

	"healthwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterMonitorRoutes exposes the tick history and the Prometheus registry
func RegisterMonitorRoutes(r *gin.Engine, status *controllers.StatusController, metrics http.Handler) {
	r.GET("/healthz", status.GetHealth)

	group := r.Group("/status")
	{
		group.GET("", status.GetStatus)
		group.GET("/history", status.GetHistory)
		group.GET("/forecast", status.GetForecast)
	}

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
