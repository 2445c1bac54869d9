package controllers

import (
	"net/http"
	"time"

	"healthwatch/internal/services"

	"github.com/gin-gonic/gin"
)

// maxHistoryDuration bounds the duration query parameter
const maxHistoryDuration = 24 * time.Hour

// StatusController serves the records kept by the history sink
type StatusController struct {
	history *services.HistorySink
}

func NewStatusController(history *services.HistorySink) *StatusController {
	return &StatusController{history: history}
}

// GetStatus returns the latest tick record
func (sc *StatusController) GetStatus(c *gin.Context) {
	record, ok := sc.history.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no sample taken yet"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetHistory returns all records in a window
// Query params: duration=5m|10m|1h|24h (default: 10m)
func (sc *StatusController) GetHistory(c *gin.Context) {
	durationStr := c.DefaultQuery("duration", "10m")

	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 || duration > maxHistoryDuration {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration format"})
		return
	}

	window := sc.history.Window(duration)
	c.JSON(http.StatusOK, gin.H{
		"duration": durationStr,
		"count":    len(window.Records),
		"data":     window,
	})
}

// GetForecast returns the forecast of the latest tick, or why there is none
func (sc *StatusController) GetForecast(c *gin.Context) {
	record, ok := sc.history.Latest()
	switch {
	case !ok:
		c.JSON(http.StatusOK, gin.H{"available": false, "reason": "no sample taken yet"})
	case record.Forecast != nil:
		c.JSON(http.StatusOK, gin.H{"available": true, "tick_id": record.ID, "forecast": record.Forecast})
	case record.ForecastUnavailable():
		c.JSON(http.StatusOK, gin.H{"available": false, "reason": record.ForecastError})
	default:
		c.JSON(http.StatusOK, gin.H{"available": false, "reason": "forecasting disabled"})
	}
}

// GetHealth reports liveness of the agent itself
func (sc *StatusController) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
