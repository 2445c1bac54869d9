package models

import "time"

const (
	MinConfidence = 70.0
	MaxConfidence = 100.0
)

// Forecast is a predicted reading at Target. A nil value means its series
// did not have enough points to fit.
type Forecast struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Target      time.Time     `json:"target"`
	Window      time.Duration `json:"window"`
	CPU         *float64      `json:"cpu_percent"`
	Memory      *float64      `json:"memory_percent"`
	Traffic     *float64      `json:"traffic_bytes_per_sec"`
	Confidence  float64       `json:"confidence"` // percent, [MinConfidence, MaxConfidence]
	Samples     int           `json:"samples"`
	Method      string        `json:"method"`
}
