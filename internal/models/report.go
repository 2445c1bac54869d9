package models

import "time"

// Status is the classification of a snapshot.
type Status string

const (
	StatusOptimal Status = "OPTIMAL"
	StatusWarning Status = "WARNING"
)

// StatusReport is the evaluation of one snapshot.
type StatusReport struct {
	Timestamp         time.Time `json:"timestamp"`
	Status            Status    `json:"status"`
	Metric            Metric    `json:"metric,omitempty"` // triggering metric, set on WARNING
	Value             float64   `json:"value,omitempty"`
	Threshold         float64   `json:"threshold"`
	Exceeded          []Metric  `json:"exceeded,omitempty"`
	Unknown           []Metric  `json:"unknown,omitempty"`
	DegradedProviders []string  `json:"degraded_providers,omitempty"`
	PredictiveAlert   bool      `json:"predictive_alert,omitempty"`
}
