package models

// Health is the coarse state of a cloud provider.
type Health string

const (
	HealthHealthy  Health = "HEALTHY"
	HealthDegraded Health = "DEGRADED"
)

// ProviderStatus represents one monitored cloud provider
type ProviderStatus struct {
	Instances   int     `json:"instances"`
	LoadPercent float64 `json:"load_percent"`
	Health      Health  `json:"health"`
	Error       string  `json:"error,omitempty"`
}
