package models

import "time"

// Metric names a sampled resource.
type Metric string

const (
	MetricCPU     Metric = "cpu"
	MetricMemory  Metric = "memory"
	MetricDisk    Metric = "disk"
	MetricTraffic Metric = "traffic"
)

// ThresholdMetrics are the percentages compared against the alert threshold,
// in tie-break order.
var ThresholdMetrics = []Metric{MetricCPU, MetricMemory, MetricDisk}

// Snapshot is a single point-in-time reading. A nil metric is unknown: the
// source could not be read on this tick.
type Snapshot struct {
	Timestamp time.Time                 `json:"timestamp"`
	CPU       *float64                  `json:"cpu_percent"`
	Memory    *float64                  `json:"memory_percent"`
	Disk      *float64                  `json:"disk_percent"`
	Traffic   *float64                  `json:"traffic_bytes_per_sec"` // bytes/sec across interfaces
	Providers map[string]ProviderStatus `json:"providers,omitempty"`
	Processes []ProcessStatus           `json:"processes,omitempty"`
}

// Value returns the reading for m and whether it is known.
func (s Snapshot) Value(m Metric) (float64, bool) {
	var v *float64
	switch m {
	case MetricCPU:
		v = s.CPU
	case MetricMemory:
		v = s.Memory
	case MetricDisk:
		v = s.Disk
	case MetricTraffic:
		v = s.Traffic
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// HasReadings reports whether any metric is known.
func (s Snapshot) HasReadings() bool {
	return s.CPU != nil || s.Memory != nil || s.Disk != nil || s.Traffic != nil
}

// Float returns a pointer to v, for building snapshots.
func Float(v float64) *float64 {
	return &v
}
