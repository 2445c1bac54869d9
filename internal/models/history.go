package models

import "time"

// TickRecord is everything produced by one tick, as handed to sinks.
type TickRecord struct {
	ID       string        `json:"id"`
	Sequence uint64        `json:"sequence"`
	Snapshot Snapshot      `json:"snapshot"`
	Report   StatusReport  `json:"report"`
	Duration time.Duration `json:"duration"`

	// SampleError is set when the sampler failed and every metric is unknown.
	SampleError string `json:"sample_error,omitempty"`

	// Forecast is nil when forecasting is disabled or unavailable; in the
	// latter case ForecastError carries the reason.
	Forecast      *Forecast `json:"forecast,omitempty"`
	ForecastError string    `json:"forecast_error,omitempty"`
}

// ForecastUnavailable reports whether forecasting ran but produced nothing.
func (r TickRecord) ForecastUnavailable() bool {
	return r.Forecast == nil && r.ForecastError != ""
}

// HistoricalDataWindow holds the tick records inside a time window
type HistoricalDataWindow struct {
	From    time.Time    `json:"from"`
	To      time.Time    `json:"to"`
	Records []TickRecord `json:"records"`
}
