package services

import (
	"context"

	"github.com/rs/zerolog"

	"healthwatch/internal/models"
)

// LogSink emits one structured event per tick.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Report(ctx context.Context, record models.TickRecord) error {
	event := l.logger.Info()
	if record.Report.Status == models.StatusWarning {
		event = l.logger.Warn()
	}

	event = event.
		Str("tick_id", record.ID).
		Uint64("sequence", record.Sequence).
		Time("sampled_at", record.Snapshot.Timestamp).
		Str("status", string(record.Report.Status)).
		Dur("duration", record.Duration)

	for _, m := range []models.Metric{models.MetricCPU, models.MetricMemory, models.MetricDisk, models.MetricTraffic} {
		if v, ok := record.Snapshot.Value(m); ok {
			event = event.Float64(string(m), v)
		}
	}
	if record.Report.Metric != "" {
		event = event.Str("trigger", string(record.Report.Metric))
	}
	if len(record.Report.Unknown) > 0 {
		event = event.Str("unknown", joinMetrics(record.Report.Unknown))
	}
	if len(record.Report.DegradedProviders) > 0 {
		event = event.Strs("degraded_providers", record.Report.DegradedProviders)
	}
	if record.SampleError != "" {
		event = event.Str("sample_error", record.SampleError)
	}

	switch {
	case record.Forecast != nil:
		event = event.
			Float64("forecast_confidence", record.Forecast.Confidence).
			Bool("predictive_alert", record.Report.PredictiveAlert)
		if record.Forecast.CPU != nil {
			event = event.Float64("forecast_cpu", *record.Forecast.CPU)
		}
		if record.Forecast.Memory != nil {
			event = event.Float64("forecast_memory", *record.Forecast.Memory)
		}
	case record.ForecastUnavailable():
		event = event.Str("forecast", "unavailable").Str("forecast_error", record.ForecastError)
	}

	event.Msg("health check")
	return nil
}
