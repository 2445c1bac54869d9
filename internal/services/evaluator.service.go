package services

import (
	"sort"

	"healthwatch/internal/config"
	"healthwatch/internal/models"
)

// Evaluate classifies a snapshot against the alert threshold. The status is
// WARNING when the highest known percentage is strictly above the threshold;
// unknown metrics are listed but never raise the status on their own.
func Evaluate(snap models.Snapshot, cfg config.Config) models.StatusReport {
	report := models.StatusReport{
		Timestamp: snap.Timestamp,
		Status:    models.StatusOptimal,
		Threshold: cfg.AlertThreshold,
	}

	for _, m := range models.ThresholdMetrics {
		v, ok := snap.Value(m)
		if !ok {
			report.Unknown = append(report.Unknown, m)
			continue
		}
		if v <= cfg.AlertThreshold {
			continue
		}
		report.Exceeded = append(report.Exceeded, m)
		// strict comparison keeps the earlier metric on ties
		if report.Metric == "" || v > report.Value {
			report.Metric = m
			report.Value = v
		}
	}

	if len(report.Exceeded) > 0 {
		report.Status = models.StatusWarning
	}

	for name, p := range snap.Providers {
		if p.Health == models.HealthDegraded {
			report.DegradedProviders = append(report.DegradedProviders, name)
		}
	}
	sort.Strings(report.DegradedProviders)

	return report
}

// ApplyForecast flags the report when the forecast expects CPU above the
// threshold.
func ApplyForecast(report models.StatusReport, forecast *models.Forecast) models.StatusReport {
	if forecast != nil && forecast.CPU != nil && *forecast.CPU > report.Threshold {
		report.PredictiveAlert = true
	}
	return report
}
