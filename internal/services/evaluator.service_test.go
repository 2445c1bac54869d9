package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"healthwatch/internal/config"
	"healthwatch/internal/models"
)

func snapshot(cpu, memory, disk *float64) models.Snapshot {
	return models.Snapshot{
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		CPU:       cpu,
		Memory:    memory,
		Disk:      disk,
	}
}

func TestEvaluateCPUAboveThreshold(t *testing.T) {
	cfg := config.Config{AlertThreshold: 80}
	report := Evaluate(snapshot(models.Float(85), models.Float(40), models.Float(30)), cfg)

	assert.Equal(t, models.StatusWarning, report.Status)
	assert.Equal(t, models.MetricCPU, report.Metric)
	assert.Equal(t, 85.0, report.Value)
	assert.Equal(t, []models.Metric{models.MetricCPU}, report.Exceeded)
	assert.Empty(t, report.Unknown)
}

func TestEvaluateClassification(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		snap      models.Snapshot
		status    models.Status
		metric    models.Metric
	}{
		{"all below", 80, snapshot(models.Float(10), models.Float(20), models.Float(30)), models.StatusOptimal, ""},
		{"equal is not above", 80, snapshot(models.Float(80), models.Float(80), models.Float(80)), models.StatusOptimal, ""},
		{"memory only", 80, snapshot(models.Float(10), models.Float(80.01), models.Float(30)), models.StatusWarning, models.MetricMemory},
		{"highest wins", 50, snapshot(models.Float(60), models.Float(95), models.Float(70)), models.StatusWarning, models.MetricMemory},
		{"tie keeps first in order", 50, snapshot(models.Float(60), models.Float(90), models.Float(90)), models.StatusWarning, models.MetricMemory},
		{"disk only", 90, snapshot(models.Float(10), models.Float(10), models.Float(99)), models.StatusWarning, models.MetricDisk},
		{"threshold 100 never fires", 100, snapshot(models.Float(100), models.Float(100), models.Float(100)), models.StatusOptimal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Evaluate(tt.snap, config.Config{AlertThreshold: tt.threshold})
			assert.Equal(t, tt.status, report.Status)
			assert.Equal(t, tt.metric, report.Metric)
			assert.Equal(t, tt.threshold, report.Threshold)
		})
	}
}

func TestEvaluateWarningIffAnyMetricAboveThreshold(t *testing.T) {
	values := []float64{0, 25, 50, 74.99, 75, 75.01, 99, 100}
	threshold := 75.0

	for _, cpu := range values {
		for _, memory := range values {
			for _, disk := range values {
				report := Evaluate(snapshot(models.Float(cpu), models.Float(memory), models.Float(disk)), config.Config{AlertThreshold: threshold})
				above := cpu > threshold || memory > threshold || disk > threshold
				if above {
					assert.Equal(t, models.StatusWarning, report.Status, "cpu=%v memory=%v disk=%v", cpu, memory, disk)
				} else {
					assert.Equal(t, models.StatusOptimal, report.Status, "cpu=%v memory=%v disk=%v", cpu, memory, disk)
				}
			}
		}
	}
}

func TestEvaluateUnknownMetricsNeverWarn(t *testing.T) {
	report := Evaluate(snapshot(nil, nil, nil), config.Config{AlertThreshold: 1})

	assert.Equal(t, models.StatusOptimal, report.Status)
	assert.Equal(t, []models.Metric{models.MetricCPU, models.MetricMemory, models.MetricDisk}, report.Unknown)

	report = Evaluate(snapshot(nil, models.Float(95), nil), config.Config{AlertThreshold: 80})
	assert.Equal(t, models.StatusWarning, report.Status)
	assert.Equal(t, models.MetricMemory, report.Metric)
	assert.Equal(t, []models.Metric{models.MetricCPU, models.MetricDisk}, report.Unknown)
}

func TestEvaluateListsDegradedProvidersSorted(t *testing.T) {
	snap := snapshot(models.Float(1), models.Float(1), models.Float(1))
	snap.Providers = map[string]models.ProviderStatus{
		"gcp":   {Health: models.HealthDegraded},
		"aws":   {Health: models.HealthDegraded},
		"azure": {Health: models.HealthHealthy},
	}

	report := Evaluate(snap, config.Config{AlertThreshold: 80})

	assert.Equal(t, models.StatusOptimal, report.Status)
	assert.Equal(t, []string{"aws", "gcp"}, report.DegradedProviders)
}

func TestApplyForecast(t *testing.T) {
	base := models.StatusReport{Status: models.StatusOptimal, Threshold: 80}

	assert.False(t, ApplyForecast(base, nil).PredictiveAlert)
	assert.False(t, ApplyForecast(base, &models.Forecast{}).PredictiveAlert)
	assert.False(t, ApplyForecast(base, &models.Forecast{CPU: models.Float(80)}).PredictiveAlert)

	flagged := ApplyForecast(base, &models.Forecast{CPU: models.Float(92)})
	assert.True(t, flagged.PredictiveAlert)
	assert.Equal(t, models.StatusOptimal, flagged.Status)
}
