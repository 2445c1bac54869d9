package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"healthwatch/internal/models"
)

// ErrInsufficientHistory is returned when there are too few snapshots to fit
// a trend.
var ErrInsufficientHistory = errors.New("insufficient history")

const (
	ForecastMethod = "linear-least-squares"

	// maxHistory caps the buffer when the interval is tiny relative to the
	// window.
	maxHistory = 1024
)

// Forecaster keeps a bounded history of recent snapshots and extrapolates
// from it. It is not safe for concurrent use; the monitor loop owns it.
type Forecaster struct {
	window     time.Duration
	minHistory int
	history    []models.Snapshot
	now        func() time.Time
}

func NewForecaster(window time.Duration, minHistory int) *Forecaster {
	return &Forecaster{
		window:     window,
		minHistory: minHistory,
		now:        time.Now,
	}
}

// Observe appends a snapshot and drops entries older than the window,
// measured from the newest entry. Snapshots without readings are ignored.
func (f *Forecaster) Observe(snap models.Snapshot) {
	if !snap.HasReadings() {
		return
	}

	f.history = append(f.history, snap)

	cutoff := snap.Timestamp.Add(-f.window)
	drop := 0
	for drop < len(f.history) && f.history[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if over := len(f.history) - drop - maxHistory; over > 0 {
		drop += over
	}
	if drop > 0 {
		f.history = append(f.history[:0], f.history[drop:]...)
	}
}

// Len returns the number of buffered snapshots.
func (f *Forecaster) Len() int {
	return len(f.history)
}

// Forecast predicts over the buffered history.
func (f *Forecaster) Forecast() (models.Forecast, error) {
	forecast, err := Predict(f.history, f.window, f.minHistory)
	if err != nil {
		return forecast, err
	}
	forecast.GeneratedAt = f.now()
	return forecast, nil
}

// Predict fits a least-squares line per series and extrapolates it to
// window past the newest snapshot. Each series needs minHistory known
// points; when none has, ErrInsufficientHistory is returned.
func Predict(history []models.Snapshot, window time.Duration, minHistory int) (models.Forecast, error) {
	if len(history) < minHistory {
		return models.Forecast{}, fmt.Errorf("%w: have %d snapshots, need %d", ErrInsufficientHistory, len(history), minHistory)
	}

	start := history[0].Timestamp
	last := history[len(history)-1].Timestamp
	target := last.Add(window)
	targetX := target.Sub(start).Seconds()

	forecast := models.Forecast{
		Target:  target,
		Window:  window,
		Samples: len(history),
		Method:  ForecastMethod,
	}

	var r2s []float64
	fit := func(m models.Metric, lo, hi float64) *float64 {
		var x, y []float64
		for _, s := range history {
			if v, ok := s.Value(m); ok {
				x = append(x, s.Timestamp.Sub(start).Seconds())
				y = append(y, v)
			}
		}
		if len(x) < minHistory {
			return nil
		}

		slope, intercept, r2 := linearRegression(x, y)
		r2s = append(r2s, r2)
		predicted := clamp(slope*targetX+intercept, lo, hi)
		return &predicted
	}

	forecast.CPU = fit(models.MetricCPU, 0, 100)
	forecast.Memory = fit(models.MetricMemory, 0, 100)
	forecast.Traffic = fit(models.MetricTraffic, 0, math.Inf(1))

	if len(r2s) == 0 {
		return models.Forecast{}, fmt.Errorf("%w: no series has %d known points", ErrInsufficientHistory, minHistory)
	}

	forecast.Confidence = confidence(calculateAverage(r2s))
	return forecast, nil
}

// confidence maps a goodness of fit in [0,1] onto [MinConfidence, MaxConfidence].
func confidence(r2 float64) float64 {
	span := models.MaxConfidence - models.MinConfidence
	return clamp(models.MinConfidence+span*r2, models.MinConfidence, models.MaxConfidence)
}

// linearRegression performs simple linear regression
// Returns: slope, intercept, R² (coefficient of determination)
func linearRegression(x, y []float64) (slope, intercept, r2 float64) {
	if len(x) == 0 {
		return 0, 0, 0
	}

	meanX := calculateAverage(x)
	meanY := calculateAverage(y)

	numerator := 0.0
	denominator := 0.0
	for i := range x {
		numerator += (x[i] - meanX) * (y[i] - meanY)
		denominator += (x[i] - meanX) * (x[i] - meanX)
	}

	// all points at the same instant: no trend, predict the mean
	if denominator == 0 {
		return 0, meanY, 0
	}

	slope = numerator / denominator
	intercept = meanY - slope*meanX

	ssTotal := 0.0
	ssRes := 0.0
	for i := range x {
		predicted := slope*x[i] + intercept
		ssRes += (y[i] - predicted) * (y[i] - predicted)
		ssTotal += (y[i] - meanY) * (y[i] - meanY)
	}

	// a flat series is fitted exactly
	if ssTotal == 0 {
		return slope, intercept, 1
	}

	r2 = clamp(1.0-(ssRes/ssTotal), 0, 1)
	return slope, intercept, r2
}

func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
