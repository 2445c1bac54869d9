package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"healthwatch/internal/config"
	"healthwatch/internal/models"
)

// Monitor drives the tick loop: sample, evaluate, forecast, report. Ticks
// never overlap; a tick that overruns the interval defers the next one.
type Monitor struct {
	cfg        config.Config
	sampler    Sampler
	forecaster *Forecaster // nil when forecasting is disabled
	sink       Sink
	logger     zerolog.Logger

	sequence uint64
	lastTime time.Time
}

func NewMonitor(cfg config.Config, sampler Sampler, sink Sink, logger zerolog.Logger) *Monitor {
	m := &Monitor{
		cfg:     cfg,
		sampler: sampler,
		sink:    sink,
		logger:  logger,
	}
	if cfg.ForecastEnabled() {
		m.forecaster = NewForecaster(cfg.ForecastWindow, cfg.ForecastMinHistory)
	}
	return m
}

// Run ticks immediately and then once per interval until ctx is cancelled.
// A tick in flight when ctx is cancelled runs to completion. Run returns nil
// on cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info().
		Dur("interval", m.cfg.Interval).
		Float64("threshold", m.cfg.AlertThreshold).
		Bool("forecast", m.forecaster != nil).
		Msg("monitor started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Uint64("ticks", m.sequence).Msg("monitor stopped")
			return nil
		case <-timer.C:
		}

		start := time.Now()
		m.Tick(context.WithoutCancel(ctx))
		elapsed := time.Since(start)

		// a ready timer would race ctx.Done in the select above
		if ctx.Err() != nil {
			m.logger.Info().Uint64("ticks", m.sequence).Msg("monitor stopped")
			return nil
		}

		wait := m.cfg.Interval - elapsed
		if wait < 0 {
			m.logger.Warn().
				Dur("elapsed", elapsed).
				Dur("interval", m.cfg.Interval).
				Msg("tick overran interval, next tick deferred")
			wait = 0
		}
		timer.Reset(wait)
	}
}

// Tick runs one sample/evaluate/forecast/report cycle and returns the
// record handed to the sink. Sink errors are logged, never returned.
func (m *Monitor) Tick(ctx context.Context) models.TickRecord {
	start := time.Now()
	m.sequence++

	record := models.TickRecord{
		ID:       uuid.NewString(),
		Sequence: m.sequence,
	}

	sampleCtx, cancel := context.WithTimeout(ctx, m.cfg.Interval)
	snap, err := m.sampler.Sample(sampleCtx)
	cancel()
	if err != nil {
		m.logger.Warn().Err(err).Uint64("sequence", record.Sequence).Msg("sampling failed, metrics unknown")
		record.SampleError = err.Error()
		snap = models.Snapshot{Timestamp: start}
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = start
	}
	// keep snapshot order monotonic even if the wall clock steps back
	if !m.lastTime.IsZero() && !snap.Timestamp.After(m.lastTime) {
		snap.Timestamp = m.lastTime.Add(time.Nanosecond)
	}
	m.lastTime = snap.Timestamp
	record.Snapshot = snap

	record.Report = Evaluate(snap, m.cfg)

	if m.forecaster != nil {
		m.forecaster.Observe(snap)
		forecast, err := m.forecaster.Forecast()
		switch {
		case err == nil:
			record.Forecast = &forecast
			record.Report = ApplyForecast(record.Report, record.Forecast)
		case errors.Is(err, ErrInsufficientHistory):
			record.ForecastError = err.Error()
		default:
			m.logger.Error().Err(err).Msg("forecast failed")
			record.ForecastError = err.Error()
		}
	}

	record.Duration = time.Since(start)

	if m.sink != nil {
		if err := m.sink.Report(ctx, record); err != nil {
			m.logger.Error().Err(err).Uint64("sequence", record.Sequence).Msg("reporting tick failed")
		}
	}

	return record
}
