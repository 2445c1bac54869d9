package services

import (
	"context"
	"sync"
	"time"

	"healthwatch/internal/models"
)

// HistorySink keeps the most recent tick records for the HTTP API. It is
// written by the monitor loop and read by request handlers.
type HistorySink struct {
	mu            sync.RWMutex
	records       []models.TickRecord
	maxDataPoints int // Keep only this many records (e.g., 720 = 1h at a 5s interval)
	now           func() time.Time
}

func NewHistorySink(maxDataPoints int) *HistorySink {
	if maxDataPoints <= 0 {
		maxDataPoints = 720
	}
	return &HistorySink{
		records:       make([]models.TickRecord, 0, maxDataPoints),
		maxDataPoints: maxDataPoints,
		now:           time.Now,
	}
}

func (h *HistorySink) Report(ctx context.Context, record models.TickRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, record)
	if len(h.records) > h.maxDataPoints {
		h.records = h.records[len(h.records)-h.maxDataPoints:]
	}
	return nil
}

// Latest returns the most recent record, or false before the first tick.
func (h *HistorySink) Latest() (models.TickRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.records) == 0 {
		return models.TickRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

// Window returns the records sampled within duration of now.
func (h *HistorySink) Window(duration time.Duration) models.HistoricalDataWindow {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	cutoffTime := now.Add(-duration)

	window := models.HistoricalDataWindow{
		From:    cutoffTime,
		To:      now,
		Records: []models.TickRecord{},
	}
	for _, r := range h.records {
		if r.Snapshot.Timestamp.After(cutoffTime) {
			window.Records = append(window.Records, r)
		}
	}
	return window
}
