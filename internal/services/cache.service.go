package services

import (
	"context"
	"sync"
	"time"

	"healthwatch/internal/models"
)

// ProcessCache holds the last process listing for a TTL. Walking every
// process is far slower than the other readings.
type ProcessCache struct {
	mu          sync.RWMutex
	processes   []models.ProcessStatus
	lastUpdated time.Time
	ttl         time.Duration
	limit       int
	collect     func(ctx context.Context, limit int) ([]models.ProcessStatus, error)
}

// NewProcessCache caches the top limit processes for ttl.
func NewProcessCache(limit int, ttl time.Duration) *ProcessCache {
	return &ProcessCache{
		ttl:     ttl,
		limit:   limit,
		collect: GetTopProcesses,
	}
}

// isCacheValid checks if cache is still valid
func (pc *ProcessCache) isCacheValid() bool {
	return !pc.lastUpdated.IsZero() && time.Since(pc.lastUpdated) < pc.ttl
}

// Top returns cached processes if valid, otherwise fetches fresh. On a failed
// refresh the stale listing is returned with the error.
func (pc *ProcessCache) Top(ctx context.Context) ([]models.ProcessStatus, error) {
	pc.mu.RLock()
	if pc.isCacheValid() {
		defer pc.mu.RUnlock()
		return pc.processes, nil
	}
	stale := pc.processes
	pc.mu.RUnlock()

	processes, err := pc.collect(ctx, pc.limit)
	if err != nil {
		return stale, err
	}

	pc.mu.Lock()
	pc.processes = processes
	pc.lastUpdated = time.Now()
	pc.mu.Unlock()

	return processes, nil
}
