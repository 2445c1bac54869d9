package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthwatch/internal/models"
)

func TestNetworkRate(t *testing.T) {
	h := NewHostSampler("", nil, nil, nil, zerolog.Nop())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, h.networkRate(1000, 2000, start), "first call only records the baseline")

	rate := h.networkRate(1500, 3500, start.Add(2*time.Second))
	require.NotNil(t, rate)
	assert.InDelta(t, 1000, *rate, 1e-9)

	assert.Nil(t, h.networkRate(10, 10, start.Add(4*time.Second)), "counter reset")

	rate = h.networkRate(110, 10, start.Add(5*time.Second))
	require.NotNil(t, rate)
	assert.InDelta(t, 100, *rate, 1e-9)
}

func TestNewHostSamplerDefaultsDiskPath(t *testing.T) {
	assert.Equal(t, "/", NewHostSampler("", nil, nil, nil, zerolog.Nop()).diskPath)
	assert.Equal(t, "/data", NewHostSampler("/data", nil, nil, nil, zerolog.Nop()).diskPath)
}

func TestProcessCacheHonoursTTL(t *testing.T) {
	calls := 0
	cache := NewProcessCache(2, time.Hour)
	cache.collect = func(ctx context.Context, limit int) ([]models.ProcessStatus, error) {
		calls++
		assert.Equal(t, 2, limit)
		return []models.ProcessStatus{{PID: int32(calls), Name: "worker"}}, nil
	}

	first, err := cache.Top(context.Background())
	require.NoError(t, err)
	second, err := cache.Top(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestProcessCacheReturnsStaleOnFailure(t *testing.T) {
	cache := NewProcessCache(5, time.Nanosecond)
	cache.collect = func(ctx context.Context, limit int) ([]models.ProcessStatus, error) {
		return []models.ProcessStatus{{PID: 1, Name: "init"}}, nil
	}
	_, err := cache.Top(context.Background())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	cache.collect = func(ctx context.Context, limit int) ([]models.ProcessStatus, error) {
		return nil, errors.New("permission denied")
	}
	stale, err := cache.Top(context.Background())

	assert.Error(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "init", stale[0].Name)
}

func TestProcessRanking(t *testing.T) {
	processes := []ProcessWithScore{
		{ProcessStatus: models.ProcessStatus{PID: 1, CPUPercent: 1, MemPercent: 1}},
		{ProcessStatus: models.ProcessStatus{PID: 2, CPUPercent: 50, MemPercent: 10}},
		{ProcessStatus: models.ProcessStatus{PID: 3, CPUPercent: 5, MemPercent: 30}},
	}

	ranked := limitTo(sortByScore(enrichWithScores(processes)), 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, int32(2), ranked[0].PID)
	assert.Equal(t, int32(3), ranked[1].PID)
	assert.Equal(t, 60.0, ranked[0].Score)
}

func TestMapProcessState(t *testing.T) {
	assert.Equal(t, "running", mapProcessState("R"))
	assert.Equal(t, "zombie", mapProcessState("Z"))
	assert.Equal(t, "sleep", mapProcessState("sleep"))
	assert.Equal(t, "unknown", mapProcessState(""))
	assert.Equal(t, "Q", mapProcessState("Q"))
}
