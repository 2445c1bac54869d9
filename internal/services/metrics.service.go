package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthwatch/internal/models"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// ErrSampleUnavailable is returned when no metric source could be read.
var ErrSampleUnavailable = errors.New("sample unavailable")

// Sampler produces one snapshot per tick.
type Sampler interface {
	Sample(ctx context.Context) (models.Snapshot, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (models.Snapshot, error)

func (f SamplerFunc) Sample(ctx context.Context) (models.Snapshot, error) {
	return f(ctx)
}

// HostSampler reads the local machine through gopsutil. It keeps the last
// network counters to turn them into a rate, so a single HostSampler must
// not be shared between loops.
type HostSampler struct {
	diskPath  string
	providers []string
	prober    ProviderProber
	processes *ProcessCache
	logger    zerolog.Logger

	lastNetworkSent uint64
	lastNetworkRecv uint64
	lastNetworkTime time.Time
}

// NewHostSampler creates a sampler for diskPath. prober may be nil when no
// providers are monitored; processes may be nil to skip process listing.
func NewHostSampler(diskPath string, providers []string, prober ProviderProber, processes *ProcessCache, logger zerolog.Logger) *HostSampler {
	if diskPath == "" {
		diskPath = "/"
	}
	return &HostSampler{
		diskPath:  diskPath,
		providers: providers,
		prober:    prober,
		processes: processes,
		logger:    logger,
	}
}

// Sample reads every metric independently. A failed reading leaves that
// metric unknown; only when all of them fail is ErrSampleUnavailable returned.
func (h *HostSampler) Sample(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{Timestamp: time.Now()}
	var failures []string

	if v, err := GetCPUUsage(ctx); err != nil {
		failures = append(failures, err.Error())
	} else {
		snap.CPU = &v
	}

	if v, err := GetMemoryUsage(ctx); err != nil {
		failures = append(failures, err.Error())
	} else {
		snap.Memory = &v
	}

	if v, err := GetDiskUsage(ctx, h.diskPath); err != nil {
		failures = append(failures, err.Error())
	} else {
		snap.Disk = &v
	}

	sent, recv, err := GetNetworkTotals(ctx)
	if err != nil {
		failures = append(failures, err.Error())
	} else {
		snap.Traffic = h.networkRate(sent, recv, snap.Timestamp)
	}

	for _, f := range failures {
		h.logger.Warn().Str("error", f).Msg("metric read failed")
	}
	if len(failures) == 4 {
		return models.Snapshot{Timestamp: snap.Timestamp}, fmt.Errorf("%w: %s", ErrSampleUnavailable, strings.Join(failures, "; "))
	}

	if len(h.providers) > 0 && h.prober != nil {
		snap.Providers = ProbeProviders(ctx, h.prober, h.providers)
	}

	if h.processes != nil {
		procs, err := h.processes.Top(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("process listing failed")
		}
		snap.Processes = procs
	}

	return snap, nil
}

// networkRate converts cumulative counters into bytes/sec. The first call,
// and any call after a counter reset, only records the baseline.
func (h *HostSampler) networkRate(sent, recv uint64, now time.Time) *float64 {
	prevSent, prevRecv, prevTime := h.lastNetworkSent, h.lastNetworkRecv, h.lastNetworkTime
	h.lastNetworkSent, h.lastNetworkRecv, h.lastNetworkTime = sent, recv, now

	if prevTime.IsZero() || sent < prevSent || recv < prevRecv {
		return nil
	}

	elapsed := now.Sub(prevTime).Seconds()
	if elapsed <= 0 {
		return nil
	}

	rate := float64((sent-prevSent)+(recv-prevRecv)) / elapsed
	return &rate
}

// GetCPUUsage returns overall CPU usage percentage
func GetCPUUsage(ctx context.Context) (float64, error) {
	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(percentage) == 0 {
		return 0, fmt.Errorf("failed to get CPU usage: no data")
	}
	return percentage[0], nil
}

// GetMemoryUsage returns virtual memory usage percentage
func GetMemoryUsage(ctx context.Context) (float64, error) {
	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get memory usage: %w", err)
	}
	return virtualMemory.UsedPercent, nil
}

// GetDiskUsage returns disk usage percentage for a specific path
func GetDiskUsage(ctx context.Context, path string) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk usage for %s: %w", path, err)
	}
	return usage.UsedPercent, nil
}

// GetNetworkTotals returns total bytes sent/received across all interfaces
func GetNetworkTotals(ctx context.Context) (sent, recv uint64, err error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get network usage: %w", err)
	}

	for _, counter := range counters {
		if counter.Name == "lo" {
			continue
		}
		sent += counter.BytesSent
		recv += counter.BytesRecv
	}

	return sent, recv, nil
}
