package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"healthwatch/internal/models"
)

// ConsoleSink writes a line-oriented report per tick. The first line always
// carries the timestamp, status and every metric; detail lines follow in
// debug or verbose mode.
type ConsoleSink struct {
	mu       sync.Mutex
	out      io.Writer
	detailed bool
}

func NewConsoleSink(out io.Writer, detailed bool) *ConsoleSink {
	return &ConsoleSink{out: out, detailed: detailed}
}

func (c *ConsoleSink) Report(ctx context.Context, record models.TickRecord) error {
	var b strings.Builder

	snap := record.Snapshot
	report := record.Report

	fmt.Fprintf(&b, "[%s] status=%s cpu=%s memory=%s disk=%s traffic=%s",
		snap.Timestamp.UTC().Format(time.RFC3339),
		report.Status,
		formatPercent(snap.CPU),
		formatPercent(snap.Memory),
		formatPercent(snap.Disk),
		formatRate(snap.Traffic),
	)
	if report.Status == models.StatusWarning {
		fmt.Fprintf(&b, " trigger=%s threshold=%.0f%%", report.Metric, report.Threshold)
	}
	if report.PredictiveAlert {
		b.WriteString(" predictive_alert=cpu")
	}
	b.WriteString("\n")

	if record.Forecast != nil {
		f := record.Forecast
		fmt.Fprintf(&b, "  forecast +%s: cpu=%s memory=%s traffic=%s confidence=%.2f%%\n",
			f.Window, formatPercent(f.CPU), formatPercent(f.Memory), formatRate(f.Traffic), f.Confidence)
	} else if record.ForecastUnavailable() {
		fmt.Fprintf(&b, "  forecast unavailable: %s\n", record.ForecastError)
	}

	if c.detailed {
		if record.SampleError != "" {
			fmt.Fprintf(&b, "  sample error: %s\n", record.SampleError)
		}
		if len(report.Unknown) > 0 {
			fmt.Fprintf(&b, "  unknown: %s\n", joinMetrics(report.Unknown))
		}

		names := make([]string, 0, len(snap.Providers))
		for name := range snap.Providers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := snap.Providers[name]
			fmt.Fprintf(&b, "  provider %s: instances=%d load=%.2f%% health=%s\n",
				strings.ToUpper(name), p.Instances, p.LoadPercent, p.Health)
		}

		for _, p := range snap.Processes {
			fmt.Fprintf(&b, "  process %d %s: cpu=%.1f%% mem=%.1f%% %s\n",
				p.PID, p.Name, p.CPUPercent, p.MemPercent, p.Status)
		}
		fmt.Fprintf(&b, "  tick #%d took %s\n", record.Sequence, record.Duration.Round(time.Millisecond))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}

func formatPercent(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func formatRate(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.0fB/s", *v)
}

func joinMetrics(metrics []models.Metric) string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = string(m)
	}
	return strings.Join(names, ",")
}
