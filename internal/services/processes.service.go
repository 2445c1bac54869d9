package services

import (
	"context"
	"sort"

	"healthwatch/internal/models"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessWithScore helps with sorting
type ProcessWithScore struct {
	models.ProcessStatus
	Score float64
}

// GetTopProcesses returns the top processes ranked by CPU + memory usage
// Pipeline: Collect → Enrich → Sort → Limit
func GetTopProcesses(ctx context.Context, limit int) ([]models.ProcessStatus, error) {
	processes, err := collectProcesses(ctx)
	if err != nil {
		return nil, err
	}

	ranked := limitTo(sortByScore(enrichWithScores(processes)), limit)

	result := make([]models.ProcessStatus, 0, len(ranked))
	for _, p := range ranked {
		result = append(result, p.ProcessStatus)
	}
	return result, nil
}

// COLLECT: Get all processes using gopsutil
func collectProcesses(ctx context.Context) ([]ProcessWithScore, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	processes := make([]ProcessWithScore, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}

		cpuPercent, err := p.CPUPercentWithContext(ctx)
		if err != nil {
			cpuPercent = 0
		}

		memPercent, err := p.MemoryPercentWithContext(ctx)
		if err != nil {
			memPercent = 0
		}

		status, err := p.StatusWithContext(ctx)
		if err != nil || len(status) == 0 {
			status = []string{"unknown"}
		}

		processes = append(processes, ProcessWithScore{
			ProcessStatus: models.ProcessStatus{
				PID:        p.Pid,
				Name:       name,
				CPUPercent: cpuPercent,
				MemPercent: memPercent,
				Status:     mapProcessState(status[0]),
			},
		})
	}

	return processes, nil
}

// ENRICH: Calculate combined scores
func enrichWithScores(processes []ProcessWithScore) []ProcessWithScore {
	enriched := make([]ProcessWithScore, len(processes))
	for i, p := range processes {
		p.Score = p.CPUPercent + float64(p.MemPercent)
		enriched[i] = p
	}
	return enriched
}

// SORT: By score descending
func sortByScore(processes []ProcessWithScore) []ProcessWithScore {
	sorted := make([]ProcessWithScore, len(processes))
	copy(sorted, processes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// LIMIT: Keep only top N
func limitTo(processes []ProcessWithScore, limit int) []ProcessWithScore {
	if limit >= 0 && len(processes) > limit {
		return processes[:limit]
	}
	return processes
}

// mapProcessState converts process state codes to readable strings.
// gopsutil already returns words on most platforms; single letters come
// from raw /proc state.
func mapProcessState(state string) string {
	if len(state) != 1 {
		if state == "" {
			return "unknown"
		}
		return state
	}
	switch state[0] {
	case 'R':
		return "running"
	case 'S':
		return "sleeping"
	case 'D':
		return "disk_sleep"
	case 'Z':
		return "zombie"
	case 'T':
		return "stopped"
	case 't':
		return "tracing_stop"
	case 'W':
		return "paging"
	case 'X', 'x':
		return "dead"
	case 'I':
		return "idle"
	default:
		return state
	}
}
