package history

import (
	"math"
	"time"
)

// Stats aggregates a window of runs.
type Stats struct {
	Runs          int
	FailedRuns    int
	FilesBuilt    int
	FilesFailed   int
	AvgDuration   time.Duration
	FailureRate   float64
	LastSuccessAt time.Time
}

// Summarize computes Stats over runs in any order.
func Summarize(runs []Run) Stats {
	stats := Stats{Runs: len(runs)}
	if len(runs) == 0 {
		return stats
	}

	var total time.Duration
	for _, r := range runs {
		total += r.Duration()
		stats.FilesBuilt += r.Transpiled
		stats.FilesFailed += r.Failed
		if r.Outcome == OutcomeFailed {
			stats.FailedRuns++
			continue
		}
		if r.FinishedAt.After(stats.LastSuccessAt) {
			stats.LastSuccessAt = r.FinishedAt
		}
	}
	stats.AvgDuration = total / time.Duration(len(runs))
	stats.FailureRate = round2(float64(stats.FailedRuns) / float64(len(runs)) * 100)
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
