package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transmile_files_processed_total",
		Help: "Total number of source files processed, by outcome.",
	}, []string{"status"})

	TranspileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transmile_transpile_seconds",
		Help:    "Time spent transpiling a single source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"extension"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transmile_run_seconds",
		Help:    "Time spent on a full tree pass.",
		Buckets: prometheus.DefBuckets,
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transmile_runs_total",
		Help: "Total number of tree passes, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transmile_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transmile_watcher_throttled_total",
		Help: "Total number of change batches delayed by the rebuild rate limit.",
	})
)
