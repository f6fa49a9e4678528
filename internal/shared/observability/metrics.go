package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	CheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archcheck_check_seconds",
		Help:    "Time spent running one full architecture check.",
		Buckets: prometheus.DefBuckets,
	})

	FilesScanned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archcheck_files_scanned",
		Help: "Number of source files covered by the last check.",
	})

	SubsystemsDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archcheck_subsystems_discovered",
		Help: "Number of manifest-backed subsystems found by the last check.",
	})

	Violations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "archcheck_violations",
		Help: "Violations found by the last check, by severity.",
	}, []string{"severity"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_watcher_events_total",
		Help: "Total number of relevant file system events received in watch mode.",
	})

	RechecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_rechecks_total",
		Help: "Total number of rechecks triggered by file changes.",
	})

	HistoryWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_history_write_errors_total",
		Help: "Total number of failed run history writes.",
	})
)
