package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SourceRequests counts vulnerability source attempts by HTTP status ("error" for transport failures)
	SourceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetvuln",
			Name:      "source_requests_total",
			Help:      "Total number of requests sent to the vulnerability source",
		},
		[]string{"status"},
	)

	// SourceRetries counts attempts repeated after a retryable status
	SourceRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "assetvuln",
			Name:      "source_retries_total",
			Help:      "Total number of retried vulnerability source requests",
		},
	)

	// Ingested counts ingestion outcomes: created, existing, error
	Ingested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetvuln",
			Name:      "ingested_total",
			Help:      "Total number of vulnerability records ingested per outcome",
		},
		[]string{"result"},
	)

	// Notifications counts notification outcomes: published, duplicate, publish_error, store_error
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetvuln",
			Name:      "notifications_total",
			Help:      "Total number of notifications per outcome",
		},
		[]string{"result"},
	)

	// AssetsSkipped counts assets not reconciled in a run
	AssetsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetvuln",
			Name:      "assets_skipped_total",
			Help:      "Total number of assets skipped during reconciliation",
		},
		[]string{"reason"},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "assetvuln",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of single asset reconciliations",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(SourceRequests)
		prometheus.DefaultRegisterer.Register(SourceRetries)
		prometheus.DefaultRegisterer.Register(Ingested)
		prometheus.DefaultRegisterer.Register(Notifications)
		prometheus.DefaultRegisterer.Register(AssetsSkipped)
		prometheus.DefaultRegisterer.Register(ReconcileDuration)
	})
}
