package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Labels: path (directive, document), outcome (applied, skipped, failed, cancelled)
	effectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgersync",
		Subsystem: "sync",
		Name:      "effects_total",
		Help:      "Downstream effects considered by the sync scan, by outcome",
	}, []string{"path", "outcome"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledgersync",
		Subsystem: "sync",
		Name:      "scan_duration_seconds",
		Help:      "Duration of a full sync scan",
		Buckets:   prometheus.DefBuckets,
	})

	postFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgersync",
		Subsystem: "sync",
		Name:      "post_failures_total",
		Help:      "Movements created but not posted",
	})
)
