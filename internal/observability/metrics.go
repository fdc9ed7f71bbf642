package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// reconciliation pipeline.
type Metrics struct {
	CyclesTotal   prometheus.Counter
	CycleFailures prometheus.Counter
	CycleRunning  prometheus.Gauge
	CycleDuration prometheus.Histogram

	FeedRecords      prometheus.Counter
	RecordsRejected  prometheus.Counter
	OutagesByOutcome *prometheus.CounterVec // labels: outcome={new,changed,unchanged}

	NotificationsSent   prometheus.Counter
	NotificationsFailed *prometheus.CounterVec // labels: reason={transient,permanent}
	UsersDeactivated    prometheus.Counter
	SendDuration        prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleFailures,
		m.CycleRunning,
		m.CycleDuration,
		m.FeedRecords,
		m.RecordsRejected,
		m.OutagesByOutcome,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.UsersDeactivated,
		m.SendDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "cycles_total",
			Help:      "Total reconciliation cycles started.",
		}),
		CycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "cycle_failures_total",
			Help:      "Cycles that ended with an error (feed unreachable, aborted).",
		}),
		CycleRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kouran",
			Name:      "cycle_running",
			Help:      "1 while a reconciliation cycle is in flight, 0 otherwise.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kouran",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete normalize-reconcile-match-dispatch cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		FeedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "feed_records_total",
			Help:      "Raw records received from the outage feed.",
		}),
		RecordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "feed_records_rejected_total",
			Help:      "Feed records skipped by the normalizer (bad window, parse failure).",
		}),
		OutagesByOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "outages_reconciled_total",
			Help:      "Reconciled candidates by outcome.",
		}, []string{"outcome"}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "notifications_sent_total",
			Help:      "Notifications successfully delivered to the gateway.",
		}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "notifications_failed_total",
			Help:      "Delivery failures by classification.",
		}, []string{"reason"}),
		UsersDeactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kouran",
			Name:      "users_deactivated_total",
			Help:      "Users marked inactive after a permanent delivery failure.",
		}),
		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kouran",
			Name:      "send_duration_seconds",
			Help:      "Gateway send duration in seconds, including retries.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
