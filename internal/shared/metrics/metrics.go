package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "modwatch"

// Metrics holds the Prometheus collectors of the poll loop.
type Metrics struct {
	Cycles          prometheus.Counter
	CycleDuration   prometheus.Histogram
	FetchFailures   *prometheus.CounterVec // labels: kind
	Removals        *prometheus.CounterVec // labels: kind (moderated, self_deleted)
	Persisted       *prometheus.CounterVec // labels: result (stored, duplicate, error)
	Discovered      prometheus.Counter
	Evicted         prometheus.Counter
	MonitoredForums prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "cycles_total",
			Help:      "Completed poll cycles",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one poll cycle",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "fetch_failures_total",
			Help:      "Forum fetches that failed, by failure kind",
		}, []string{"kind"}),
		Removals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "removals_total",
			Help:      "Postings that disappeared between snapshots, by classification",
		}, []string{"kind"}),
		Persisted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "events_total",
			Help:      "Moderation events handed to the sink, by result",
		}, []string{"result"}),
		Discovered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forums",
			Name:      "discovered_total",
			Help:      "Forums added by discovery",
		}),
		Evicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forums",
			Name:      "evicted_total",
			Help:      "Forums dropped for inactivity",
		}),
		MonitoredForums: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "forums",
			Name:      "monitored",
			Help:      "Forums currently monitored",
		}),
	}
}
