package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest and dispatch pipelines.
type Metrics struct {
	// Ingestion metrics.
	AlertsFetched   *prometheus.CounterVec // labels: feed={generic,seismic}
	AlertsStored    *prometheus.CounterVec // labels: outcome={inserted,updated}
	AlertsSkipped   *prometheus.CounterVec // labels: reason={malformed,store_error}
	IngestCycles    prometheus.Counter
	IngestErrors    prometheus.Counter
	IngestDuration  prometheus.Histogram
	BundlePublishes *prometheus.CounterVec // labels: outcome={success,failure}

	// Dispatch metrics.
	SensorsChecked    prometheus.Counter
	MatchesPublished  prometheus.Counter
	PublishFailures   prometheus.Counter
	DispatchPasses    prometheus.Counter
	DispatchDuration  prometheus.Histogram
	DispatcherRunning prometheus.Gauge

	// Telemetry metrics.
	TelemetryReceived *prometheus.CounterVec // labels: outcome={recorded,malformed,store_error}

	// Polygon lookup metrics.
	AreaLookups *prometheus.CounterVec // labels: outcome={success,error,empty}
	AreaCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AlertsFetched,
		m.AlertsStored,
		m.AlertsSkipped,
		m.IngestCycles,
		m.IngestErrors,
		m.IngestDuration,
		m.BundlePublishes,
		m.SensorsChecked,
		m.MatchesPublished,
		m.PublishFailures,
		m.DispatchPasses,
		m.DispatchDuration,
		m.DispatcherRunning,
		m.TelemetryReceived,
		m.AreaLookups,
		m.AreaCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "alerts_fetched_total",
			Help:      "Raw alert records fetched from the upstream feeds.",
		}, []string{"feed"}),
		AlertsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "alerts_stored_total",
			Help:      "Canonical alerts upserted into the store.",
		}, []string{"outcome"}),
		AlertsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "alerts_skipped_total",
			Help:      "Alert records skipped during ingestion.",
		}, []string{"reason"}),
		IngestCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "ingest_cycles_total",
			Help:      "Completed fetch-normalize-store cycles.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "ingest_errors_total",
			Help:      "Ingest cycles aborted by upstream failures.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cap_dispatch",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete ingest cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		BundlePublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "bundle_publishes_total",
			Help:      "Category bundle publications by outcome.",
		}, []string{"outcome"}),
		SensorsChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "sensors_checked_total",
			Help:      "Sensor snapshots evaluated for containment.",
		}),
		MatchesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "matches_published_total",
			Help:      "Sensor-alert match events published.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "publish_failures_total",
			Help:      "Match publications that failed.",
		}),
		DispatchPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "dispatch_passes_total",
			Help:      "Completed dispatch passes.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cap_dispatch",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a complete dispatch pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		DispatcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cap_dispatch",
			Name:      "dispatcher_running",
			Help:      "1 when the dispatch loop is active, 0 when shut down.",
		}),
		TelemetryReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "telemetry_received_total",
			Help:      "Inbound sensor telemetry events by outcome.",
		}, []string{"outcome"}),
		AreaLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "area_lookups_total",
			Help:      "Polygon lookup requests by outcome.",
		}, []string{"outcome"}),
		AreaCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cap_dispatch",
			Name:      "area_cache_total",
			Help:      "Polygon lookup cache results.",
		}, []string{"result"}),
	}
}
