package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for report generation.
type Metrics struct {
	Reports        *prometheus.CounterVec   // labels: variant, outcome={ok,bad_request,unknown_variant,missing_field,canceled,store_error,error}
	ReportDuration *prometheus.HistogramVec // labels: variant
	ReportWarnings *prometheus.CounterVec   // labels: variant
	RowsRead       *prometheus.CounterVec   // labels: variant
	RowsDropped    *prometheus.CounterVec   // labels: variant, reason={missing_well,missing_elevation,missing_date}

	// Catalog metrics.
	CatalogFetches       *prometheus.CounterVec // labels: outcome={success,error}
	CatalogCache         *prometheus.CounterVec // labels: result={hit,miss}
	CatalogFetchDuration prometheus.Histogram
	CatalogEnabled       prometheus.Gauge

	// Export metrics.
	ExportMessagesProduced prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Reports,
		m.ReportDuration,
		m.ReportWarnings,
		m.RowsRead,
		m.RowsDropped,
		m.CatalogFetches,
		m.CatalogCache,
		m.CatalogFetchDuration,
		m.CatalogEnabled,
		m.ExportMessagesProduced,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater_monthly",
			Name:      "reports_total",
			Help:      "Monthly reports computed by variant and outcome.",
		}, []string{"variant", "outcome"}),
		ReportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "groundwater_monthly",
			Name:      "report_duration_seconds",
			Help:      "Duration of a complete load-enrich-aggregate-pivot run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"variant"}),
		ReportWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater_monthly",
			Name:      "report_warnings_total",
			Help:      "Reports computed in degraded mode (no metadata enrichment).",
		}, []string{"variant"}),
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater_monthly",
			Name:      "rows_read_total",
			Help:      "Measurement rows read from the store.",
		}, []string{"variant"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater_monthly",
			Name:      "rows_dropped_total",
			Help:      "Measurement rows excluded from aggregation by reason.",
		}, []string{"variant", "reason"}),
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater_monthly",
			Name:      "catalog_fetches_total",
			Help:      "Metadata catalog downloads by outcome.",
		}, []string{"outcome"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater_monthly",
			Name:      "catalog_cache_total",
			Help:      "Metadata catalog cache lookups by result.",
		}, []string{"result"}),
		CatalogFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "groundwater_monthly",
			Name:      "catalog_fetch_duration_seconds",
			Help:      "Metadata catalog download duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CatalogEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundwater_monthly",
			Name:      "catalog_enabled",
			Help:      "1 when metadata enrichment is enabled, 0 otherwise.",
		}),
		ExportMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundwater_monthly",
			Name:      "export_messages_produced_total",
			Help:      "Wide-table rows published to the export topic.",
		}),
	}
}
