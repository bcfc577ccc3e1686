package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the API process. Everything registers against the
// default registry so promhttp can serve it without extra wiring.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpLatency  prometheus.Histogram

	datasetRows    *prometheus.GaugeVec
	generationRuns prometheus.Counter
	generationSecs prometheus.Histogram

	findings *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "water_http_requests_total",
			Help: "API requests served, by route and status code.",
		}, []string{"route", "status"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "water_http_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		datasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "water_dataset_rows",
			Help: "Rows in the loaded dataset, by table.",
		}, []string{"table"}),
		generationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "water_generation_runs_total",
			Help: "Synthetic dataset generations performed.",
		}),
		generationSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "water_generation_duration_seconds",
			Help:    "Wall time of a full generate-write-reload cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "water_anomaly_findings",
			Help: "Findings in the latest detection pass, by category.",
		}, []string{"category"}),
	}

	prometheus.MustRegister(
		m.httpRequests,
		m.httpLatency,
		m.datasetRows,
		m.generationRuns,
		m.generationSecs,
		m.findings,
	)
	return m
}

// ObserveRequest records one served API request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpLatency.Observe(elapsed.Seconds())
}

// SetDatasetRows publishes the row counts of a freshly loaded dataset.
func (m *Metrics) SetDatasetRows(pressure, flow, leaks int) {
	m.datasetRows.WithLabelValues("pressure").Set(float64(pressure))
	m.datasetRows.WithLabelValues("flow").Set(float64(flow))
	m.datasetRows.WithLabelValues("leak_events").Set(float64(leaks))
}

// ObserveGeneration records one dataset regeneration.
func (m *Metrics) ObserveGeneration(elapsed time.Duration) {
	m.generationRuns.Inc()
	m.generationSecs.Observe(elapsed.Seconds())
}

// SetFindings publishes the counts from the latest anomaly scan.
func (m *Metrics) SetFindings(pressure, flow, leaks, bursts int) {
	m.findings.WithLabelValues("pressure").Set(float64(pressure))
	m.findings.WithLabelValues("flow").Set(float64(flow))
	m.findings.WithLabelValues("leaks").Set(float64(leaks))
	m.findings.WithLabelValues("bursts").Set(float64(bursts))
}
