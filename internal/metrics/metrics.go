// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "optcg"

// Metrics holds Prometheus metrics for the API and the metagame computations.
// Collectors live on a private registry so several instances can coexist.
type Metrics struct {
	registry *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	computeDuration *prometheus.HistogramVec
	matrixLeaders   prometheus.Gauge
	moverCount      *prometheus.GaugeVec
	importedRecords *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compute_duration_seconds",
				Help:      "Duration of derived view computations in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),
		matrixLeaders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "matchup_matrix_leaders",
				Help:      "Number of leaders in the last built matchup matrix",
			},
		),
		moverCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "price_movers",
				Help:      "Number of price movers in the last computation",
			},
			[]string{"direction"},
		),
		importedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_records_total",
				Help:      "Total number of records written by imports",
			},
			[]string{"entity"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCounter,
		m.requestDuration,
		m.computeDuration,
		m.matrixLeaders,
		m.moverCount,
		m.importedRecords,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request. route is the matched
// route pattern, not the raw path, to bound label cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveCompute records the duration of a derived view computation.
func (m *Metrics) ObserveCompute(operation string, d time.Duration) {
	m.computeDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// SetMatrixLeaders records the size of the last matchup matrix.
func (m *Metrics) SetMatrixLeaders(n int) {
	m.matrixLeaders.Set(float64(n))
}

// SetMovers records the size of the last movers computation.
func (m *Metrics) SetMovers(gainers, losers int) {
	m.moverCount.WithLabelValues("gainers").Set(float64(gainers))
	m.moverCount.WithLabelValues("losers").Set(float64(losers))
}

// AddImported counts records written by an import.
func (m *Metrics) AddImported(entity string, n int) {
	m.importedRecords.WithLabelValues(entity).Add(float64(n))
}
