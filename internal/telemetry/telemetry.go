// Package telemetry provides Prometheus metrics for the catalog service and
// loader.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Load outcomes recorded by RecordLoad.
const (
	LoadResultSuccess = "success"
	LoadResultFailure = "failure"
)

// Metrics holds all catalog Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	ChapterRatings *prometheus.CounterVec

	// Loader metrics
	LoadRuns      *prometheus.CounterVec
	LoadDocuments *prometheus.GaugeVec
	LoadDuration  prometheus.Histogram
}

// Provider owns the registry the metrics are registered with.
type Provider struct {
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider registers the catalog metrics, plus Go runtime and process
// collectors, on a fresh registry.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewProviderWithRegistry(reg)
}

// NewProviderWithRegistry registers the catalog metrics on reg.
func NewProviderWithRegistry(reg *prometheus.Registry) *Provider {
	factory := promauto.With(reg)
	m := &Metrics{}
	initHTTPMetrics(factory, m)
	initDomainMetrics(factory, m)
	initLoaderMetrics(factory, m)

	return &Provider{
		Metrics:  m,
		registry: reg,
	}
}

func initHTTPMetrics(factory promauto.Factory, m *Metrics) {
	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "route"})
}

func initDomainMetrics(factory promauto.Factory, m *Metrics) {
	m.ChapterRatings = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chapter_ratings_total",
		Help:      "Chapter ratings persisted, by polarity",
	}, []string{"polarity"})
}

func initLoaderMetrics(factory promauto.Factory, m *Metrics) {
	m.LoadRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loader_runs_total",
		Help:      "Loader runs by result",
	}, []string{"result"})

	m.LoadDocuments = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "loader_last_run_documents",
		Help:      "Documents inserted, matched and modified by the last successful load",
	}, []string{"outcome"})

	m.LoadDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "loader_run_duration_seconds",
		Help:      "Wall time of a loader run",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
}

// Handler returns the /metrics handler for the provider's registry.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// ObserveRequest records one HTTP request.
func (p *Provider) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.Metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.Metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRating counts a persisted chapter rating.
func (p *Provider) RecordRating(polarity string) {
	p.Metrics.ChapterRatings.WithLabelValues(polarity).Inc()
}

// RecordLoad records the outcome of a loader run. Document gauges are only
// updated on success.
func (p *Provider) RecordLoad(err error, inserted, matched, modified int64, duration time.Duration) {
	p.Metrics.LoadDuration.Observe(duration.Seconds())
	if err != nil {
		p.Metrics.LoadRuns.WithLabelValues(LoadResultFailure).Inc()
		return
	}
	p.Metrics.LoadRuns.WithLabelValues(LoadResultSuccess).Inc()
	p.Metrics.LoadDocuments.WithLabelValues("inserted").Set(float64(inserted))
	p.Metrics.LoadDocuments.WithLabelValues("matched").Set(float64(matched))
	p.Metrics.LoadDocuments.WithLabelValues("modified").Set(float64(modified))
}
