package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegrjumin/sitescan/internal/scanner"
)

const namespace = "sitescan"

// Scan outcomes
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

// Metrics holds the service's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	scansTotal        *prometheus.CounterVec
	scanDuration      prometheus.Histogram
	resourcesDetected *prometheus.CounterVec
	stepFailures      *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	browsersAvailable prometheus.GaugeFunc
	queueDepth        prometheus.GaugeFunc
}

// New registers all collectors. health, when set, backs the browsers-available gauge.
func New(health func() (available, total int)) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Scans finished, by outcome.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of completed scans.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120},
		}),
		resourcesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resources_detected_total",
			Help:      "Third-party resources detected, by type and risk level.",
		}, []string{"type", "risk"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Failed scan steps, by step name.",
		}, []string{"step"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"path", "status"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scansTotal,
		m.scanDuration,
		m.resourcesDetected,
		m.stepFailures,
		m.httpRequests,
	)

	if health != nil {
		m.browsersAvailable = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browsers_available",
			Help:      "Browser slots currently free.",
		}, func() float64 {
			available, _ := health()
			return float64(available)
		})
		registry.MustRegister(m.browsersAvailable)
	}

	return m
}

// ObserveScan records a finished scan
func (m *Metrics) ObserveScan(result *scanner.ScanResult, err error) {
	if err != nil || result == nil {
		m.scansTotal.WithLabelValues(OutcomeError).Inc()
		return
	}

	failed := result.FailedSteps()
	if len(failed) > 0 {
		m.scansTotal.WithLabelValues(OutcomePartial).Inc()
	} else {
		m.scansTotal.WithLabelValues(OutcomeOK).Inc()
	}
	for _, step := range failed {
		m.stepFailures.WithLabelValues(step).Inc()
	}

	m.scanDuration.Observe(result.ScanDuration)
	for _, r := range result.Resources {
		m.resourcesDetected.WithLabelValues(string(r.Type), string(r.RiskLevel)).Inc()
	}
}

// ObserveRequest records a served HTTP request
func (m *Metrics) ObserveRequest(path string, status int) {
	m.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

// TrackQueue exports the scan queue depth read from stats on every scrape.
// It must be called at most once.
func (m *Metrics) TrackQueue(stats func() (queued, capacity int)) {
	m.queueDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_queue_depth",
		Help:      "Scan requests waiting for a browser.",
	}, func() float64 {
		queued, _ := stats()
		return float64(queued)
	})
	m.registry.MustRegister(m.queueDepth)
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
