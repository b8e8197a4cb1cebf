package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartphone_scraper"

// Metrics groups the crawler's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	PagesFetched       *prometheus.CounterVec
	ListingsProcessed  prometheus.Counter
	ExtractionFailures *prometheus.CounterVec
	RecordsExtracted   prometheus.Counter
	RecordsDropped     prometheus.Counter
	Runs               *prometheus.CounterVec
	RunDuration        prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		gatherer: reg,
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Listing pages fetched, by outcome",
		}, []string{"status"}),
		ListingsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_processed_total",
			Help:      "Listing nodes visited",
		}),
		ExtractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Field extraction failures, by field",
		}, []string{"field"}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Product records built before deduplication",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Product records removed as duplicates",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Crawl runs, by outcome",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed crawl runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	reg.MustRegister(
		m.PagesFetched,
		m.ListingsProcessed,
		m.ExtractionFailures,
		m.RecordsExtracted,
		m.RecordsDropped,
		m.Runs,
		m.RunDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) PageFetched(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.PagesFetched.WithLabelValues(status).Inc()
}

func (m *Metrics) ListingProcessed() {
	if m == nil {
		return
	}
	m.ListingsProcessed.Inc()
}

func (m *Metrics) ExtractionFailed(field string) {
	if m == nil {
		return
	}
	m.ExtractionFailures.WithLabelValues(field).Inc()
}

func (m *Metrics) RecordsBuilt(n int) {
	if m == nil {
		return
	}
	m.RecordsExtracted.Add(float64(n))
}

func (m *Metrics) DuplicatesDropped(n int) {
	if m == nil {
		return
	}
	m.RecordsDropped.Add(float64(n))
}

func (m *Metrics) RunFinished(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if err != nil {
		m.Runs.WithLabelValues("error").Inc()
		return
	}
	m.Runs.WithLabelValues("ok").Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}
