// Package metrics exposes Prometheus collectors for the link extraction pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeBadStatus = "bad_status"
	OutcomeFailed    = "failed"
)

var (
	fetchesTotal         *prometheus.CounterVec
	fetchedBytesTotal    *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	recordsDroppedTotal  prometheus.Counter
	recordsExtracted     prometheus.Counter
	hyperlinksTotal      prometheus.Counter
	queueDepth           prometheus.Gauge
	pipelineRunsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkextractor_fetches_total",
				Help: "Total number of fetch attempts, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchedBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkextractor_fetched_bytes_total",
				Help: "Total number of body bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkextractor_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies, labeled by outcome.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		)

		recordsDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkextractor_records_dropped_total",
				Help: "Fetched pages dropped because the queue was full.",
			},
		)

		recordsExtracted = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkextractor_records_extracted_total",
				Help: "Pages whose hyperlinks were extracted.",
			},
		)

		hyperlinksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkextractor_hyperlinks_total",
				Help: "Total hyperlinks extracted across all pages.",
			},
		)

		queueDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkextractor_queue_depth",
				Help: "Records currently buffered between the fetcher and extractor.",
			},
		)

		pipelineRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkextractor_pipeline_runs_total",
				Help: "Total number of pipeline runs, labeled by status.",
			},
			[]string{"status"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(site, outcome string, bytesFetched int, duration time.Duration) {
	Init()
	sanitizedSite := SanitizeSite(site)
	fetchesTotal.WithLabelValues(sanitizedSite, outcome).Inc()
	if bytesFetched > 0 {
		fetchedBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
	fetchDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveDrop increments the queue-full drop counter.
func ObserveDrop() {
	Init()
	recordsDroppedTotal.Inc()
}

// ObserveExtraction records one processed page and its link count.
func ObserveExtraction(links int) {
	Init()
	recordsExtracted.Inc()
	hyperlinksTotal.Add(float64(links))
}

// SetQueueDepth reports the number of buffered queue items.
func SetQueueDepth(n int) {
	Init()
	queueDepth.Set(float64(n))
}

// ObserveRun increments the run counter for the given status.
func ObserveRun(status string) {
	Init()
	pipelineRunsTotal.WithLabelValues(status).Inc()
}
