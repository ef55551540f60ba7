// Package metrics exposes Prometheus collectors for the feed service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	feedRefreshesTotal         *prometheus.CounterVec
	feedRefreshDurationSeconds prometheus.Histogram
	feedFixturesResolvedTotal  *prometheus.CounterVec
	feedMatchesPublished       prometheus.Gauge
	feedLogoMissesTotal        prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		feedRefreshesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_refreshes_total",
				Help: "Total refresh passes, labeled by outcome.",
			},
			[]string{"status"},
		)

		feedRefreshDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feed_refresh_duration_seconds",
				Help:    "Histogram of full refresh pass durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		)

		feedFixturesResolvedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_fixtures_resolved_total",
				Help: "Fixtures processed by the stream resolver, labeled by result.",
			},
			[]string{"result"},
		)

		feedMatchesPublished = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "feed_matches_published",
				Help: "Match records in the currently published snapshot.",
			},
		)

		feedLogoMissesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "feed_logo_misses_total",
				Help: "Team names that failed logo resolution.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRefresh records the outcome and duration of a refresh pass.
func ObserveRefresh(status string, duration time.Duration) {
	feedRefreshesTotal.WithLabelValues(status).Inc()
	feedRefreshDurationSeconds.Observe(duration.Seconds())
}

// ObserveFixture increments the resolver counter for the given result
// ("streams", "no_streams").
func ObserveFixture(result string) {
	feedFixturesResolvedTotal.WithLabelValues(result).Inc()
}

// SetMatchesPublished records the size of the published snapshot.
func SetMatchesPublished(n int) {
	feedMatchesPublished.Set(float64(n))
}

// ObserveLogoMisses adds the count of unresolved team names from a pass.
func ObserveLogoMisses(n int) {
	feedLogoMissesTotal.Add(float64(n))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
