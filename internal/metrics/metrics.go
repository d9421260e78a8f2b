// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// RateLimitedTotal counts denied requests per identity tier.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of rate-limited requests by tier",
		},
		[]string{"tier"},
	)

	// StoreErrorsTotal counts counter-store failures (requests failed closed).
	StoreErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_store_errors_total",
			Help: "Total number of counter store failures",
		},
	)

	// CookiesIssuedTotal counts first-contact session cookies minted.
	CookiesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_cookies_issued_total",
			Help: "Total number of session cookies issued",
		},
	)

	// IdeasGeneratedTotal counts successful downstream generations.
	IdeasGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ideas_generated_total",
			Help: "Total number of ideas generated",
		},
	)

	// DownstreamFailuresTotal counts failed downstream generation calls.
	DownstreamFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "downstream_failures_total",
			Help: "Total number of downstream generation failures",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request metric.
func RecordRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRateLimited records a denied request on the given tier.
func RecordRateLimited(tier string) {
	RateLimitedTotal.WithLabelValues(tier).Inc()
}

// RecordStoreError records a counter-store failure.
func RecordStoreError() {
	StoreErrorsTotal.Inc()
}

// RecordCookieIssued records a minted session cookie.
func RecordCookieIssued() {
	CookiesIssuedTotal.Inc()
}

// RecordIdeaGenerated records a successful generation.
func RecordIdeaGenerated() {
	IdeasGeneratedTotal.Inc()
}

// RecordDownstreamFailure records a failed generation call.
func RecordDownstreamFailure() {
	DownstreamFailuresTotal.Inc()
}
