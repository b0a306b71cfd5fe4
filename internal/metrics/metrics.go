package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream call outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopproxy_http_requests_total",
			Help: "Total number of inbound HTTP requests",
		},
		[]string{"path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopproxy_http_request_duration_seconds",
			Help:    "Duration of inbound HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopproxy_upstream_requests_total",
			Help: "Total number of upstream search calls by outcome",
		},
		[]string{"outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopproxy_upstream_request_duration_seconds",
			Help:    "Duration of upstream search calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// ObserveHTTP records one completed inbound request
func ObserveHTTP(path string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// ObserveUpstream records one upstream call
func ObserveUpstream(outcome string, elapsed time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(outcome).Inc()
	UpstreamRequestDuration.Observe(elapsed.Seconds())
}
