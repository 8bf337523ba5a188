// Package metrics exposes Prometheus instrumentation for the service.
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
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyx_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storyx_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	interactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyx_interactions_total",
		Help: "Completed like and repost toggles by resulting state.",
	}, []string{"kind", "state"})

	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyx_upstream_errors_total",
		Help: "Failed calls to external collaborators.",
	}, []string{"service"})
)

// ObserveRequest records one served request. route is the matched mux
// pattern, or "unmatched".
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveInteraction records the state a toggle left behind.
func ObserveInteraction(kind string, active bool) {
	state := "off"
	if active {
		state = "on"
	}
	interactionsTotal.WithLabelValues(kind, state).Inc()
}

// ObserveUpstreamError counts a failed call to service.
func ObserveUpstreamError(service string) {
	upstreamErrors.WithLabelValues(service).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
