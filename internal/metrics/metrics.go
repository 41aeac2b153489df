// Package metrics exposes Prometheus instrumentation for the data layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "moneytrack",
	Subsystem: "gateway",
	Name:      "requests_total",
	Help:      "Total backend gateway calls by operation and outcome.",
}, []string{"operation", "outcome"})

var GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "moneytrack",
	Subsystem: "gateway",
	Name:      "request_duration_seconds",
	Help:      "Backend gateway call latency by operation.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

var StaleResponsesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "moneytrack",
	Subsystem: "store",
	Name:      "stale_responses_discarded_total",
	Help:      "Fetch responses discarded because a newer fetch was issued.",
}, []string{"slice"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "moneytrack",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests served by method and status.",
}, []string{"method", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "moneytrack",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method"})

var RefreshEvents = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "moneytrack",
	Subsystem: "bus",
	Name:      "refresh_events_total",
	Help:      "Refresh events consumed from the bus.",
})

// ObserveGateway records one gateway call.
func ObserveGateway(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	GatewayRequests.WithLabelValues(operation, outcome).Inc()
	GatewayDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
