// Package metrics exposes the service's Prometheus instrumentation. One
// registry per process; adapters record a counter and a latency sample
// per RPC, labelled by method and resulting status code.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RPC instruments the request surface of one adapter.
type RPC struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRPC registers the RPC metrics on the given registerer.
func NewRPC(reg prometheus.Registerer) *RPC {
	m := &RPC{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mds",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "RPC requests by method and status code.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mds",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC handling latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Observe records one finished request.
func (m *RPC) Observe(method, status string, elapsed time.Duration) {
	m.requests.WithLabelValues(method, status).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler returns the scrape endpoint for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
