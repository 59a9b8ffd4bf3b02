// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns its collectors so tests can use a private registry.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	GRPCRequests *prometheus.CounterVec
	Mutations    *prometheus.CounterVec
	Items        prometheus.Gauge
	BuildInfo    *prometheus.GaugeVec
}

func New(reg prometheus.Registerer, version string) *Metrics {
	m := &Metrics{
		// Labels: method (GET/POST), path (/api/items/{name}), status (200/404/500)
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantry_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		GRPCRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_grpc_requests_total",
				Help: "Total number of gRPC calls",
			},
			[]string{"method", "code"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_mutations_total",
				Help: "Inventory mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		// Gauge because it moves both ways; refreshed on every full list.
		Items: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pantry_items",
				Help: "Number of items seen by the last full list",
			},
		),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pantry_info",
				Help: "Build information (always 1)",
			},
			[]string{"version"},
		),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.GRPCRequests, m.Mutations, m.Items, m.BuildInfo)
	m.BuildInfo.WithLabelValues(version).Set(1)
	return m
}

// ObserveMutation implements service.Observer.
func (m *Metrics) ObserveMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
}

// ObserveItemCount implements service.Observer.
func (m *Metrics) ObserveItemCount(n int) {
	m.Items.Set(float64(n))
}
