package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rl1809/pantry/internal/metrics"
)

// NewRouter wires the HTTP API. gatherer may be nil to omit /metrics.
func NewRouter(h *HTTPHandler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/items", h.ListView)
	mux.HandleFunc("POST /api/items", h.AddItem)
	mux.HandleFunc("PUT /api/items/{name}", h.EditItem)
	mux.HandleFunc("DELETE /api/items/{name}", h.RemoveItem)
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return Instrument(mux, m, logger)
}
