package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/pantry/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// responseRecorder captures the status code written by the wrapped handler.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument logs every request and records Prometheus metrics. The metric
// path label is the matched route pattern, so item names never become label values.
func Instrument(next http.Handler, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.statusCode),
			zap.Int64("latency_ms", duration.Milliseconds()),
			zap.String("client_ip", r.RemoteAddr),
		)

		if m != nil {
			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())
		}
	})
}
