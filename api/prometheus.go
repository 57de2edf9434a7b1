package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promMetrics holds the Prometheus collectors exported on /metrics.
type promMetrics struct {
	gatherer prometheus.Gatherer

	inFlight        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginAttempts   *prometheus.CounterVec
	auditEvents     *prometheus.CounterVec
	uploadBytes     prometheus.Counter
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	m := &promMetrics{
		gatherer: reg,
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "venuesite",
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuesite",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "venuesite",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuesite",
			Name:      "admin_login_attempts_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
		auditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venuesite",
			Name:      "audit_events_total",
			Help:      "Audit log entries by event.",
		}, []string{"event"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venuesite",
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted by the upload endpoint.",
		}),
	}
	reg.MustRegister(
		m.inFlight,
		m.requestsTotal,
		m.requestDuration,
		m.loginAttempts,
		m.auditEvents,
		m.uploadBytes,
	)
	return m
}

// instrument records request count, latency and in-flight requests. The
// route label is chi's pattern, not the raw path, to bound cardinality.
func (m *promMetrics) instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()
		start := time.Now()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, route, strconv.Itoa(status)}
		m.requestsTotal.WithLabelValues(labels...).Inc()
		m.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler serves the API's Prometheus registry.
func (a *API) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.prom.gatherer, promhttp.HandlerOpts{})
}
