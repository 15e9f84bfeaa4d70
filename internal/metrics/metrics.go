// Package metrics exposes Prometheus counters for consent operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records notification outcomes and HTTP latency.
type Metrics struct {
	gatherer prometheus.Gatherer

	confirmations   *prometheus.CounterVec
	subscriptions   *prometheus.CounterVec
	marketingErrors *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the notification metrics on reg. A nil reg uses a fresh
// private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		confirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_confirmations_total",
			Help: "Confirmation email requests by outcome",
		}, []string{"outcome"}),
		subscriptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_subscriptions_total",
			Help: "Subscription changes by path and outcome",
		}, []string{"path", "outcome"}),
		marketingErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_marketing_errors_total",
			Help: "Failed calls to the marketing provider by operation",
		}, []string{"op"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notifications_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Confirmation(outcome string) {
	m.confirmations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Subscription(path, outcome string) {
	m.subscriptions.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) MarketingError(op string) {
	m.marketingErrors.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware observes request latency labelled with the matched chi route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
