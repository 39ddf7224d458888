// Package metric provides Prometheus metrics for the Dayon client.
//
// All methods are safe on a nil *Registry so components can take an
// optional registry without guarding every call.
package metric

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dayon"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Gateway metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	RateLimitWaits   prometheus.Counter

	// Token store metrics
	TokenStoreOps *prometheus.CounterVec

	// Session metrics
	SessionTransitions *prometheus.CounterVec
	LogoutNotify       *prometheus.CounterVec
}

// NewRegistry creates a registry with every client metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outgoing API requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Outgoing API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_in_flight",
			Help:      "Outgoing API requests awaiting a response.",
		}),
		RateLimitWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "rate_limit_waits_total",
			Help:      "Requests delayed by the client-side rate limiter.",
		}),
		TokenStoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokenstore",
			Name:      "operations_total",
			Help:      "Token store operations by op, backend and result.",
		}, []string{"op", "backend", "result"}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by target state.",
		}, []string{"state"}),
		LogoutNotify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logout_notifications_total",
			Help:      "Server logout notifications by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.RequestsInFlight,
		r.RateLimitWaits,
		r.TokenStoreOps,
		r.SessionTransitions,
		r.LogoutNotify,
	)

	return r
}

// Register adds a custom collector.
func (r *Registry) Register(c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	return r.registry.Register(c)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// WriteTextfile writes the current metrics in the node-exporter textfile
// format.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// ObserveRequest records one completed request. status 0 means no response
// was received.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// InFlight adjusts the in-flight gauge by delta.
func (r *Registry) InFlight(delta float64) {
	if r == nil {
		return
	}
	r.RequestsInFlight.Add(delta)
}

// RateLimited counts a request delayed by the limiter.
func (r *Registry) RateLimited() {
	if r == nil {
		return
	}
	r.RateLimitWaits.Inc()
}

// TokenStoreOp records a token store operation.
func (r *Registry) TokenStoreOp(op, backend string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.TokenStoreOps.WithLabelValues(op, backend, result).Inc()
}

// SessionTransition records a transition into state.
func (r *Registry) SessionTransition(state string) {
	if r == nil {
		return
	}
	r.SessionTransitions.WithLabelValues(state).Inc()
}

// LogoutNotified records the outcome of a server logout notification.
func (r *Registry) LogoutNotified(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.LogoutNotify.WithLabelValues(result).Inc()
}

// StatusClass buckets an HTTP status into "2xx", "4xx" and so on.
// 0 maps to "error".
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}
