// Package metrics exposes the Prometheus instruments of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"go-rbac-admin/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gate decision labels.
const (
	DecisionAllow      = "allow"
	DecisionDeny       = "deny"
	DecisionPrivileged = "privileged"
	DecisionAnonymous  = "anonymous"
	DecisionError      = "error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	GateDecisionsTotal *prometheus.CounterVec
	GuardDenialsTotal  *prometheus.CounterVec

	// Membership sync metrics
	SyncDuration     *prometheus.HistogramVec
	SyncChangesTotal *prometheus.CounterVec
	SyncErrorsTotal  *prometheus.CounterVec
}

// New creates a registry and registers every metric on it.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rbac_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_gate_decisions_total",
				Help: "Module access decisions by outcome",
			},
			[]string{"result"},
		),
		GuardDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_guard_denials_total",
				Help: "Requests rejected by the route guard",
			},
			[]string{"action"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rbac_membership_sync_duration_seconds",
				Help:    "Membership sync duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"association"},
		),
		SyncChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_membership_sync_changes_total",
				Help: "Join rows changed by membership syncs",
			},
			[]string{"association", "kind"},
		),
		SyncErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_membership_sync_errors_total",
				Help: "Membership syncs that failed",
			},
			[]string{"association"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GateDecisionsTotal,
		m.GuardDenialsTotal,
		m.SyncDuration,
		m.SyncChangesTotal,
		m.SyncErrorsTotal,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// GinMiddleware instruments requests by their route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveDecision(result string) {
	if m == nil {
		return
	}
	m.GateDecisionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDenial(action domain.ActionID) {
	if m == nil {
		return
	}
	m.GuardDenialsTotal.WithLabelValues(string(action)).Inc()
}

// ObserveSync implements database.SyncObserver.
func (m *Metrics) ObserveSync(association string, result *domain.SyncResult, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.SyncDuration.WithLabelValues(association).Observe(elapsed.Seconds())
	if err != nil {
		m.SyncErrorsTotal.WithLabelValues(association).Inc()
		return
	}
	if result == nil {
		return
	}
	m.SyncChangesTotal.WithLabelValues(association, "created").Add(float64(len(result.Created)))
	m.SyncChangesTotal.WithLabelValues(association, "restored").Add(float64(len(result.Restored)))
	m.SyncChangesTotal.WithLabelValues(association, "revoked").Add(float64(len(result.Revoked)))
}
