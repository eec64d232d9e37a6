// Package metrics holds the Prometheus collectors for admin actions, sign-in attempts and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tern_admin"

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultPartial = "partial"
)

// Metrics groups the service collectors. A nil *Metrics is a valid no-op sink.
type Metrics struct {
	actions        *prometheus.CounterVec
	signIns        *prometheus.CounterVec
	revokeFailures prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New builds the collectors and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Admin registry actions by action and result.",
		}, []string{"action", "result"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signin_total",
			Help:      "Sign-in attempts by method and outcome code.",
		}, []string{"method", "code"}),
		revokeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_revoke_failures_total",
			Help:      "Refresh token revocations that failed during sign-out.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(m.actions, m.signIns, m.revokeFailures, m.httpRequests, m.httpDuration)
	}
	return m
}

// ObserveAction counts one registry action.
func (m *Metrics) ObserveAction(action, result string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, result).Inc()
}

// ObserveSignIn counts one sign-in attempt. An empty code records "OK".
func (m *Metrics) ObserveSignIn(method, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	m.signIns.WithLabelValues(method, code).Inc()
}

// SessionRevokeFailed counts a failed refresh token revocation.
func (m *Metrics) SessionRevokeFailed() {
	if m == nil {
		return
	}
	m.revokeFailures.Inc()
}

// methodLabel folds non-standard request methods into "OTHER".
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return method
	default:
		return "OTHER"
	}
}

// ObserveHTTP records one served request. route should be the mux pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	method = methodLabel(method)
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
