// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

package httpapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reason constants for authentication failure metrics.
const (
	ReasonMissingToken = "missing_token"
	ReasonTokenExpired = "token_expired"
	ReasonTokenInvalid = "token_invalid"
	ReasonUnknownUser  = "unknown_user"
)

// RequestsTotal is the counter for API requests.
// Use RegisterMetrics to register this with a Prometheus registry.
var RequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskhub_requests_total",
		Help: "Total number of API requests",
	},
	[]string{"method", "route", "status"},
)

// RequestDuration is the histogram for API request duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var RequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "taskhub_request_duration_seconds",
		Help:    "API request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// AuthFailures is the counter for rejected authentications. The reason is
// internal only; clients always see the same message.
var AuthFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskhub_auth_failures_total",
		Help: "Total number of rejected authentications by reason",
	},
	[]string{"reason"},
)

// RegisterMetrics registers httpapi metrics with the given Prometheus
// registry. This must be called at startup to make metrics available on
// /metrics. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(RequestsTotal)
	reg.MustRegister(RequestDuration)
	reg.MustRegister(AuthFailures)
}

// recordRequest increments the request counter and observes the duration.
func recordRequest(method, route string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// recordAuthFailure increments the auth failure counter.
func recordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}
