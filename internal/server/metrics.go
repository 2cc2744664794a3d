package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

// Metrics collects per-tool counters and session gauges on a private
// registry so tests can run multiple servers without collisions.
type Metrics struct {
	registry *prometheus.Registry

	toolInvocations *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
}

// NewMetrics builds the registry and registers all collectors. Session
// gauges read live values from the session manager at scrape time.
func NewMetrics(session *ipa.SessionManager) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		toolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freeipa_mcp",
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "freeipa_mcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool handler duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "freeipa_mcp",
		Name:      "connected",
		Help:      "Whether a directory session is currently established.",
	}, func() float64 {
		if session.Connected() {
			return 1
		}
		return 0
	})

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "freeipa_mcp",
		Name:      "reconnects_total",
		Help:      "Automatic reconnects triggered by a failed session ping.",
	}, func() float64 {
		return float64(session.Stats().Reconnects)
	})

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "freeipa_mcp",
		Name:      "ping_failures_total",
		Help:      "Session pings that failed and forced a reconnect attempt.",
	}, func() float64 {
		return float64(session.Stats().PingFailures)
	})

	return m
}

// ObserveTool records one tool invocation.
func (m *Metrics) ObserveTool(tool, outcome string, elapsed time.Duration) {
	m.toolInvocations.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
