// Package metrics records tool call outcomes as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gmail_reply_mcp"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics groups the collectors of the server.
type Metrics struct {
	registry        *prometheus.Registry
	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	skippedMessages prometheus.Counter
	droppedMessages prometheus.Counter
}

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Number of MCP tool calls by tool and status.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "MCP tool call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"tool"}),
		skippedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unread_skipped_messages_total",
			Help:      "Unread messages skipped because their metadata could not be fetched.",
		}),
		droppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thread_dropped_messages_total",
			Help:      "Thread messages dropped from reply context for having an empty body.",
		}),
	}

	m.registry.MustRegister(m.toolCalls, m.toolDuration, m.skippedMessages, m.droppedMessages)

	return m
}

// ObserveTool records one finished tool call.
func (m *Metrics) ObserveTool(tool string, seconds float64, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(seconds)
}

// AddSkipped counts unread messages skipped during listing.
func (m *Metrics) AddSkipped(n int) {
	m.skippedMessages.Add(float64(n))
}

// AddDropped counts thread messages dropped during assembly.
func (m *Metrics) AddDropped(n int) {
	m.droppedMessages.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
