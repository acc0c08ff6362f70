// Package metric exposes the bridge's Prometheus instrumentation.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gqlbridge"

type Metrics struct {
	registry *prometheus.Registry

	ToolCalls         *prometheus.CounterVec
	ToolLatency       *prometheus.HistogramVec
	OriginRetries     prometheus.Counter
	SchemaRefreshes   prometheus.Counter
	SessionsStarted   prometheus.Counter
	EmbeddingDegraded prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ToolLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_latency_seconds",
			Help:      "Tool invocation latency by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		OriginRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "origin_retries_total",
			Help:      "Origin requests that needed a retry.",
		}),
		SchemaRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_refreshes_total",
			Help:      "Successful schema snapshot replacements.",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "MCP sessions opened.",
		}),
		EmbeddingDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_degraded_total",
			Help:      "Discovery calls answered with lexical fallback scoring.",
		}),
	}
}

// Handler serves the metrics endpoint for this registry only.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
