package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gitwho2blame"

// Metrics holds the Prometheus collectors for one process. Each instance owns
// its registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	commits      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	apiRequests  *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Commits examined, by provider and outcome.",
		}, []string{"provider", "outcome", "reason"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups, by key kind and result.",
		}, []string{"kind", "result"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "MCP tool invocations, by tool and status.",
		}, []string{"tool", "status"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "MCP tool latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"tool"}),
		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outbound requests to hosted providers, by host and status code.",
		}, []string{"host", "code"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CommitIncluded counts a commit that produced a summary.
func (m *Metrics) CommitIncluded(provider string) {
	m.commits.WithLabelValues(provider, "included", "").Inc()
}

// CommitSkipped counts a commit that was skipped.
func (m *Metrics) CommitSkipped(provider, reason string) {
	m.commits.WithLabelValues(provider, "skipped", reason).Inc()
}

// CacheHit counts a cache hit.
func (m *Metrics) CacheHit(kind string) {
	m.cacheLookups.WithLabelValues(kind, "hit").Inc()
}

// CacheMiss counts a cache miss.
func (m *Metrics) CacheMiss(kind string) {
	m.cacheLookups.WithLabelValues(kind, "miss").Inc()
}

// ToolCall records one tool invocation.
func (m *Metrics) ToolCall(tool, status string, elapsed time.Duration) {
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// APIRequest counts one outbound provider request.
func (m *Metrics) APIRequest(host, code string) {
	m.apiRequests.WithLabelValues(host, code).Inc()
}
