package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dcl/internal/domain"
)

type PrometheusMetrics struct {
	loaderActions   *prometheus.CounterVec
	summariesLoaded *prometheus.CounterVec
	toolActivations *prometheus.CounterVec
	catalogFetch    *prometheus.HistogramVec
	toolCalls       *prometheus.HistogramVec
	contextSize     prometheus.Histogram
	llmLatency      *prometheus.HistogramVec
	llmTokens       *prometheus.CounterVec
	briefFallbacks  *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		loaderActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcl_loader_actions_total",
				Help: "Total number of loader meta-tool invocations",
			},
			[]string{"action", "status"},
		),
		summariesLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcl_summaries_loaded_total",
				Help: "Total number of servers raised to summaries_loaded",
			},
			[]string{"server"},
		),
		toolActivations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcl_tool_activations_total",
				Help: "Total number of tools activated into a conversation context",
			},
			[]string{"server"},
		),
		catalogFetch: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dcl_catalog_fetch_duration_seconds",
				Help:    "Duration of catalog source fetches in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"server", "op", "status"},
		),
		toolCalls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dcl_tool_call_duration_seconds",
				Help:    "Duration of activated tool invocations in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"server", "tool", "status"},
		),
		contextSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dcl_context_tools",
				Help:    "Number of tool definitions sent with each LLM request",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
			},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dcl_llm_latency_seconds",
				Help:    "Latency of LLM chat completions in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcl_llm_tokens_total",
				Help: "Total number of tokens consumed by LLM calls",
			},
			[]string{"provider", "model"},
		),
		briefFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcl_brief_fallbacks_total",
				Help: "Total number of brief generations that fell back to truncation",
			},
			[]string{"server"},
		),
	}
}

func (p *PrometheusMetrics) ObserveLoaderAction(action string, err error) {
	p.loaderActions.WithLabelValues(action, statusLabel(err)).Inc()
}

func (p *PrometheusMetrics) ObserveSummariesLoaded(serverID string) {
	p.summariesLoaded.WithLabelValues(serverID).Inc()
}

func (p *PrometheusMetrics) ObserveToolActivations(serverID string, count int) {
	p.toolActivations.WithLabelValues(serverID).Add(float64(count))
}

func (p *PrometheusMetrics) ObserveCatalogFetch(serverID string, op string, duration time.Duration, err error) {
	p.catalogFetch.WithLabelValues(serverID, op, statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveToolCall(serverID string, toolID string, duration time.Duration, err error) {
	p.toolCalls.WithLabelValues(serverID, toolID, statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveContextSize(tools int) {
	p.contextSize.Observe(float64(tools))
}

func (p *PrometheusMetrics) ObserveLLMLatency(provider string, model string, duration time.Duration) {
	p.llmLatency.WithLabelValues(provider, model).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveLLMTokens(provider string, model string, tokens int) {
	p.llmTokens.WithLabelValues(provider, model).Add(float64(tokens))
}

func (p *PrometheusMetrics) ObserveBriefFallback(serverID string) {
	p.briefFallbacks.WithLabelValues(serverID).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
