package telemetry

import (
	"time"

	"dcl/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveLoaderAction(_ string, _ error) {}

func (n *NoopMetrics) ObserveSummariesLoaded(_ string) {}

func (n *NoopMetrics) ObserveToolActivations(_ string, _ int) {}

func (n *NoopMetrics) ObserveCatalogFetch(_ string, _ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveToolCall(_ string, _ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveContextSize(_ int) {}

func (n *NoopMetrics) ObserveLLMLatency(_ string, _ string, _ time.Duration) {}

func (n *NoopMetrics) ObserveLLMTokens(_ string, _ string, _ int) {}

func (n *NoopMetrics) ObserveBriefFallback(_ string) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
