package domain

import "time"

// Metrics records operational metrics for disclosure, catalog access, and LLM turns.
type Metrics interface {
	// ObserveLoaderAction counts loader invocations by action and outcome.
	ObserveLoaderAction(action string, err error)
	ObserveSummariesLoaded(serverID string)
	ObserveToolActivations(serverID string, count int)
	ObserveCatalogFetch(serverID string, op string, duration time.Duration, err error)
	ObserveToolCall(serverID string, toolID string, duration time.Duration, err error)
	// ObserveContextSize records how many tool definitions were sent in one LLM request.
	ObserveContextSize(tools int)
	ObserveLLMLatency(provider string, model string, duration time.Duration)
	ObserveLLMTokens(provider string, model string, tokens int)
	ObserveBriefFallback(serverID string)
}
