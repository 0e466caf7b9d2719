package domain

import (
	"context"
	"encoding/json"
)

// DisclosureLevel describes how much of a server's tool catalog is visible.
type DisclosureLevel int

const (
	// LevelCollapsed exposes only the server description.
	LevelCollapsed DisclosureLevel = iota
	// LevelSummariesLoaded exposes every tool summary of the server.
	LevelSummariesLoaded
)

func (l DisclosureLevel) String() string {
	switch l {
	case LevelCollapsed:
		return "collapsed"
	case LevelSummariesLoaded:
		return "summaries_loaded"
	default:
		return "unknown"
	}
}

// ActivationState describes whether a tool's full definition is in context.
type ActivationState int

const (
	ActivationInactive ActivationState = iota
	ActivationActive
)

func (s ActivationState) String() string {
	switch s {
	case ActivationInactive:
		return "inactive"
	case ActivationActive:
		return "active"
	default:
		return "unknown"
	}
}

// ServerInfo is the always-visible, server-level description.
type ServerInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// ToolSummary is the one-line brief of a tool, visible once its server is summarized.
type ToolSummary struct {
	ID    string `json:"id"`
	Brief string `json:"brief"`
}

// ToolDefinition is the full callable definition of a tool.
// ServerID and Name together form the invocation handle.
type ToolDefinition struct {
	ServerID    string          `json:"serverId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolResult is the flattened outcome of a tool invocation.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"isError,omitempty"`
}

// CatalogSource supplies servers, their tools, and tool invocation.
type CatalogSource interface {
	ListServers(ctx context.Context) ([]ServerInfo, error)
	ListToolSummaries(ctx context.Context, serverID string) ([]ToolSummary, error)
	GetToolDefinition(ctx context.Context, serverID, toolID string) (ToolDefinition, error)
	Invoke(ctx context.Context, serverID, toolID string, args json.RawMessage) (ToolResult, error)
}

// ToolNamespaceStrategy controls the name an active tool is exposed under.
type ToolNamespaceStrategy string

const (
	// NamespaceFlat exposes tools under their own name.
	NamespaceFlat ToolNamespaceStrategy = "flat"
	// NamespacePrefix exposes tools as <server>__<tool>.
	NamespacePrefix ToolNamespaceStrategy = "prefix"
)

// NamespaceSeparator joins server and tool names under NamespacePrefix.
const NamespaceSeparator = "__"

// ExposedName returns the LLM-facing name of a tool under the given strategy.
func ExposedName(strategy ToolNamespaceStrategy, serverID, toolID string) string {
	if strategy == NamespacePrefix {
		return serverID + NamespaceSeparator + toolID
	}
	return toolID
}

// ParseNamespaceStrategy normalizes a configured strategy value.
func ParseNamespaceStrategy(value string) (ToolNamespaceStrategy, bool) {
	switch ToolNamespaceStrategy(value) {
	case "", NamespaceFlat:
		return NamespaceFlat, true
	case NamespacePrefix:
		return NamespacePrefix, true
	default:
		return "", false
	}
}
