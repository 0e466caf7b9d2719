package briefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"dcl/internal/domain"
	"dcl/internal/infra/telemetry"
)

// LLM asks a chat model for briefs and falls back to truncation on any failure.
type LLM struct {
	model     model.BaseChatModel
	fallback  *Truncating
	provider  string
	modelName string
	metrics   domain.Metrics
	logger    *zap.Logger
}

type LLMOptions struct {
	Provider       string
	Model          string
	MaxBriefLength int
	Metrics        domain.Metrics
	Logger         *zap.Logger
}

func NewLLM(chatModel model.BaseChatModel, opts LLMOptions) *LLM {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &LLM{
		model:     chatModel,
		fallback:  NewTruncating(opts.MaxBriefLength),
		provider:  opts.Provider,
		modelName: opts.Model,
		metrics:   metrics,
		logger:    logger.Named("briefs"),
	}
}

func (g *LLM) Summarize(ctx context.Context, serverID string, tools []domain.ToolDefinition) (Summary, error) {
	if len(tools) == 0 {
		return Summary{ToolBriefs: map[string]string{}}, nil
	}
	summary, err := g.generate(ctx, serverID, tools)
	if err != nil {
		g.metrics.ObserveBriefFallback(serverID)
		g.logger.Warn("brief generation failed, using truncated descriptions",
			telemetry.EventField(telemetry.EventBriefFallback),
			telemetry.ServerField(serverID),
			zap.Error(err),
		)
		return g.fallback.Summarize(ctx, serverID, tools)
	}
	return summary, nil
}

func (g *LLM) generate(ctx context.Context, serverID string, tools []domain.ToolDefinition) (Summary, error) {
	if g.model == nil {
		return Summary{}, errors.New("chat model not configured")
	}
	prompt, err := buildPrompt(serverID, tools)
	if err != nil {
		return Summary{}, err
	}

	started := time.Now()
	response, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	g.metrics.ObserveLLMLatency(g.provider, g.modelName, time.Since(started))
	if err != nil {
		return Summary{}, fmt.Errorf("LLM generate: %w", err)
	}
	if response == nil {
		return Summary{}, errors.New("LLM generate: empty response")
	}
	if response.ResponseMeta != nil && response.ResponseMeta.Usage != nil && response.ResponseMeta.Usage.TotalTokens > 0 {
		g.metrics.ObserveLLMTokens(g.provider, g.modelName, response.ResponseMeta.Usage.TotalTokens)
	}
	return g.parse(ctx, serverID, response.Content, tools)
}

// parse decodes the model output. Briefs for unknown tools are dropped and
// missing briefs are filled from the truncated description.
func (g *LLM) parse(ctx context.Context, serverID, content string, tools []domain.ToolDefinition) (Summary, error) {
	var parsed Summary
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return Summary{}, fmt.Errorf("invalid JSON response: %w", err)
	}

	fallback, _ := g.fallback.Summarize(ctx, serverID, tools)
	out := Summary{
		ServerSummary: strings.TrimSpace(parsed.ServerSummary),
		ToolBriefs:    make(map[string]string, len(tools)),
	}
	if out.ServerSummary == "" {
		out.ServerSummary = fallback.ServerSummary
	}

	known := make(map[string]struct{}, len(tools))
	for _, tool := range tools {
		known[tool.Name] = struct{}{}
		brief := strings.TrimSpace(parsed.ToolBriefs[tool.Name])
		if brief == "" {
			brief = fallback.ToolBriefs[tool.Name]
		}
		out.ToolBriefs[tool.Name] = brief
	}
	for name := range parsed.ToolBriefs {
		if _, ok := known[name]; !ok {
			g.logger.Debug("dropping brief for unknown tool", telemetry.ServerField(serverID), telemetry.ToolField(name))
		}
	}
	return out, nil
}

type promptTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

func buildPrompt(serverID string, tools []domain.ToolDefinition) (string, error) {
	defs := make([]promptTool, 0, len(tools))
	for _, tool := range tools {
		defs = append(defs, promptTool{Name: tool.Name, Description: tool.Description, Parameters: tool.InputSchema})
	}
	raw, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool definitions: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a helpful assistant that generates concise summaries for MCP servers and their tools.\n\n")
	fmt.Fprintf(&sb, "Below is a list of tool definitions for the %s MCP server:\n\n", serverID)
	sb.Write(raw)
	sb.WriteString("\n\nPlease provide:\n")
	sb.WriteString("1. A 1-2 sentence summary of what the server's tools can do overall (under 200 characters).\n")
	sb.WriteString("2. Brief descriptions for each tool (1-2 sentences, under 100 characters each).\n\n")
	sb.WriteString("Return only a JSON object:\n")
	sb.WriteString(`{"server_summary": "Overall summary here.", "tool_briefs": {"tool1": "Brief description.", "tool2": "Another brief."}}`)
	return sb.String(), nil
}

func stripCodeFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

var _ Generator = (*LLM)(nil)
