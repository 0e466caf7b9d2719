package briefs

import (
	"context"
	"fmt"

	"dcl/internal/domain"
)

// Summary is the generated server summary and per-tool briefs of one server.
type Summary struct {
	ServerSummary string            `json:"server_summary"`
	ToolBriefs    map[string]string `json:"tool_briefs"`
}

// Generator produces a Summary from a server's full tool definitions.
type Generator interface {
	Summarize(ctx context.Context, serverID string, tools []domain.ToolDefinition) (Summary, error)
}

// Truncating derives briefs by cutting tool descriptions.
type Truncating struct {
	MaxLength int
}

func NewTruncating(maxLength int) *Truncating {
	if maxLength <= 0 {
		maxLength = domain.DefaultMaxBriefLength
	}
	return &Truncating{MaxLength: maxLength}
}

func (t *Truncating) Summarize(_ context.Context, serverID string, tools []domain.ToolDefinition) (Summary, error) {
	summary := Summary{
		ServerSummary: FallbackServerSummary(serverID),
		ToolBriefs:    make(map[string]string, len(tools)),
	}
	for _, tool := range tools {
		summary.ToolBriefs[tool.Name] = Truncate(tool.Description, t.MaxLength)
	}
	return summary, nil
}

// FallbackServerSummary is used when no description can be derived for a server.
func FallbackServerSummary(serverID string) string {
	return fmt.Sprintf("%s MCP server provides various tools for specific tasks.", serverID)
}

// Truncate cuts text to maxLength runes and marks the cut with "...".
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}

var _ Generator = (*Truncating)(nil)
