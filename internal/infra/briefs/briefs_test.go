package briefs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcl/internal/domain"
	"dcl/internal/infra/telemetry"
)

type mockChatModel struct {
	generateFunc func(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
	calls        int
}

func (m *mockChatModel) Generate(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, messages)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func respond(content string) func(context.Context, []*schema.Message) (*schema.Message, error) {
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

var calcTools = []domain.ToolDefinition{
	{Name: "add", Description: "Add two numbers and return the sum."},
	{Name: "multiply", Description: strings.Repeat("m", 120)},
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "héll...", Truncate("héllo wörld", 4))
	assert.Equal(t, "anything", Truncate("anything", 0))
}

func TestTruncating_Summarize(t *testing.T) {
	got, err := NewTruncating(0).Summarize(context.Background(), "calc", calcTools)
	require.NoError(t, err)

	want := Summary{
		ServerSummary: "calc MCP server provides various tools for specific tasks.",
		ToolBriefs: map[string]string{
			"add":      "Add two numbers and return the sum.",
			"multiply": strings.Repeat("m", 100) + "...",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestLLM_Summarize(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		llmErr       error
		want         Summary
		wantFallback bool
	}{
		{
			name:     "plain JSON",
			response: `{"server_summary":"Arithmetic helpers.","tool_briefs":{"add":"Adds.","multiply":"Multiplies."}}`,
			want: Summary{
				ServerSummary: "Arithmetic helpers.",
				ToolBriefs:    map[string]string{"add": "Adds.", "multiply": "Multiplies."},
			},
		},
		{
			name:     "fenced JSON with unknown and missing tools",
			response: "```json\n{\"server_summary\":\"Arithmetic helpers.\",\"tool_briefs\":{\"add\":\"Adds.\",\"divide\":\"Divides.\"}}\n```",
			want: Summary{
				ServerSummary: "Arithmetic helpers.",
				ToolBriefs:    map[string]string{"add": "Adds.", "multiply": strings.Repeat("m", 100) + "..."},
			},
		},
		{
			name:     "empty server summary",
			response: `{"tool_briefs":{"add":"Adds.","multiply":"Multiplies."}}`,
			want: Summary{
				ServerSummary: "calc MCP server provides various tools for specific tasks.",
				ToolBriefs:    map[string]string{"add": "Adds.", "multiply": "Multiplies."},
			},
		},
		{
			name:         "invalid JSON falls back",
			response:     "Here are your briefs!",
			wantFallback: true,
		},
		{
			name:         "LLM error falls back",
			llmErr:       errors.New("quota exceeded"),
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mockChatModel{generateFunc: func(context.Context, []*schema.Message) (*schema.Message, error) {
				if tt.llmErr != nil {
					return nil, tt.llmErr
				}
				return schema.AssistantMessage(tt.response, nil), nil
			}}
			registry := prometheus.NewRegistry()
			metrics := telemetry.NewPrometheusMetrics(registry)
			gen := NewLLM(chat, LLMOptions{Provider: "openai", Model: "gpt-4o", Metrics: metrics})

			got, err := gen.Summarize(context.Background(), "calc", calcTools)
			require.NoError(t, err)

			want := tt.want
			if tt.wantFallback {
				want, _ = NewTruncating(0).Summarize(context.Background(), "calc", calcTools)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("summary mismatch (-want +got):\n%s", diff)
			}

			count, err := testutil.GatherAndCount(registry, "dcl_brief_fallbacks_total")
			require.NoError(t, err)
			if tt.wantFallback {
				assert.Equal(t, 1, count)
			} else {
				assert.Equal(t, 0, count)
			}
		})
	}
}

func TestLLM_PromptCarriesDefinitions(t *testing.T) {
	var prompt string
	chat := &mockChatModel{generateFunc: func(_ context.Context, messages []*schema.Message) (*schema.Message, error) {
		prompt = messages[0].Content
		return schema.AssistantMessage(`{"server_summary":"x","tool_briefs":{}}`, nil), nil
	}}
	_, err := NewLLM(chat, LLMOptions{}).Summarize(context.Background(), "calc", calcTools)
	require.NoError(t, err)

	assert.Contains(t, prompt, "calc MCP server")
	assert.Contains(t, prompt, `"name": "add"`)
	assert.Contains(t, prompt, "Add two numbers and return the sum.")
}

func TestLLM_NoToolsSkipsModel(t *testing.T) {
	chat := &mockChatModel{generateFunc: respond("{}")}
	got, err := NewLLM(chat, LLMOptions{}).Summarize(context.Background(), "empty", nil)
	require.NoError(t, err)
	assert.Empty(t, got.ToolBriefs)
	assert.Zero(t, chat.calls)
}

func TestLLM_NilModelFallsBack(t *testing.T) {
	got, err := NewLLM(nil, LLMOptions{MaxBriefLength: 10}).Summarize(context.Background(), "calc", calcTools)
	require.NoError(t, err)
	assert.Equal(t, "Add two nu...", got.ToolBriefs["add"])
}
