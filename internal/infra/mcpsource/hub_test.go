package mcpsource

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcl/internal/domain"
	"dcl/internal/infra/briefs"
	"dcl/internal/infra/telemetry"
)

type countingBriefs struct {
	calls   atomic.Int32
	summary briefs.Summary
	err     error
}

func (c *countingBriefs) Summarize(_ context.Context, _ string, _ []domain.ToolDefinition) (briefs.Summary, error) {
	c.calls.Add(1)
	return c.summary, c.err
}

func startHub(t *testing.T, specs []domain.ServerSpec, opts Options) *Hub {
	t.Helper()
	hub := NewHub(specs, opts)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Close() })
	return hub
}

func builtinSpecs() []domain.ServerSpec {
	return []domain.ServerSpec{
		{Name: "calc", Transport: domain.TransportBuiltin},
		{Name: "weather", Transport: domain.TransportBuiltin},
	}
}

func TestHub_ListServersUsesInstructions(t *testing.T) {
	hub := startHub(t, builtinSpecs(), Options{})

	servers, err := hub.ListServers(context.Background())
	require.NoError(t, err)
	want := []domain.ServerInfo{
		{ID: "calc", Description: "Basic arithmetic on two numbers."},
		{ID: "weather", Description: "Current conditions and multi-day forecasts for cities."},
	}
	if diff := cmp.Diff(want, servers); diff != "" {
		t.Fatalf("servers mismatch (-want +got):\n%s", diff)
	}
}

func TestHub_Status(t *testing.T) {
	hub := startHub(t, builtinSpecs(), Options{})

	want := []ServerStatus{
		{ID: "calc", Transport: domain.TransportBuiltin, Description: "Basic arithmetic on two numbers.", Tools: 4},
		{ID: "weather", Transport: domain.TransportBuiltin, Description: "Current conditions and multi-day forecasts for cities.", Tools: 2},
	}
	if diff := cmp.Diff(want, hub.Status()); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestHub_ConfigDescriptionWins(t *testing.T) {
	hub := startHub(t, []domain.ServerSpec{
		{Name: "calc", Transport: domain.TransportBuiltin, Description: "Math helpers."},
	}, Options{})

	servers, err := hub.ListServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "Math helpers.", servers[0].Description)
}

func TestHub_SkipsFailingServers(t *testing.T) {
	health := telemetry.NewHealthTracker()
	hub := startHub(t, []domain.ServerSpec{
		{Name: "calc", Transport: domain.TransportBuiltin},
		{Name: "broken", Transport: domain.TransportBuiltin, Builtin: "missing"},
		{Name: "weather", Transport: domain.TransportBuiltin, Disabled: true},
	}, Options{Health: health})

	servers, err := hub.ListServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "calc", servers[0].ID)

	report := health.Report()
	assert.Equal(t, telemetry.HealthStatusDegraded, report.Status)
	require.Len(t, report.Components, 2)
	assert.Equal(t, "broken", report.Components[0].Name)
	assert.False(t, report.Components[0].Healthy)
}

func TestHub_CheckHealth(t *testing.T) {
	health := telemetry.NewHealthTracker()
	hub := startHub(t, builtinSpecs(), Options{Health: health})

	results := hub.CheckHealth(context.Background())
	require.Len(t, results, 2)
	assert.NoError(t, results["calc"])
	assert.NoError(t, results["weather"])
	assert.Equal(t, telemetry.HealthStatusOK, health.Report().Status)
}

func TestHub_WatchStopsWithContext(t *testing.T) {
	hub := startHub(t, builtinSpecs(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Watch(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestHub_StartFailsWithoutServers(t *testing.T) {
	hub := NewHub([]domain.ServerSpec{
		{Name: "broken", Transport: domain.TransportBuiltin, Builtin: "missing"},
	}, Options{})
	err := hub.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	err = NewHub(nil, Options{}).Start(context.Background())
	require.Error(t, err)
}

func TestHub_ToolSummariesAreCached(t *testing.T) {
	gen := &countingBriefs{summary: briefs.Summary{
		ServerSummary: "Arithmetic.",
		ToolBriefs:    map[string]string{"add": "Adds numbers."},
	}}
	hub := startHub(t, builtinSpecs()[:1], Options{Briefs: gen})
	ctx := context.Background()

	summaries, err := hub.ListToolSummaries(ctx, "calc")
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	assert.Equal(t, domain.ToolSummary{ID: "add", Brief: "Adds numbers."}, summaries[0])
	// Tools without a generated brief fall back to their description.
	assert.Equal(t, "subtract", summaries[1].ID)
	assert.NotEmpty(t, summaries[1].Brief)

	_, err = hub.ListToolSummaries(ctx, "calc")
	require.NoError(t, err)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestHub_BriefFailureFallsBackToTruncation(t *testing.T) {
	gen := &countingBriefs{err: errors.New("model unavailable")}
	hub := startHub(t, builtinSpecs()[:1], Options{Briefs: gen})

	summaries, err := hub.ListToolSummaries(context.Background(), "calc")
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	for _, summary := range summaries {
		assert.NotEmpty(t, summary.Brief, summary.ID)
	}
}

func TestHub_UnknownServer(t *testing.T) {
	hub := startHub(t, builtinSpecs(), Options{})
	ctx := context.Background()

	_, err := hub.ListToolSummaries(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrUnknownServer)

	_, err = hub.GetToolDefinition(ctx, "nope", "add")
	require.ErrorIs(t, err, domain.ErrUnknownServer)

	_, err = hub.Invoke(ctx, "nope", "add", nil)
	require.ErrorIs(t, err, domain.ErrUnknownServer)
}

func TestHub_GetToolDefinition(t *testing.T) {
	hub := startHub(t, builtinSpecs(), Options{})
	ctx := context.Background()

	def, err := hub.GetToolDefinition(ctx, "calc", "add")
	require.NoError(t, err)
	assert.Equal(t, "calc", def.ServerID)
	assert.Equal(t, "add", def.Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(def.InputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["properties"], "a")

	_, err = hub.GetToolDefinition(ctx, "calc", "sqrt")
	require.ErrorIs(t, err, domain.ErrUnknownTool)
}

func TestHub_Invoke(t *testing.T) {
	hub := startHub(t, builtinSpecs(), Options{})
	ctx := context.Background()

	res, err := hub.Invoke(ctx, "calc", "add", json.RawMessage(`{"a":2,"b":3}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"result":5}`, res.Content)

	res, err = hub.Invoke(ctx, "calc", "divide", json.RawMessage(`{"a":1,"b":0}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "division by zero")
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(builtinSpecs(), Options{})
	require.NoError(t, hub.Start(context.Background()))
	require.NoError(t, hub.Close())

	servers, err := hub.ListServers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestFlattenContent(t *testing.T) {
	tests := []struct {
		name string
		res  *mcp.CallToolResult
		want string
	}{
		{name: "nil", res: nil, want: ""},
		{
			name: "text parts",
			res: &mcp.CallToolResult{Content: []mcp.Content{
				&mcp.TextContent{Text: "one"},
				&mcp.TextContent{Text: "two"},
			}},
			want: "one\ntwo",
		},
		{
			name: "image",
			res: &mcp.CallToolResult{Content: []mcp.Content{
				&mcp.ImageContent{MIMEType: "image/png", Data: []byte{1, 2, 3}},
			}},
			want: "[image: image/png, 3 bytes]",
		},
		{
			name: "structured only",
			res:  &mcp.CallToolResult{StructuredContent: map[string]any{"ok": true}},
			want: `{"ok":true}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlattenContent(tt.res))
		})
	}
}
