package assembler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcl/internal/disclosure"
	"dcl/internal/disclosure/disclosuretest"
	"dcl/internal/domain"
	"dcl/internal/loader"
)

func newAssembler(t *testing.T, opts disclosure.Options) (*Assembler, *loader.Loader) {
	t.Helper()
	opts.Reserved = []string{loader.ToolName}
	cache, err := disclosure.New(context.Background(), disclosuretest.CalcAndWeather(), opts)
	require.NoError(t, err)
	l := loader.New(cache, loader.Options{})
	return New(l, cache), l
}

func names(defs []domain.ToolDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Name)
	}
	return out
}

func TestBuild_FreshContextHasOnlyLoader(t *testing.T) {
	a, _ := newAssembler(t, disclosure.Options{})
	assert.Equal(t, []string{loader.ToolName}, names(a.Build()))
}

func TestBuild_ActivatedToolsFollowLoader(t *testing.T) {
	ctx := context.Background()
	a, l := newAssembler(t, disclosure.Options{})

	l.Call(ctx, json.RawMessage(`{"action":"load_tool_summaries","servers":["calc","weather"]}`))
	assert.Equal(t, []string{loader.ToolName}, names(a.Build()))

	l.Call(ctx, json.RawMessage(`{"action":"load_tools","server":"weather","tools":["get_forecast"]}`))
	l.Call(ctx, json.RawMessage(`{"action":"load_tools","server":"calc","tools":["add"]}`))

	defs := a.Build()
	assert.Equal(t, []string{loader.ToolName, "get_forecast", "add"}, names(defs))
	assert.NotContains(t, names(defs), "multiply")
	assert.Equal(t, "calc", defs[2].ServerID)

	// Build is a projection: calling it again yields the same list.
	assert.Equal(t, defs, a.Build())
}

func TestBuild_PrefixNamespace(t *testing.T) {
	ctx := context.Background()
	a, l := newAssembler(t, disclosure.Options{Namespace: domain.NamespacePrefix})

	l.Call(ctx, json.RawMessage(`{"action":"load_tool_summaries","servers":["calc"]}`))
	l.Call(ctx, json.RawMessage(`{"action":"load_tools","server":"calc","tools":["multiply"]}`))

	assert.Equal(t, []string{loader.ToolName, "calc__multiply"}, names(a.Build()))
}

func TestToEino(t *testing.T) {
	a, _ := newAssembler(t, disclosure.Options{})
	defs := append(a.Build(), domain.ToolDefinition{Name: "ping", Description: "No arguments."})

	infos, err := ToEino(defs)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, loader.ToolName, infos[0].Name)
	assert.Contains(t, infos[0].Desc, "Dynamic Tool Loader")
	assert.NotNil(t, infos[0].ParamsOneOf)
	assert.Equal(t, "ping", infos[1].Name)

	_, err = ToEino([]domain.ToolDefinition{{Name: "bad", InputSchema: json.RawMessage(`[`)}})
	require.Error(t, err)
}

func TestToMCP(t *testing.T) {
	tool, err := ToMCP(domain.ToolDefinition{
		Name:        "add",
		Description: "Add two numbers.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"a":{"type":"number"}}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "add", tool.Name)
	params, ok := tool.InputSchema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", params["type"])

	empty, err := ToMCP(domain.ToolDefinition{Name: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "object", empty.InputSchema.(map[string]any)["type"])

	_, err = ToMCP(domain.ToolDefinition{Name: "bad", InputSchema: json.RawMessage(`{"type":"string"}`)})
	require.Error(t, err)
}
