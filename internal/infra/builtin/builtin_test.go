package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNew(t *testing.T) {
	assert.Equal(t, []string{Calc, Weather}, Names())
	_, err := New("github")
	require.Error(t, err)
	server, err := New(Calc)
	require.NoError(t, err)
	assert.NotNil(t, server)
}

func TestCalcServer(t *testing.T) {
	session := connect(t, NewCalcServer())
	assert.ElementsMatch(t, []string{"add", "subtract", "multiply", "divide"}, toolNames(t, session))
	assert.Equal(t, "Basic arithmetic on two numbers.", session.InitializeResult().Instructions)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "multiply",
		Arguments: map[string]any{"a": 6, "b": 7},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"result":42}`, textOf(t, res))

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "divide",
		Arguments: map[string]any{"a": 1, "b": 0},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "division by zero")
}

func TestWeatherServer(t *testing.T) {
	session := connect(t, NewWeatherServer())
	assert.ElementsMatch(t, []string{"get_forecast", "get_current_weather"}, toolNames(t, session))

	call := func(args map[string]any) *mcp.CallToolResult {
		res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_forecast", Arguments: args})
		require.NoError(t, err)
		return res
	}

	first := call(map[string]any{"city": "Paris", "days": 2})
	require.False(t, first.IsError)
	var forecast forecastResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, first)), &forecast))
	assert.Equal(t, "Paris", forecast.City)
	assert.Len(t, forecast.Days, 2)

	again := call(map[string]any{"city": "paris", "days": 2})
	var second forecastResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, again)), &second))
	assert.Equal(t, forecast.Days, second.Days)

	assert.True(t, call(map[string]any{"city": " "}).IsError)
	assert.True(t, call(map[string]any{"city": "Paris", "days": 30}).IsError)
}
