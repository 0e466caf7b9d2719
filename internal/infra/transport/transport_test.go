package transport

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcl/internal/domain"
)

func TestNew_Builtin(t *testing.T) {
	ctx := context.Background()
	transport, closer, err := New(ctx, domain.ServerSpec{Name: "weather", Transport: domain.TransportBuiltin})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	session := connectClient(t, transport)
	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	assert.Len(t, res.Tools, 2)
}

func TestNew_BuiltinAlias(t *testing.T) {
	transport, closer, err := New(context.Background(), domain.ServerSpec{
		Name:      "math",
		Transport: domain.TransportBuiltin,
		Builtin:   "calc",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })
	assert.NotNil(t, transport)
}

func TestNew_Errors(t *testing.T) {
	cases := []domain.ServerSpec{
		{Name: "github", Transport: domain.TransportBuiltin},
		{Name: "bad", Transport: domain.TransportStdio},
		{Name: "grpc", Transport: "grpc"},
	}
	for _, spec := range cases {
		_, _, err := New(context.Background(), spec)
		assert.Error(t, err, spec.Name)
	}
}

func TestNewStdioTransport(t *testing.T) {
	transport, err := NewStdioTransport(domain.ServerSpec{
		Name: "echo",
		Cmd:  []string{"my-server", "--stdio"},
		Cwd:  "/tmp",
		Env:  map[string]string{"B": "2", "A": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"my-server", "--stdio"}, transport.Command.Args)
	assert.Equal(t, "/tmp", transport.Command.Dir)
	env := transport.Command.Env
	assert.Equal(t, []string{"A=1", "B=2"}, env[len(env)-2:])
}
