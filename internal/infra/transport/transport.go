package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"dcl/internal/domain"
	"dcl/internal/infra/builtin"
)

// Closer releases resources held by a transport beyond its client session.
type Closer func() error

// New builds the client transport for a server spec.
func New(ctx context.Context, spec domain.ServerSpec) (mcp.Transport, Closer, error) {
	switch spec.Transport {
	case domain.TransportStdio, "":
		t, err := NewStdioTransport(spec)
		return t, noopCloser, err
	case domain.TransportStreamableHTTP:
		t, err := NewStreamableHTTPTransport(spec)
		return t, noopCloser, err
	case domain.TransportBuiltin:
		name := strings.TrimSpace(spec.Builtin)
		if name == "" {
			name = spec.Name
		}
		server, err := builtin.New(name)
		if err != nil {
			return nil, nil, err
		}
		return NewInMemoryTransport(ctx, server)
	default:
		return nil, nil, fmt.Errorf("unsupported transport %q", spec.Transport)
	}
}

func noopCloser() error { return nil }
