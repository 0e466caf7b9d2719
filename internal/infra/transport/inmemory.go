package transport

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewInMemoryTransport connects server to one end of an in-process pipe and
// returns the other end for a client.
func NewInMemoryTransport(ctx context.Context, server *mcp.Server) (mcp.Transport, Closer, error) {
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	session, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect in-memory server: %w", err)
	}
	return clientTransport, session.Close, nil
}
