// Package probe checks that connected MCP servers still answer.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const DefaultTimeout = 2 * time.Second

// Pinger is satisfied by *mcp.ClientSession.
type Pinger interface {
	Ping(ctx context.Context, params *mcp.PingParams) error
}

type PingProbe struct {
	Timeout time.Duration
}

// Ping sends an MCP ping and waits at most Timeout for the reply.
func (p *PingProbe) Ping(ctx context.Context, target Pinger) error {
	if target == nil {
		return errors.New("session is nil")
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := target.Ping(pingCtx, &mcp.PingParams{}); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
