package transport

import (
	"errors"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"dcl/internal/domain"
	"dcl/internal/infra/envutil"
)

// NewStdioTransport launches the server command and speaks MCP over its stdio.
func NewStdioTransport(spec domain.ServerSpec) (*mcp.CommandTransport, error) {
	if len(spec.Cmd) == 0 {
		return nil, errors.New("cmd is required for stdio transport")
	}

	cmd := exec.Command(spec.Cmd[0], spec.Cmd[1:]...)
	if spec.Cwd != "" {
		cmd.Dir = spec.Cwd
	}
	cmd.Env = envutil.PatchPATH(envutil.Merge(os.Environ(), spec.Env))
	setupProcessHandling(cmd)

	return &mcp.CommandTransport{Command: cmd}, nil
}
