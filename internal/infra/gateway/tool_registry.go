package gateway

import (
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"dcl/internal/assembler"
	"dcl/internal/domain"
	"dcl/internal/infra/hashutil"
)

// toolRegistry mirrors an assembled tool list onto an MCP server.
type toolRegistry struct {
	server     *mcp.Server
	handler    func(name string) mcp.ToolHandler
	logger     *zap.Logger
	mu         sync.Mutex
	etag       string
	registered map[string]struct{}
}

func newToolRegistry(server *mcp.Server, handler func(name string) mcp.ToolHandler, logger *zap.Logger) *toolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolRegistry{
		server:     server,
		handler:    handler,
		logger:     logger.Named("tool_registry"),
		registered: make(map[string]struct{}),
	}
}

// Apply registers defs and removes tools no longer present. An unchanged list
// is a no-op, so clients only see list_changed when something moved.
func (r *toolRegistry) Apply(defs []domain.ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	etag := hashutil.ToolETag(r.logger, defs)
	if etag != "" && etag == r.etag {
		return
	}

	next := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		tool, err := assembler.ToMCP(def)
		if err != nil {
			r.logger.Warn("skip tool with invalid input schema", zap.String("tool", def.Name), zap.Error(err))
			continue
		}
		r.server.AddTool(tool, r.handler(tool.Name))
		next[tool.Name] = struct{}{}
	}

	var remove []string
	for name := range r.registered {
		if _, ok := next[name]; !ok {
			remove = append(remove, name)
		}
	}
	if len(remove) > 0 {
		r.server.RemoveTools(remove...)
	}

	r.registered = next
	r.etag = etag
}
