// Package gateway exposes one disclosure session as an MCP server.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"dcl/internal/assembler"
	"dcl/internal/disclosure"
	"dcl/internal/domain"
	"dcl/internal/infra/telemetry"
	"dcl/internal/loader"
)

const defaultServerName = "dcl-gateway"

type Options struct {
	Name      string
	Version   string
	Namespace domain.ToolNamespaceStrategy
	Metrics   domain.Metrics
	Logger    *zap.Logger
}

// Gateway lists the loader to MCP clients and, as tools get activated,
// the activated tools with handlers that proxy to the catalog source.
type Gateway struct {
	source  domain.CatalogSource
	opts    Options
	metrics domain.Metrics
	logger  *zap.Logger

	// mu serializes access to the disclosure cache and the tool registry.
	mu        sync.Mutex
	cache     *disclosure.Cache
	loader    *loader.Loader
	assembler *assembler.Assembler
	server    *mcp.Server
	registry  *toolRegistry
}

func New(ctx context.Context, source domain.CatalogSource, opts Options) (*Gateway, error) {
	if source == nil {
		return nil, errors.New("catalog source is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewNoopMetrics()
	}
	if opts.Name == "" {
		opts.Name = defaultServerName
	}
	logger := opts.Logger.Named("gateway")

	cache, err := disclosure.New(ctx, source, disclosure.Options{
		Namespace: opts.Namespace,
		Reserved:  []string{loader.ToolName},
		Metrics:   opts.Metrics,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build disclosure cache: %w", err)
	}
	l := loader.New(cache, loader.Options{Metrics: opts.Metrics, Logger: opts.Logger})

	g := &Gateway{
		source:    source,
		opts:      opts,
		metrics:   opts.Metrics,
		logger:    logger,
		cache:     cache,
		loader:    l,
		assembler: assembler.New(l, cache),
	}
	g.server = mcp.NewServer(&mcp.Implementation{
		Name:    opts.Name,
		Version: opts.Version,
	}, &mcp.ServerOptions{
		Instructions: "Use the loader tool to discover MCP servers, load tool summaries, and activate tools.",
		HasTools:     true,
	})
	g.registry = newToolRegistry(g.server, g.toolHandler, logger)
	g.registry.Apply(g.assembler.Build())
	return g, nil
}

// Server returns the underlying MCP server.
func (g *Gateway) Server() *mcp.Server {
	return g.server
}

// Snapshot reports the disclosure state of the gateway session.
func (g *Gateway) Snapshot() domain.DisclosureSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Snapshot()
}

// Run serves MCP over stdio until ctx is done or the client disconnects.
func (g *Gateway) Run(ctx context.Context) error {
	return g.RunTransport(ctx, &mcp.StdioTransport{})
}

func (g *Gateway) RunTransport(ctx context.Context, transport mcp.Transport) error {
	g.logger.Info("gateway starting")
	return g.server.Run(ctx, transport)
}

func (g *Gateway) toolHandler(name string) mcp.ToolHandler {
	if name == loader.ToolName {
		return g.handleLoader
	}
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return g.handleTool(ctx, name, arguments(req))
	}
}

func (g *Gateway) handleLoader(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// The registry is updated under mu so a stale tool list never lands
	// after a newer one.
	g.mu.Lock()
	defer g.mu.Unlock()
	result, err := g.loader.Handle(ctx, arguments(req))
	if err != nil {
		return textResult(loader.RenderError(err), true), nil
	}
	g.registry.Apply(g.assembler.Build())
	return textResult(result.Text(), false), nil
}

func (g *Gateway) handleTool(ctx context.Context, name string, args json.RawMessage) (*mcp.CallToolResult, error) {
	g.mu.Lock()
	def, ok := g.cache.Resolve(name)
	g.mu.Unlock()
	if !ok {
		return textResult(fmt.Sprintf("Error: tool %s is not active; use the %s tool to load it first", name, loader.ToolName), true), nil
	}

	started := time.Now()
	res, err := g.source.Invoke(ctx, def.ServerID, def.Name, args)
	elapsed := time.Since(started)
	g.metrics.ObserveToolCall(def.ServerID, def.Name, elapsed, err)
	g.logger.Debug("tool call",
		telemetry.EventField(telemetry.EventToolCall),
		telemetry.ServerField(def.ServerID),
		telemetry.ToolField(def.Name),
		telemetry.DurationField(elapsed),
		zap.Error(err),
	)
	if err != nil {
		return textResult(fmt.Sprintf("Error: tool %s failed: %s", name, domain.MessageOf(err)), true), nil
	}
	return textResult(res.Content, res.IsError), nil
}

func arguments(req *mcp.CallToolRequest) json.RawMessage {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return json.RawMessage(`{}`)
	}
	return req.Params.Arguments
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}
