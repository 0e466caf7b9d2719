package mcpsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"dcl/internal/domain"
	"dcl/internal/infra/briefs"
	"dcl/internal/infra/probe"
	"dcl/internal/infra/telemetry"
	"dcl/internal/infra/transport"
)

const (
	opListServers     = "list_servers"
	opToolSummaries   = "list_tool_summaries"
	opToolDefinition  = "get_tool_definition"
	opInvoke          = "invoke"
	defaultClientName = "dcl"

	DefaultWatchInterval = 30 * time.Second
)

type Options struct {
	ClientName     string
	ClientVersion  string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	MaxBriefLength int
	Briefs         briefs.Generator
	Metrics        domain.Metrics
	Health         *telemetry.HealthTracker
	Logger         *zap.Logger
}

// Hub is a CatalogSource over connected MCP servers. It is shared by
// conversations and safe for concurrent use.
type Hub struct {
	specs   []domain.ServerSpec
	opts    Options
	client  *mcp.Client
	metrics domain.Metrics
	probe   *probe.PingProbe
	logger  *zap.Logger

	mu      sync.RWMutex
	servers []*serverEntry
	byID    map[string]*serverEntry
}

type serverEntry struct {
	spec        domain.ServerSpec
	session     *mcp.ClientSession
	closer      transport.Closer
	description string
	tools       []*mcp.Tool
	byName      map[string]*mcp.Tool

	briefsMu  sync.Mutex
	summary   *briefs.Summary
	summaries []domain.ToolSummary
}

func NewHub(specs []domain.ServerSpec, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewNoopMetrics()
	}
	if opts.MaxBriefLength <= 0 {
		opts.MaxBriefLength = domain.DefaultMaxBriefLength
	}
	if opts.Briefs == nil {
		opts.Briefs = briefs.NewTruncating(opts.MaxBriefLength)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = time.Duration(domain.DefaultConnectTimeoutSeconds) * time.Second
	}
	name := opts.ClientName
	if name == "" {
		name = defaultClientName
	}
	return &Hub{
		specs:   specs,
		opts:    opts,
		client:  mcp.NewClient(&mcp.Implementation{Name: name, Version: opts.ClientVersion}, nil),
		metrics: opts.Metrics,
		probe:   &probe.PingProbe{Timeout: opts.PingTimeout},
		logger:  opts.Logger.Named("mcpsource"),
		byID:    make(map[string]*serverEntry),
	}
}

// Start connects to every enabled server and caches its tools. Servers that
// fail are logged and skipped; Start fails only when none connect.
func (h *Hub) Start(ctx context.Context) error {
	entries := make([]*serverEntry, len(h.specs))
	errs := make([]error, len(h.specs))

	var wg sync.WaitGroup
	for i, spec := range h.specs {
		if spec.Disabled {
			continue
		}
		wg.Add(1)
		go func(i int, spec domain.ServerSpec) {
			defer wg.Done()
			entries[i], errs[i] = h.connect(ctx, spec)
		}(i, spec)
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	var failures []string
	for i, spec := range h.specs {
		if spec.Disabled {
			continue
		}
		h.opts.Health.Set(spec.Name, errs[i])
		if errs[i] != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", spec.Name, errs[i]))
			h.logger.Warn("skipping MCP server",
				telemetry.EventField(telemetry.EventServerSkipped),
				telemetry.ServerField(spec.Name),
				zap.Error(errs[i]),
			)
			continue
		}
		if _, exists := h.byID[spec.Name]; exists {
			_ = entries[i].close()
			continue
		}
		h.servers = append(h.servers, entries[i])
		h.byID[spec.Name] = entries[i]
		h.logger.Info("MCP server connected",
			telemetry.EventField(telemetry.EventServerConnected),
			telemetry.ServerField(spec.Name),
			zap.Int("tools", len(entries[i].tools)),
		)
	}
	if len(h.servers) == 0 {
		if len(failures) == 0 {
			return errors.New("no MCP servers configured")
		}
		return fmt.Errorf("no MCP servers connected: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (h *Hub) connect(ctx context.Context, spec domain.ServerSpec) (*serverEntry, error) {
	connectCtx, cancel := context.WithTimeout(ctx, h.opts.ConnectTimeout)
	defer cancel()

	started := time.Now()
	t, closer, err := transport.New(ctx, spec)
	if err != nil {
		return nil, err
	}
	session, err := h.client.Connect(connectCtx, t, nil)
	if err != nil {
		_ = closer()
		h.metrics.ObserveCatalogFetch(spec.Name, opListServers, time.Since(started), err)
		return nil, fmt.Errorf("connect: %w", err)
	}
	entry := &serverEntry{spec: spec, session: session, closer: closer, byName: make(map[string]*mcp.Tool)}

	tools, err := listAllTools(connectCtx, session)
	h.metrics.ObserveCatalogFetch(spec.Name, opListServers, time.Since(started), err)
	if err != nil {
		_ = entry.close()
		return nil, fmt.Errorf("list tools: %w", err)
	}
	for _, tool := range tools {
		if tool == nil || tool.Name == "" {
			continue
		}
		if _, dup := entry.byName[tool.Name]; dup {
			continue
		}
		entry.tools = append(entry.tools, tool)
		entry.byName[tool.Name] = tool
	}

	entry.description = strings.TrimSpace(spec.Description)
	if entry.description == "" {
		if init := session.InitializeResult(); init != nil {
			entry.description = strings.TrimSpace(init.Instructions)
		}
	}
	if entry.description == "" {
		summary := h.ensureSummary(ctx, entry)
		entry.description = summary.ServerSummary
	}
	if entry.description == "" {
		entry.description = briefs.FallbackServerSummary(spec.Name)
	}
	return entry, nil
}

func listAllTools(ctx context.Context, session *mcp.ClientSession) ([]*mcp.Tool, error) {
	var (
		out    []*mcp.Tool
		cursor string
	)
	for {
		res, err := session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Tools...)
		if res.NextCursor == "" || res.NextCursor == cursor {
			return out, nil
		}
		cursor = res.NextCursor
	}
}

// ensureSummary generates briefs for a server once.
func (h *Hub) ensureSummary(ctx context.Context, entry *serverEntry) briefs.Summary {
	entry.briefsMu.Lock()
	defer entry.briefsMu.Unlock()
	if entry.summary != nil {
		return *entry.summary
	}

	defs := make([]domain.ToolDefinition, 0, len(entry.tools))
	for _, tool := range entry.tools {
		defs = append(defs, toDefinition(entry.spec.Name, tool))
	}
	summary, err := h.opts.Briefs.Summarize(ctx, entry.spec.Name, defs)
	if err != nil {
		h.logger.Warn("brief generation failed", telemetry.ServerField(entry.spec.Name), zap.Error(err))
		summary, _ = briefs.NewTruncating(h.opts.MaxBriefLength).Summarize(ctx, entry.spec.Name, defs)
	}

	summaries := make([]domain.ToolSummary, 0, len(entry.tools))
	for _, tool := range entry.tools {
		brief := summary.ToolBriefs[tool.Name]
		if brief == "" {
			brief = briefs.Truncate(tool.Description, h.opts.MaxBriefLength)
		}
		summaries = append(summaries, domain.ToolSummary{ID: tool.Name, Brief: brief})
	}
	entry.summary = &summary
	entry.summaries = summaries
	return summary
}

func (h *Hub) ListServers(_ context.Context) ([]domain.ServerInfo, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.ServerInfo, 0, len(h.servers))
	for _, entry := range h.servers {
		out = append(out, domain.ServerInfo{ID: entry.spec.Name, Description: entry.description})
	}
	return out, nil
}

func (h *Hub) ListToolSummaries(ctx context.Context, serverID string) ([]domain.ToolSummary, error) {
	entry, err := h.entry(opToolSummaries, serverID)
	if err != nil {
		return nil, err
	}
	h.ensureSummary(ctx, entry)
	entry.briefsMu.Lock()
	defer entry.briefsMu.Unlock()
	return append([]domain.ToolSummary(nil), entry.summaries...), nil
}

func (h *Hub) GetToolDefinition(_ context.Context, serverID, toolID string) (domain.ToolDefinition, error) {
	entry, err := h.entry(opToolDefinition, serverID)
	if err != nil {
		return domain.ToolDefinition{}, err
	}
	tool, ok := entry.byName[toolID]
	if !ok {
		return domain.ToolDefinition{}, domain.UnknownToolError(opToolDefinition, serverID, []string{toolID})
	}
	return toDefinition(serverID, tool), nil
}

func (h *Hub) Invoke(ctx context.Context, serverID, toolID string, args json.RawMessage) (domain.ToolResult, error) {
	entry, err := h.entry(opInvoke, serverID)
	if err != nil {
		return domain.ToolResult{}, err
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	res, err := entry.session.CallTool(ctx, &mcp.CallToolParams{Name: toolID, Arguments: args})
	if err != nil {
		return domain.ToolResult{}, domain.Wrap(domain.CodeUnavailable, opInvoke, err)
	}
	return domain.ToolResult{Content: FlattenContent(res), IsError: res.IsError}, nil
}

// ServerStatus describes one connected server.
type ServerStatus struct {
	ID          string               `json:"id" yaml:"id" toml:"id"`
	Transport   domain.TransportKind `json:"transport" yaml:"transport" toml:"transport"`
	Description string               `json:"description" yaml:"description" toml:"description"`
	Tools       int                  `json:"tools" yaml:"tools" toml:"tools"`
}

// Status lists the connected servers in config order.
func (h *Hub) Status() []ServerStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ServerStatus, 0, len(h.servers))
	for _, entry := range h.servers {
		transport := entry.spec.Transport
		if transport == "" {
			transport = domain.TransportStdio
		}
		out = append(out, ServerStatus{
			ID:          entry.spec.Name,
			Transport:   transport,
			Description: entry.description,
			Tools:       len(entry.tools),
		})
	}
	return out
}

// CheckHealth pings every connected server once and records the result in
// the health tracker.
func (h *Hub) CheckHealth(ctx context.Context) map[string]error {
	h.mu.RLock()
	entries := append([]*serverEntry(nil), h.servers...)
	h.mu.RUnlock()

	results := make(map[string]error, len(entries))
	for _, entry := range entries {
		err := h.probe.Ping(ctx, entry.session)
		if err != nil {
			h.logger.Warn("MCP server ping failed", telemetry.ServerField(entry.spec.Name), zap.Error(err))
		}
		h.opts.Health.Set(entry.spec.Name, err)
		results[entry.spec.Name] = err
	}
	return results
}

// Watch runs CheckHealth every interval until ctx is done.
func (h *Hub) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.CheckHealth(ctx)
		}
	}
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var errs []error
	for _, entry := range h.servers {
		if err := entry.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.spec.Name, err))
		}
	}
	h.servers = nil
	h.byID = make(map[string]*serverEntry)
	return errors.Join(errs...)
}

func (h *Hub) entry(op, serverID string) (*serverEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.byID[serverID]
	if !ok {
		return nil, domain.UnknownServerError(op, []string{serverID})
	}
	return entry, nil
}

func (e *serverEntry) close() error {
	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Close())
	}
	if e.closer != nil {
		errs = append(errs, e.closer())
	}
	return errors.Join(errs...)
}

func toDefinition(serverID string, tool *mcp.Tool) domain.ToolDefinition {
	def := domain.ToolDefinition{
		ServerID:    serverID,
		Name:        tool.Name,
		Description: tool.Description,
	}
	if tool.InputSchema != nil {
		if raw, err := json.Marshal(tool.InputSchema); err == nil {
			def.InputSchema = raw
		}
	}
	return def
}

var _ domain.CatalogSource = (*Hub)(nil)
