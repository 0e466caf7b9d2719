package disclosure

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"dcl/internal/domain"
	"dcl/internal/infra/telemetry"
)

const (
	opLoadSummaries = "load_tool_summaries"
	opActivateTools = "load_tools"
)

// Options configures a Cache.
type Options struct {
	Namespace domain.ToolNamespaceStrategy
	// Reserved names can never be taken by an active tool (the loader's own name).
	Reserved []string
	Metrics  domain.Metrics
	Logger   *zap.Logger
}

// ServerView is the visible state of one server.
type ServerView struct {
	Info      domain.ServerInfo
	Level     domain.DisclosureLevel
	Summaries []domain.ToolSummary
}

// ServerSummaries lists the summaries made visible for one server.
type ServerSummaries struct {
	ServerID      string               `json:"server"`
	Summaries     []domain.ToolSummary `json:"summaries"`
	AlreadyLoaded bool                 `json:"alreadyLoaded,omitempty"`
}

type SummariesResult struct {
	Servers []ServerSummaries `json:"servers"`
}

type ActivationResult struct {
	ServerID      string   `json:"server"`
	Activated     []string `json:"activated"`
	AlreadyActive []string `json:"alreadyActive,omitempty"`
}

// ActiveTool is an activated definition together with its LLM-facing name.
type ActiveTool struct {
	Definition  domain.ToolDefinition
	ExposedName string
}

type serverState struct {
	info      domain.ServerInfo
	level     domain.DisclosureLevel
	summaries []domain.ToolSummary
	known     map[string]struct{}
	active    map[string]struct{}
}

// Cache is the per-conversation disclosure state. It is owned by a single
// conversation and is not safe for concurrent mutation.
type Cache struct {
	source    domain.CatalogSource
	namespace domain.ToolNamespaceStrategy
	reserved  map[string]struct{}
	metrics   domain.Metrics
	logger    *zap.Logger

	servers   []*serverState
	byID      map[string]*serverState
	active    []ActiveTool
	byExposed map[string]int
}

// New builds a cache with every catalog server collapsed and no active tools.
func New(ctx context.Context, source domain.CatalogSource, opts Options) (*Cache, error) {
	if source == nil {
		return nil, errors.New("catalog source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	namespace, ok := domain.ParseNamespaceStrategy(string(opts.Namespace))
	if !ok {
		return nil, errors.New("unsupported tool namespace strategy: " + string(opts.Namespace))
	}

	infos, err := source.ListServers(ctx)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		source:    source,
		namespace: namespace,
		reserved:  make(map[string]struct{}, len(opts.Reserved)),
		metrics:   metrics,
		logger:    logger.Named("disclosure"),
		servers:   make([]*serverState, 0, len(infos)),
		byID:      make(map[string]*serverState, len(infos)),
		byExposed: make(map[string]int),
	}
	for _, name := range opts.Reserved {
		c.reserved[name] = struct{}{}
	}
	for _, info := range infos {
		if _, exists := c.byID[info.ID]; exists {
			c.logger.Warn("duplicate server in catalog", telemetry.ServerField(info.ID))
			continue
		}
		state := &serverState{
			info:   info,
			level:  domain.LevelCollapsed,
			known:  make(map[string]struct{}),
			active: make(map[string]struct{}),
		}
		c.servers = append(c.servers, state)
		c.byID[info.ID] = state
	}
	return c, nil
}

// ListServers returns every server in catalog order.
func (c *Cache) ListServers() []ServerView {
	out := make([]ServerView, 0, len(c.servers))
	for _, state := range c.servers {
		view := ServerView{Info: state.info, Level: state.level}
		if state.level == domain.LevelSummariesLoaded {
			view.Summaries = append([]domain.ToolSummary(nil), state.summaries...)
		}
		out = append(out, view)
	}
	return out
}

// Level reports the disclosure level of a server.
func (c *Cache) Level(serverID string) (domain.DisclosureLevel, bool) {
	state, ok := c.byID[serverID]
	if !ok {
		return domain.LevelCollapsed, false
	}
	return state.level, true
}

// ActivationState reports whether a tool of a server is active.
func (c *Cache) ActivationState(serverID, toolID string) domain.ActivationState {
	state, ok := c.byID[serverID]
	if !ok {
		return domain.ActivationInactive
	}
	if _, ok := state.active[toolID]; ok {
		return domain.ActivationActive
	}
	return domain.ActivationInactive
}

// LoadSummaries raises every named server to SummariesLoaded. The call is
// all-or-nothing: on error no server changes level.
func (c *Cache) LoadSummaries(ctx context.Context, serverIDs []string) (SummariesResult, error) {
	ids := normalizeIDs(serverIDs)

	var unknown []string
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return SummariesResult{}, domain.UnknownServerError(opLoadSummaries, unknown)
	}

	fetched := make(map[string][]domain.ToolSummary, len(ids))
	for _, id := range ids {
		state := c.byID[id]
		if state.level == domain.LevelSummariesLoaded {
			continue
		}
		started := time.Now()
		summaries, err := c.source.ListToolSummaries(ctx, id)
		c.metrics.ObserveCatalogFetch(id, opLoadSummaries, time.Since(started), err)
		if err != nil {
			c.logger.Warn("load tool summaries failed", telemetry.ServerField(id), zap.Error(err))
			return SummariesResult{}, fetchError(opLoadSummaries, id, err)
		}
		fetched[id] = dedupeSummaries(summaries)
	}

	result := SummariesResult{Servers: make([]ServerSummaries, 0, len(ids))}
	for _, id := range ids {
		state := c.byID[id]
		summaries, loadedNow := fetched[id]
		if loadedNow {
			state.summaries = summaries
			for _, summary := range summaries {
				state.known[summary.ID] = struct{}{}
			}
			state.level = domain.LevelSummariesLoaded
			c.metrics.ObserveSummariesLoaded(id)
			c.logger.Debug("tool summaries loaded", telemetry.ServerField(id), zap.Int("tools", len(summaries)))
		}
		result.Servers = append(result.Servers, ServerSummaries{
			ServerID:      id,
			Summaries:     append([]domain.ToolSummary(nil), state.summaries...),
			AlreadyLoaded: !loadedNow,
		})
	}
	return result, nil
}

// ActivateTools adds the full definitions of the named tools to the active set.
// The server must already be at SummariesLoaded. On error the active set is unchanged.
func (c *Cache) ActivateTools(ctx context.Context, serverID string, toolIDs []string) (ActivationResult, error) {
	state, ok := c.byID[serverID]
	if !ok {
		return ActivationResult{}, domain.UnknownServerError(opActivateTools, []string{serverID})
	}
	if state.level != domain.LevelSummariesLoaded {
		return ActivationResult{}, domain.ServerNotSummarizedError(opActivateTools, serverID)
	}

	ids := normalizeIDs(toolIDs)
	var unknown []string
	for _, id := range ids {
		if _, ok := state.known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return ActivationResult{}, domain.UnknownToolError(opActivateTools, serverID, unknown)
	}

	result := ActivationResult{ServerID: serverID}
	pending := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := state.active[id]; ok {
			result.AlreadyActive = append(result.AlreadyActive, id)
			continue
		}
		name := domain.ExposedName(c.namespace, serverID, id)
		if _, ok := c.reserved[name]; ok {
			return ActivationResult{}, domain.ToolNameConflictError(opActivateTools, name, "the loader")
		}
		if idx, ok := c.byExposed[name]; ok {
			return ActivationResult{}, domain.ToolNameConflictError(opActivateTools, name, "server "+c.active[idx].Definition.ServerID)
		}
		pending = append(pending, id)
	}

	definitions := make([]domain.ToolDefinition, 0, len(pending))
	for _, id := range pending {
		started := time.Now()
		def, err := c.source.GetToolDefinition(ctx, serverID, id)
		c.metrics.ObserveCatalogFetch(serverID, opActivateTools, time.Since(started), err)
		if err != nil {
			c.logger.Warn("fetch tool definition failed", telemetry.ServerField(serverID), telemetry.ToolField(id), zap.Error(err))
			return ActivationResult{}, fetchError(opActivateTools, serverID, err)
		}
		def.ServerID = serverID
		def.Name = id
		definitions = append(definitions, def)
	}

	for _, def := range definitions {
		name := domain.ExposedName(c.namespace, serverID, def.Name)
		c.byExposed[name] = len(c.active)
		c.active = append(c.active, ActiveTool{Definition: def, ExposedName: name})
		state.active[def.Name] = struct{}{}
		result.Activated = append(result.Activated, def.Name)
	}
	if len(result.Activated) > 0 {
		c.metrics.ObserveToolActivations(serverID, len(result.Activated))
		c.logger.Debug("tools activated", telemetry.ServerField(serverID), zap.Strings("tools", result.Activated))
	}
	return result, nil
}

// IsActive reports whether a tool of a server is in the active set.
func (c *Cache) IsActive(serverID, toolID string) bool {
	return c.ActivationState(serverID, toolID) == domain.ActivationActive
}

// ActiveDefinitions returns the active tool set in activation order.
func (c *Cache) ActiveDefinitions() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(c.active))
	for _, tool := range c.active {
		out = append(out, tool.Definition)
	}
	return out
}

// ActiveTools returns the active tool set with exposed names, in activation order.
func (c *Cache) ActiveTools() []ActiveTool {
	return append([]ActiveTool(nil), c.active...)
}

// Resolve finds the active tool exposed under name.
func (c *Cache) Resolve(name string) (domain.ToolDefinition, bool) {
	idx, ok := c.byExposed[name]
	if !ok {
		return domain.ToolDefinition{}, false
	}
	return c.active[idx].Definition, true
}

// Namespace returns the naming strategy for active tools.
func (c *Cache) Namespace() domain.ToolNamespaceStrategy {
	return c.namespace
}

func fetchError(op, serverID string, err error) error {
	if errors.Is(err, domain.ErrCatalogFetch) {
		return err
	}
	return domain.CatalogFetchError(op, serverID, err)
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func dedupeSummaries(in []domain.ToolSummary) []domain.ToolSummary {
	out := make([]domain.ToolSummary, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, summary := range in {
		if summary.ID == "" {
			continue
		}
		if _, ok := seen[summary.ID]; ok {
			continue
		}
		seen[summary.ID] = struct{}{}
		out = append(out, summary)
	}
	return out
}
