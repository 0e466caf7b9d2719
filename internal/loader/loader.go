package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dcl/internal/disclosure"
	"dcl/internal/domain"
	"dcl/internal/infra/telemetry"
)

// ToolName is the name the loader is exposed under.
const ToolName = "loader"

type Options struct {
	Metrics domain.Metrics
	Logger  *zap.Logger
}

// Loader is the meta-tool bound to one conversation's disclosure cache.
type Loader struct {
	cache   *disclosure.Cache
	metrics domain.Metrics
	logger  *zap.Logger
}

// Result is the outcome of a successful loader call.
type Result struct {
	Action     ActionKind
	Summaries  *disclosure.SummariesResult
	Activation *disclosure.ActivationResult
}

func New(cache *disclosure.Cache, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Loader{
		cache:   cache,
		metrics: metrics,
		logger:  logger.Named("loader"),
	}
}

// Definition returns the loader tool with a description regenerated from the
// current cache state.
func (l *Loader) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolName,
		Description: l.Description(),
		InputSchema: append(json.RawMessage(nil), inputSchemaJSON...),
	}
}

func (l *Loader) Description() string {
	return Describe(l.cache.ListServers(), l.cache.ActiveTools())
}

// Handle parses and applies one loader call.
func (l *Loader) Handle(ctx context.Context, raw json.RawMessage) (Result, error) {
	action, err := ParseAction(raw)
	if err != nil {
		l.metrics.ObserveLoaderAction("invalid", err)
		l.logger.Info("loader call rejected", telemetry.EventField(telemetry.EventLoaderAction), zap.Error(err))
		return Result{}, err
	}

	result := Result{Action: action.Kind()}
	switch a := action.(type) {
	case LoadSummaries:
		summaries, loadErr := l.cache.LoadSummaries(ctx, a.Servers)
		err = loadErr
		if err == nil {
			result.Summaries = &summaries
		}
	case LoadTools:
		activation, activateErr := l.cache.ActivateTools(ctx, a.Server, a.Tools)
		err = activateErr
		if err == nil {
			result.Activation = &activation
		}
	}

	l.metrics.ObserveLoaderAction(string(action.Kind()), err)
	if err != nil {
		l.logger.Info("loader action failed",
			telemetry.EventField(telemetry.EventLoaderAction),
			telemetry.ActionField(string(action.Kind())),
			zap.Error(err),
		)
		return Result{}, err
	}
	l.logger.Debug("loader action applied",
		telemetry.EventField(telemetry.EventLoaderAction),
		telemetry.ActionField(string(action.Kind())),
	)
	return result, nil
}

// Call handles a loader call and renders the outcome as tool-result text.
// Loader errors are rendered, never returned.
func (l *Loader) Call(ctx context.Context, raw json.RawMessage) string {
	result, err := l.Handle(ctx, raw)
	if err != nil {
		return RenderError(err)
	}
	return result.Text()
}

// RenderError formats a loader error for the LLM.
func RenderError(err error) string {
	return "Error: " + domain.MessageOf(err)
}

// Text renders a result as tool-result text.
func (r Result) Text() string {
	switch {
	case r.Summaries != nil:
		return renderSummaries(*r.Summaries)
	case r.Activation != nil:
		return renderActivation(*r.Activation)
	default:
		return "No action applied."
	}
}

func renderSummaries(result disclosure.SummariesResult) string {
	if len(result.Servers) == 0 {
		return "No tool summaries loaded."
	}
	ids := make([]string, 0, len(result.Servers))
	for _, server := range result.Servers {
		ids = append(ids, server.ServerID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Loaded tool summaries for servers: %s.", strings.Join(ids, ", "))
	for _, server := range result.Servers {
		fmt.Fprintf(&b, "\n'%s' tools:", server.ServerID)
		if server.AlreadyLoaded {
			b.WriteString(" (already loaded)")
		}
		for _, summary := range server.Summaries {
			fmt.Fprintf(&b, "\n- %s: %s", summary.ID, summary.Brief)
		}
	}
	return b.String()
}

func renderActivation(result disclosure.ActivationResult) string {
	var b strings.Builder
	if len(result.Activated) > 0 {
		fmt.Fprintf(&b, "Activated tools from %s: %s.", result.ServerID, strings.Join(result.Activated, ", "))
	} else {
		fmt.Fprintf(&b, "No tools activated from %s.", result.ServerID)
	}
	if len(result.AlreadyActive) > 0 {
		fmt.Fprintf(&b, " Already active: %s.", strings.Join(result.AlreadyActive, ", "))
	}
	return b.String()
}
