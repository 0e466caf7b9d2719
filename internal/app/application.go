package app

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"dcl/internal/conversation"
	"dcl/internal/domain"
	"dcl/internal/infra/gateway"
	"dcl/internal/infra/llm"
	"dcl/internal/infra/mcpsource"
	"dcl/internal/infra/telemetry"
	"dcl/internal/infra/transcript"
)

// ErrTranscriptsDisabled is returned by transcript queries when recording is off.
var ErrTranscriptsDisabled = errors.New("transcripts are disabled: set transcript.enabled: true or transcript.path in the config")

// Application holds the connected catalog and everything needed to open
// conversations or serve the gateway.
type Application struct {
	config    domain.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   domain.Metrics
	health    *telemetry.HealthTracker
	chatModel model.ToolCallingChatModel
	source    *mcpsource.Hub
	store     *transcript.Store
	driver    *conversation.Driver
}

// ApplicationOptions captures dependencies for Application.
type ApplicationOptions struct {
	Config    domain.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Metrics   domain.Metrics
	Health    *telemetry.HealthTracker
	ChatModel model.ToolCallingChatModel
	Source    *mcpsource.Hub
	Store     *transcript.Store
	Driver    *conversation.Driver
}

func NewApplication(opts ApplicationOptions) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		config:    opts.Config,
		logger:    logger.Named("app"),
		registry:  opts.Registry,
		metrics:   opts.Metrics,
		health:    opts.Health,
		chatModel: opts.ChatModel,
		source:    opts.Source,
		store:     opts.Store,
		driver:    opts.Driver,
	}
}

func (a *Application) Config() domain.Config {
	return a.config
}

// StartObservability serves /metrics and /healthz in the background when
// observability.listenAddress is set, and pings servers so /healthz stays
// current. It stops with ctx.
func (a *Application) StartObservability(ctx context.Context) {
	addr := a.config.Observability.ListenAddress
	if addr == "" {
		return
	}
	go a.source.Watch(ctx, mcpsource.DefaultWatchInterval)
	go func() {
		err := telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
			Addr:          addr,
			EnableMetrics: true,
			EnableHealthz: true,
			Health:        a.health,
			Registry:      a.registry,
		}, a.logger)
		if err != nil {
			a.logger.Warn("observability server stopped", zap.Error(err))
		}
	}()
}

// NewConversation opens a conversation with every server collapsed.
func (a *Application) NewConversation(ctx context.Context, hooks conversation.Hooks) (*conversation.Conversation, error) {
	if a.chatModel == nil {
		return nil, llm.ErrModelRequired
	}
	return a.driver.Start(ctx, hooks)
}

// Serve runs the MCP gateway over stdio until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	g, err := gateway.New(ctx, a.source, gateway.Options{
		Name:      "dcl",
		Version:   Version,
		Namespace: a.config.Conversation.ToolNamespaceStrategy,
		Metrics:   a.metrics,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	return g.Run(ctx)
}

// Servers lists the connected servers.
func (a *Application) Servers() []mcpsource.ServerStatus {
	return a.source.Status()
}

func (a *Application) Transcripts(ctx context.Context) ([]domain.TranscriptSummary, error) {
	if a.store == nil {
		return nil, ErrTranscriptsDisabled
	}
	return a.store.List(ctx)
}

func (a *Application) Transcript(ctx context.Context, id string) (domain.Transcript, error) {
	if a.store == nil {
		return domain.Transcript{}, ErrTranscriptsDisabled
	}
	return a.store.Get(ctx, id)
}
