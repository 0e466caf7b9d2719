package app

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"dcl/internal/conversation"
	"dcl/internal/domain"
	"dcl/internal/infra/briefs"
	"dcl/internal/infra/catalog"
	"dcl/internal/infra/llm"
	"dcl/internal/infra/mcpsource"
	"dcl/internal/infra/telemetry"
	"dcl/internal/infra/transcript"
)

func NewConfig(ctx context.Context, opts Options, logger *zap.Logger) (domain.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, err := catalog.NewLoader(logger).Load(ctx, path)
	if err != nil {
		return domain.Config{}, err
	}
	if opts.Model != "" {
		cfg.LLM.Model = opts.Model
	}
	if cfg.Transcript.Enabled && cfg.Transcript.Path == "" {
		cfg.Transcript.Path = transcript.ResolveDefaultPath()
	}
	if opts.DisableTranscripts {
		cfg.Transcript = domain.TranscriptConfig{}
	}
	logger.Info("configuration loaded",
		zap.String("config", path),
		zap.Int("servers", len(cfg.EnabledServers())),
	)
	return cfg, nil
}

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

// NewChatModel returns nil without error when no model is configured, so
// commands that never call the LLM still start.
func NewChatModel(ctx context.Context, cfg domain.Config, logger *zap.Logger) (model.ToolCallingChatModel, error) {
	chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
	if errors.Is(err, llm.ErrModelRequired) {
		logger.Debug("no llm model configured")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}

func NewBriefGenerator(cfg domain.Config, chatModel model.ToolCallingChatModel, metrics domain.Metrics, logger *zap.Logger) briefs.Generator {
	if cfg.Briefs.Mode == domain.BriefsModeTruncate || chatModel == nil {
		if cfg.Briefs.Mode == domain.BriefsModeLLM {
			logger.Warn("no llm model configured; tool briefs fall back to truncated descriptions")
		}
		return briefs.NewTruncating(cfg.Briefs.MaxBriefLength)
	}
	return briefs.NewLLM(chatModel, briefs.LLMOptions{
		Provider:       cfg.LLM.Provider,
		Model:          cfg.LLM.Model,
		MaxBriefLength: cfg.Briefs.MaxBriefLength,
		Metrics:        metrics,
		Logger:         logger,
	})
}

// NewCatalogSource connects every enabled server. The cleanup closes all sessions.
func NewCatalogSource(
	ctx context.Context,
	cfg domain.Config,
	generator briefs.Generator,
	metrics domain.Metrics,
	health *telemetry.HealthTracker,
	logger *zap.Logger,
) (*mcpsource.Hub, func(), error) {
	hub := mcpsource.NewHub(cfg.EnabledServers(), mcpsource.Options{
		ClientName:     "dcl",
		ClientVersion:  Version,
		ConnectTimeout: time.Duration(cfg.ConnectTimeoutSeconds) * time.Second,
		MaxBriefLength: cfg.Briefs.MaxBriefLength,
		Briefs:         generator,
		Metrics:        metrics,
		Health:         health,
		Logger:         logger,
	})
	if err := hub.Start(ctx); err != nil {
		_ = hub.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := hub.Close(); err != nil {
			logger.Warn("close MCP sessions failed", zap.Error(err))
		}
	}
	return hub, cleanup, nil
}

// NewTranscriptStore opens the transcript database, or returns nil when
// recording is disabled.
func NewTranscriptStore(cfg domain.Config, logger *zap.Logger) (*transcript.Store, func(), error) {
	if cfg.Transcript.Path == "" {
		return nil, func() {}, nil
	}
	store, err := transcript.OpenStore(cfg.Transcript.Path)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close transcript store failed", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// NewTranscriptRecorder adapts an optional store to the driver's interface.
func NewTranscriptRecorder(store *transcript.Store) domain.TranscriptStore {
	if store == nil {
		return nil
	}
	return store
}

func NewDriver(
	chatModel model.ToolCallingChatModel,
	hub *mcpsource.Hub,
	cfg domain.Config,
	recorder domain.TranscriptStore,
	metrics domain.Metrics,
	logger *zap.Logger,
) *conversation.Driver {
	return conversation.NewDriver(chatModel, hub, conversation.Options{
		MaxTurns:     cfg.Conversation.MaxTurns,
		SystemPrompt: cfg.Conversation.SystemPrompt,
		Namespace:    cfg.Conversation.ToolNamespaceStrategy,
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
	}, recorder, metrics, logger)
}
