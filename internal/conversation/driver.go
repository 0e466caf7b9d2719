package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dcl/internal/assembler"
	"dcl/internal/disclosure"
	"dcl/internal/domain"
	"dcl/internal/infra/telemetry"
	"dcl/internal/loader"
)

// ErrMaxTurns is returned when the model keeps calling tools past the turn limit.
var ErrMaxTurns = errors.New("conversation exceeded max turns")

type Options struct {
	MaxTurns     int
	SystemPrompt string
	Namespace    domain.ToolNamespaceStrategy
	// Provider and Model label LLM metrics and transcripts.
	Provider string
	Model    string
}

// Driver starts conversations against one chat model and catalog source.
type Driver struct {
	model   model.ToolCallingChatModel
	source  domain.CatalogSource
	opts    Options
	store   domain.TranscriptStore
	metrics domain.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewDriver(
	chatModel model.ToolCallingChatModel,
	source domain.CatalogSource,
	opts Options,
	store domain.TranscriptStore,
	metrics domain.Metrics,
	logger *zap.Logger,
) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = domain.DefaultMaxTurns
	}
	return &Driver{
		model:   chatModel,
		source:  source,
		opts:    opts,
		store:   store,
		metrics: metrics,
		logger:  logger.Named("conversation"),
		now:     time.Now,
	}
}

// Start opens a conversation with a fresh disclosure cache: every server
// collapsed and only the loader visible.
func (d *Driver) Start(ctx context.Context, hooks Hooks) (*Conversation, error) {
	if d.model == nil {
		return nil, errors.New("chat model is required")
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	id := uuid.NewString()
	logger := d.logger.With(telemetry.ConversationField(id))

	cache, err := disclosure.New(ctx, d.source, disclosure.Options{
		Namespace: d.opts.Namespace,
		Reserved:  []string{loader.ToolName},
		Metrics:   d.metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open disclosure cache: %w", err)
	}
	l := loader.New(cache, loader.Options{Metrics: d.metrics, Logger: logger})

	conv := &Conversation{
		id:        id,
		driver:    d,
		cache:     cache,
		loader:    l,
		assembler: assembler.New(l, cache),
		hooks:     hooks,
		logger:    logger,
		createdAt: d.now(),
	}
	if d.opts.SystemPrompt != "" {
		conv.messages = append(conv.messages, schema.SystemMessage(d.opts.SystemPrompt))
	}
	logger.Info("conversation started", telemetry.EventField(telemetry.EventConversationOpen))
	return conv, nil
}
