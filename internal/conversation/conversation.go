package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"dcl/internal/assembler"
	"dcl/internal/disclosure"
	"dcl/internal/domain"
	"dcl/internal/infra/telemetry"
	"dcl/internal/loader"
)

// Reply is the final assistant answer to one user message.
type Reply struct {
	Text      string
	Turns     int
	ToolCalls int
}

// Conversation is one sequential dialogue with its own disclosure state.
type Conversation struct {
	mu        sync.Mutex
	id        string
	driver    *Driver
	cache     *disclosure.Cache
	loader    *loader.Loader
	assembler *assembler.Assembler
	hooks     Hooks
	logger    *zap.Logger
	messages  []*schema.Message
	createdAt time.Time
}

func (c *Conversation) ID() string {
	return c.id
}

// Tools returns the tool list the next LLM request would carry.
func (c *Conversation) Tools() []domain.ToolDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assembler.Build()
}

func (c *Conversation) Snapshot() domain.DisclosureSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Snapshot()
}

func (c *Conversation) Messages() []*schema.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*schema.Message(nil), c.messages...)
}

// Send appends a user message and runs model turns until the model answers
// without tool calls.
func (c *Conversation) Send(ctx context.Context, text string) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.saveTranscript(ctx)

	c.messages = append(c.messages, schema.UserMessage(text))
	d := c.driver
	toolCalls := 0

	for turn := 1; turn <= d.opts.MaxTurns; turn++ {
		defs := c.assembler.Build()
		d.metrics.ObserveContextSize(len(defs))
		c.hooks.OnToolsAssembled(turn, defs)

		infos, err := assembler.ToEino(defs)
		if err != nil {
			return Reply{}, fmt.Errorf("assemble tools: %w", err)
		}
		bound, err := d.model.WithTools(infos)
		if err != nil {
			return Reply{}, fmt.Errorf("bind tools: %w", err)
		}

		started := time.Now()
		msg, err := bound.Generate(ctx, c.messages)
		elapsed := time.Since(started)
		d.metrics.ObserveLLMLatency(d.opts.Provider, d.opts.Model, elapsed)
		if err != nil {
			return Reply{}, fmt.Errorf("llm generate: %w", err)
		}
		if msg == nil {
			return Reply{}, fmt.Errorf("llm generate: empty response")
		}
		c.observeTokenUsage(msg)
		c.logger.Debug("llm turn",
			telemetry.EventField(telemetry.EventLLMTurn),
			telemetry.TurnField(turn),
			telemetry.DurationField(elapsed),
			zap.Int("tools", len(defs)),
			zap.Int("toolCalls", len(msg.ToolCalls)),
		)
		c.messages = append(c.messages, msg)

		if len(msg.ToolCalls) == 0 {
			c.hooks.OnAssistantMessage(msg.Content)
			return Reply{Text: msg.Content, Turns: turn, ToolCalls: toolCalls}, nil
		}
		for _, call := range msg.ToolCalls {
			toolCalls++
			content := c.dispatch(ctx, call)
			c.messages = append(c.messages, schema.ToolMessage(content, call.ID))
		}
	}
	return Reply{}, fmt.Errorf("%w (%d)", ErrMaxTurns, d.opts.MaxTurns)
}

// dispatch routes one tool call. Every failure becomes tool-result text.
func (c *Conversation) dispatch(ctx context.Context, call schema.ToolCall) string {
	name := call.Function.Name
	args := json.RawMessage(call.Function.Arguments)
	if len(strings.TrimSpace(call.Function.Arguments)) == 0 {
		args = json.RawMessage(`{}`)
	}

	if name == loader.ToolName {
		result := c.loader.Call(ctx, args)
		c.hooks.OnLoaderCall(call.Function.Arguments, result)
		return result
	}

	def, ok := c.cache.Resolve(name)
	if !ok {
		c.logger.Info("call to inactive tool", telemetry.ToolField(name))
		return fmt.Sprintf("Error: tool %s is not active; use the %s tool to load it first", name, loader.ToolName)
	}

	d := c.driver
	started := time.Now()
	result, err := d.source.Invoke(ctx, def.ServerID, def.Name, args)
	elapsed := time.Since(started)
	d.metrics.ObserveToolCall(def.ServerID, def.Name, elapsed, err)
	c.logger.Debug("tool call",
		telemetry.EventField(telemetry.EventToolCall),
		telemetry.ServerField(def.ServerID),
		telemetry.ToolField(def.Name),
		telemetry.DurationField(elapsed),
		zap.Error(err),
	)
	if err != nil {
		result = domain.ToolResult{Content: fmt.Sprintf("tool %s failed: %s", name, domain.MessageOf(err)), IsError: true}
	}
	c.hooks.OnToolResult(name, result)
	if result.IsError {
		return "Error: " + result.Content
	}
	return result.Content
}

func (c *Conversation) observeTokenUsage(msg *schema.Message) {
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	tokens := msg.ResponseMeta.Usage.TotalTokens
	if tokens <= 0 {
		return
	}
	c.driver.metrics.ObserveLLMTokens(c.driver.opts.Provider, c.driver.opts.Model, tokens)
}

func (c *Conversation) saveTranscript(ctx context.Context) {
	store := c.driver.store
	if store == nil {
		return
	}
	record := domain.Transcript{
		ID:         c.id,
		Model:      c.driver.opts.Model,
		CreatedAt:  c.createdAt,
		UpdatedAt:  c.driver.now(),
		Messages:   toTranscriptMessages(c.messages),
		Disclosure: c.cache.Snapshot(),
	}
	if err := store.Save(context.WithoutCancel(ctx), record); err != nil {
		c.logger.Warn("save transcript failed", zap.Error(err))
		return
	}
	c.logger.Debug("transcript saved", telemetry.EventField(telemetry.EventTranscriptSaved))
}

func toTranscriptMessages(messages []*schema.Message) []domain.TranscriptMessage {
	out := make([]domain.TranscriptMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		entry := domain.TranscriptMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			entry.ToolCalls = append(entry.ToolCalls, domain.TranscriptToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
		out = append(out, entry)
	}
	return out
}
