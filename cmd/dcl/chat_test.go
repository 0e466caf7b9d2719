package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcl/internal/conversation"
	"dcl/internal/disclosure/disclosuretest"
	"dcl/internal/loader"
)

// loopingModel keeps calling the loader while the latest user message is
// "loop" and answers any other message directly.
type loopingModel struct{}

func (m loopingModel) Generate(_ context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.User {
			last = messages[i].Content
			break
		}
	}
	if last != "loop" {
		return schema.AssistantMessage("answered "+last, nil), nil
	}
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call",
		Function: schema.FunctionCall{Name: loader.ToolName, Arguments: `{"action":"load_tool_summaries","servers":["calc"]}`},
	}}), nil
}

func (m loopingModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m loopingModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func startLoopingConversation(t *testing.T) *conversation.Conversation {
	t.Helper()
	driver := conversation.NewDriver(loopingModel{}, disclosuretest.CalcAndWeather(), conversation.Options{MaxTurns: 2}, nil, nil, nil)
	conv, err := driver.Start(context.Background(), nil)
	require.NoError(t, err)
	return conv
}

func countUserMessages(conv *conversation.Conversation) int {
	count := 0
	for _, msg := range conv.Messages() {
		if msg.Role == schema.User {
			count++
		}
	}
	return count
}

func TestRunInteractive_MaxTurnsContinues(t *testing.T) {
	conv := startLoopingConversation(t)
	var out bytes.Buffer

	err := runInteractive(context.Background(), conv, strings.NewReader("loop\nhello\n"), &out, outputText, false)
	require.NoError(t, err)

	assert.Equal(t, 2, countUserMessages(conv))
	assert.Contains(t, out.String(), "conversation exceeded max turns (2)")
	assert.Contains(t, out.String(), "Assistant: answered hello")
}

func TestRunInteractive_StructuredMaxTurnsContinues(t *testing.T) {
	conv := startLoopingConversation(t)
	var out bytes.Buffer

	err := runInteractive(context.Background(), conv, strings.NewReader("loop\nloop\n"), &out, outputJSON, false)
	require.NoError(t, err)
	assert.Equal(t, 2, countUserMessages(conv))
}

func TestRunPrompt_MaxTurnsExitCode(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantCode int
	}{
		{name: "text exits with code 2", format: outputText, wantCode: 2},
		{name: "json returns the error", format: outputJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := startLoopingConversation(t)
			err := runPrompt(context.Background(), conv, "loop", &bytes.Buffer{}, tt.format, false)
			require.Error(t, err)

			var exitErr exitError
			if tt.wantCode == 0 {
				assert.False(t, errors.As(err, &exitErr))
				assert.ErrorIs(t, err, conversation.ErrMaxTurns)
				return
			}
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, tt.wantCode, exitErr.code)
		})
	}
}
