package domain

import (
	"context"
	"errors"
	"time"
)

var ErrTranscriptNotFound = errors.New("transcript not found")

// ServerSnapshot is the serialisable disclosure state of one server.
type ServerSnapshot struct {
	ID        string `json:"id" yaml:"id" toml:"id"`
	Level     string `json:"level" yaml:"level" toml:"level"`
	Summaries int    `json:"summaries" yaml:"summaries" toml:"summaries"`
}

// DisclosureSnapshot captures server levels and active tool names of a conversation.
type DisclosureSnapshot struct {
	Servers     []ServerSnapshot `json:"servers" yaml:"servers" toml:"servers"`
	ActiveTools []string         `json:"activeTools" yaml:"activeTools" toml:"activeTools"`
}

type TranscriptToolCall struct {
	ID        string `json:"id" yaml:"id" toml:"id"`
	Name      string `json:"name" yaml:"name" toml:"name"`
	Arguments string `json:"arguments" yaml:"arguments" toml:"arguments"`
}

type TranscriptMessage struct {
	Role       string               `json:"role" yaml:"role" toml:"role"`
	Content    string               `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`
	ToolCallID string               `json:"toolCallId,omitempty" yaml:"toolCallId,omitempty" toml:"toolCallId,omitempty"`
	ToolCalls  []TranscriptToolCall `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty" toml:"toolCalls,omitempty"`
}

// Transcript is the recorded history of one conversation. It is never used to
// seed the state of another conversation.
type Transcript struct {
	ID         string              `json:"id" yaml:"id" toml:"id"`
	Model      string              `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	CreatedAt  time.Time           `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt"`
	Messages   []TranscriptMessage `json:"messages" yaml:"messages" toml:"messages"`
	Disclosure DisclosureSnapshot  `json:"disclosure" yaml:"disclosure" toml:"disclosure"`
}

// TranscriptSummary is the listing form of a transcript.
type TranscriptSummary struct {
	ID          string    `json:"id" yaml:"id" toml:"id"`
	Model       string    `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt"`
	Messages    int       `json:"messages" yaml:"messages" toml:"messages"`
	ActiveTools int       `json:"activeTools" yaml:"activeTools" toml:"activeTools"`
}

type TranscriptStore interface {
	Save(ctx context.Context, transcript Transcript) error
	Get(ctx context.Context, id string) (Transcript, error)
	List(ctx context.Context) ([]TranscriptSummary, error)
}
