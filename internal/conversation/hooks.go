package conversation

import "dcl/internal/domain"

// Hooks observe a conversation as it runs. Implementations must not block
// or call back into the conversation.
type Hooks interface {
	OnToolsAssembled(turn int, tools []domain.ToolDefinition)
	OnLoaderCall(arguments string, result string)
	OnToolResult(name string, result domain.ToolResult)
	OnAssistantMessage(text string)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) OnToolsAssembled(int, []domain.ToolDefinition) {}
func (NopHooks) OnLoaderCall(string, string)                   {}
func (NopHooks) OnToolResult(string, domain.ToolResult)        {}
func (NopHooks) OnAssistantMessage(string)                     {}
