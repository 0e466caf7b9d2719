package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent        = "event"
	FieldServer       = "server"
	FieldTool         = "tool"
	FieldAction       = "action"
	FieldConversation = "conversation"
	FieldDurationMs   = "duration_ms"
	FieldLogSource    = "log_source"
	FieldTurn         = "turn"
)

const (
	EventServerConnected  = "server_connected"
	EventServerSkipped    = "server_skipped"
	EventLoaderAction     = "loader_action"
	EventToolCall         = "tool_call"
	EventLLMTurn          = "llm_turn"
	EventBriefFallback    = "brief_fallback"
	EventTranscriptSaved  = "transcript_saved"
	EventConversationOpen = "conversation_open"
)

const (
	LogSourceCore       = "core"
	LogSourceDownstream = "downstream"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ServerField(serverID string) zap.Field {
	return zap.String(FieldServer, serverID)
}

func ToolField(toolID string) zap.Field {
	return zap.String(FieldTool, toolID)
}

func ActionField(action string) zap.Field {
	return zap.String(FieldAction, action)
}

func ConversationField(id string) zap.Field {
	return zap.String(FieldConversation, id)
}

func TurnField(turn int) zap.Field {
	return zap.Int(FieldTurn, turn)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}
