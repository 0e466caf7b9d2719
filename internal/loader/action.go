package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"dcl/internal/domain"
)

type ActionKind string

const (
	ActionLoadSummaries ActionKind = "load_tool_summaries"
	ActionLoadTools     ActionKind = "load_tools"
)

// Action is one of LoadSummaries or LoadTools.
type Action interface {
	Kind() ActionKind
	isAction()
}

// LoadSummaries raises the named servers to the summaries level.
type LoadSummaries struct {
	Servers []string `json:"servers"`
}

func (LoadSummaries) Kind() ActionKind { return ActionLoadSummaries }
func (LoadSummaries) isAction()        {}

// LoadTools activates tools of one summarized server.
type LoadTools struct {
	Server string   `json:"server"`
	Tools  []string `json:"tools"`
}

func (LoadTools) Kind() ActionKind { return ActionLoadTools }
func (LoadTools) isAction()        {}

var (
	loadSummariesSchema = mustResolve(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"action":  {Type: "string"},
			"servers": nonEmptyStringArray(),
		},
		Required: []string{"action", "servers"},
	})
	loadToolsSchema = mustResolve(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"action": {Type: "string"},
			"server": {Type: "string", MinLength: intPtr(1)},
			"tools":  nonEmptyStringArray(),
		},
		Required: []string{"action", "server", "tools"},
	})
)

// ParseAction decodes loader arguments into an Action. Arguments that are not
// an object, lack a string action, or fail the variant's schema yield
// MalformedActionError; an unrecognised action yields UnknownActionError.
func ParseAction(raw json.RawMessage) (Action, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, domain.MalformedActionError("arguments are required: provide an action")
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, domain.MalformedActionError(fmt.Sprintf("arguments must be a JSON object: %v", err))
	}

	value, ok := fields["action"]
	if !ok {
		return nil, domain.MalformedActionError("action is required: use 'load_tool_summaries' or 'load_tools'")
	}
	name, ok := value.(string)
	if !ok {
		return nil, domain.MalformedActionError("action must be a string")
	}

	switch ActionKind(name) {
	case ActionLoadSummaries:
		if err := loadSummariesSchema.Validate(fields); err != nil {
			return nil, domain.MalformedActionError("servers list is required for load_tool_summaries: " + err.Error())
		}
		var action LoadSummaries
		if err := json.Unmarshal(trimmed, &action); err != nil {
			return nil, domain.MalformedActionError(err.Error())
		}
		if !hasID(action.Servers) {
			return nil, domain.MalformedActionError("servers list is required for load_tool_summaries: every entry is blank")
		}
		return action, nil
	case ActionLoadTools:
		if err := loadToolsSchema.Validate(fields); err != nil {
			return nil, domain.MalformedActionError("server and tools list are required for load_tools: " + err.Error())
		}
		var action LoadTools
		if err := json.Unmarshal(trimmed, &action); err != nil {
			return nil, domain.MalformedActionError(err.Error())
		}
		action.Server = strings.TrimSpace(action.Server)
		if action.Server == "" {
			return nil, domain.MalformedActionError("server is required for load_tools: name is blank")
		}
		if !hasID(action.Tools) {
			return nil, domain.MalformedActionError("tools list is required for load_tools: every entry is blank")
		}
		return action, nil
	default:
		return nil, domain.UnknownActionError(name)
	}
}

// InputSchema is the schema advertised to the LLM. It is the union of both
// variants; ParseAction enforces the per-variant requirements.
func InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"action": {
				Type:        "string",
				Enum:        []any{string(ActionLoadSummaries), string(ActionLoadTools)},
				Description: "Action to perform: load_tool_summaries or load_tools.",
			},
			"servers": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "List of MCP server names to load (for load_tool_summaries).",
			},
			"tools": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "List of tool names to activate (for load_tools).",
			},
			"server": {
				Type:        "string",
				Description: "MCP server name for the tools (for load_tools).",
			},
		},
		Required: []string{"action"},
	}
}

var inputSchemaJSON = mustMarshal(InputSchema())

func nonEmptyStringArray() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "array",
		Items:    &jsonschema.Schema{Type: "string", MinLength: intPtr(1)},
		MinItems: intPtr(1),
	}
}

// hasID reports whether ids holds an entry that is not blank once trimmed.
func hasID(ids []string) bool {
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			return true
		}
	}
	return false
}

func mustResolve(schema *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("loader: resolve action schema: %v", err))
	}
	return resolved
}

func mustMarshal(schema *jsonschema.Schema) json.RawMessage {
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("loader: marshal input schema: %v", err))
	}
	return raw
}

func intPtr(v int) *int {
	return &v
}
