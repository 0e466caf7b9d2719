package assembler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"dcl/internal/domain"
)

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// ToEino converts definitions into eino tool infos for a chat model.
func ToEino(defs []domain.ToolDefinition) ([]*schema.ToolInfo, error) {
	out := make([]*schema.ToolInfo, 0, len(defs))
	for _, def := range defs {
		params := &jsonschema.Schema{}
		if err := json.Unmarshal(inputSchema(def), params); err != nil {
			return nil, fmt.Errorf("decode input schema for %s: %w", def.Name, err)
		}
		out = append(out, &schema.ToolInfo{
			Name:        def.Name,
			Desc:        def.Description,
			ParamsOneOf: schema.NewParamsOneOfByJSONSchema(params),
		})
	}
	return out, nil
}

// ToMCP converts a definition into an MCP tool. The input schema must be an
// object schema.
func ToMCP(def domain.ToolDefinition) (*mcp.Tool, error) {
	var params map[string]any
	if err := json.Unmarshal(inputSchema(def), &params); err != nil {
		return nil, fmt.Errorf("decode input schema for %s: %w", def.Name, err)
	}
	typ, _ := params["type"].(string)
	if !strings.EqualFold(typ, "object") {
		return nil, fmt.Errorf("input schema for %s is not an object schema", def.Name)
	}
	return &mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: params,
	}, nil
}

func inputSchema(def domain.ToolDefinition) json.RawMessage {
	trimmed := bytes.TrimSpace(def.InputSchema)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return emptyObjectSchema
	}
	return trimmed
}
