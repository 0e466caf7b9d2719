package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"dcl/internal/domain"
)

func TestPrintHooks(t *testing.T) {
	var out bytes.Buffer
	hooks := newPrintHooks(&out, false)

	hooks.OnToolsAssembled(1, []domain.ToolDefinition{{Name: "loader"}, {Name: "add"}})
	hooks.OnLoaderCall(`{"action":"load_tool_summaries","servers":["calc"]}`, "Loaded tool summaries for: calc")
	hooks.OnToolResult("add", domain.ToolResult{Content: `{"result":5}`})
	hooks.OnToolResult("divide", domain.ToolResult{Content: "division by zero", IsError: true})
	hooks.OnAssistantMessage("done")

	want := "turn 1 tools: loader, add\n" +
		`Loader: {"action":"load_tool_summaries","servers":["calc"]}` + "\n" +
		"Loaded tool summaries for: calc\n" +
		`Tool add: {"result":5}` + "\n" +
		"Tool divide failed: division by zero\n"
	assert.Equal(t, want, out.String())
}

func TestPaint(t *testing.T) {
	assert.Equal(t, "hi", paint(false, colorUser, "hi"))
	assert.Equal(t, colorUser+"hi"+colorReset, paint(true, colorUser, "hi"))
}
