package main

import (
	"fmt"
	"io"
	"strings"

	"dcl/internal/domain"
)

const (
	colorUser      = "\033[94m"
	colorAssistant = "\033[92m"
	colorLoader    = "\033[93m"
	colorDebug     = "\033[90m"
	colorError     = "\033[91m"
	colorReset     = "\033[0m"
)

func paint(enabled bool, color, text string) string {
	if !enabled {
		return text
	}
	return color + text + colorReset
}

// printHooks writes conversation progress to w, typically stderr.
type printHooks struct {
	w     io.Writer
	color bool
}

func newPrintHooks(w io.Writer, color bool) *printHooks {
	return &printHooks{w: w, color: color}
}

func (h *printHooks) OnToolsAssembled(turn int, tools []domain.ToolDefinition) {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	fmt.Fprintln(h.w, paint(h.color, colorDebug, fmt.Sprintf("turn %d tools: %s", turn, strings.Join(names, ", "))))
}

func (h *printHooks) OnLoaderCall(arguments string, result string) {
	fmt.Fprintln(h.w, paint(h.color, colorLoader, "Loader: "+arguments))
	fmt.Fprintln(h.w, paint(h.color, colorDebug, result))
}

func (h *printHooks) OnToolResult(name string, result domain.ToolResult) {
	label := "Tool " + name
	if result.IsError {
		fmt.Fprintln(h.w, paint(h.color, colorError, label+" failed: "+result.Content))
		return
	}
	fmt.Fprintln(h.w, paint(h.color, colorDebug, label+": "+result.Content))
}

// OnAssistantMessage is a no-op: the final answer goes to stdout, not w.
func (h *printHooks) OnAssistantMessage(string) {}
