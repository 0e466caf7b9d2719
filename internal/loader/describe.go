package loader

import (
	"fmt"
	"strings"

	"dcl/internal/disclosure"
	"dcl/internal/domain"
)

const (
	descriptionPreamble = "Dynamic Tool Loader for managing MCP tools. Provides descriptions and enables activation of multiple tools by name."
	descriptionFooter   = "Tools become available in the model context for the next interaction."
	descriptionUsage    = "Usage: Use 'load_tool_summaries' to load a server's tool summaries. Once loaded, use 'load_tools' to activate specific tools. If interested in a server's tools, first load summaries, then activate needed ones."
)

// Describe renders the loader description for the given disclosure state.
// It is a pure function of its inputs.
func Describe(servers []disclosure.ServerView, active []disclosure.ActiveTool) string {
	var b strings.Builder
	b.WriteString(descriptionPreamble)
	b.WriteString("\n\n")

	for i, server := range servers {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "'%s' MCP: %s", server.Info.ID, server.Info.Description)
		fmt.Fprintf(&b, "\n Level: %s", server.Level)
		if server.Level != domain.LevelSummariesLoaded {
			continue
		}
		b.WriteString("\n Tools summaries loaded:")
		if len(server.Summaries) == 0 {
			b.WriteString("\n  (no tools)")
		}
		for _, summary := range server.Summaries {
			fmt.Fprintf(&b, "\n  - %s: %s", summary.ID, summary.Brief)
		}
	}

	if len(active) > 0 {
		names := make([]string, 0, len(active))
		for _, tool := range active {
			names = append(names, tool.ExposedName)
		}
		fmt.Fprintf(&b, "\n\nActive tools: %s.", strings.Join(names, ", "))
	}

	b.WriteString("\n\n")
	b.WriteString(descriptionFooter)
	b.WriteString("\n\n")
	b.WriteString(descriptionUsage)
	return b.String()
}
