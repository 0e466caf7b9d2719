// Package builtin holds small MCP servers that run in-process or over stdio.
package builtin

import (
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	Calc    = "calc"
	Weather = "weather"
)

const serverVersion = "0.1.0"

var registry = map[string]func() *mcp.Server{
	Calc:    NewCalcServer,
	Weather: NewWeatherServer,
}

// Names lists the builtin servers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named builtin server.
func New(name string) (*mcp.Server, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin server %q", name)
	}
	return factory(), nil
}
