// Package disclosuretest provides an in-memory catalog source for tests.
package disclosuretest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"dcl/internal/domain"
)

// Tool is one tool served by a Source.
type Tool struct {
	Name        string
	Brief       string
	Description string
	InputSchema json.RawMessage
	// Handler computes the invocation result. Nil echoes the arguments.
	Handler func(args json.RawMessage) (domain.ToolResult, error)
}

type Server struct {
	ID          string
	Description string
	Tools       []Tool
}

// Source is a CatalogSource over fixed servers that counts fetches and can
// inject failures.
type Source struct {
	mu      sync.Mutex
	servers []Server

	SummaryCalls    map[string]int
	DefinitionCalls map[string]int
	Invocations     []string

	FailSummaries   map[string]error
	FailDefinitions map[string]error
	FailList        error
}

func NewSource(servers ...Server) *Source {
	return &Source{
		servers:         servers,
		SummaryCalls:    make(map[string]int),
		DefinitionCalls: make(map[string]int),
		FailSummaries:   make(map[string]error),
		FailDefinitions: make(map[string]error),
	}
}

// CalcAndWeather returns the two-server catalog used across tests.
func CalcAndWeather() *Source {
	return NewSource(
		Server{
			ID:          "calc",
			Description: "Basic arithmetic.",
			Tools: []Tool{
				{Name: "add", Brief: "Add two numbers", Description: "Add two numbers and return the sum.", InputSchema: numberPairSchema},
				{Name: "multiply", Brief: "Multiply two numbers", Description: "Multiply two numbers and return the product.", InputSchema: numberPairSchema},
			},
		},
		Server{
			ID:          "weather",
			Description: "Weather forecasts.",
			Tools: []Tool{
				{Name: "get_forecast", Brief: "Forecast for a city", Description: "Get the forecast for a city.", InputSchema: citySchema},
			},
		},
	)
}

var (
	numberPairSchema = json.RawMessage(`{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"number"}},"required":["a","b"]}`)
	citySchema       = json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`)
)

func (s *Source) ListServers(_ context.Context) ([]domain.ServerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailList != nil {
		return nil, s.FailList
	}
	out := make([]domain.ServerInfo, 0, len(s.servers))
	for _, server := range s.servers {
		out = append(out, domain.ServerInfo{ID: server.ID, Description: server.Description})
	}
	return out, nil
}

func (s *Source) ListToolSummaries(_ context.Context, serverID string) ([]domain.ToolSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SummaryCalls[serverID]++
	if err := s.FailSummaries[serverID]; err != nil {
		return nil, err
	}
	server, ok := s.find(serverID)
	if !ok {
		return nil, fmt.Errorf("no server %s", serverID)
	}
	out := make([]domain.ToolSummary, 0, len(server.Tools))
	for _, tool := range server.Tools {
		out = append(out, domain.ToolSummary{ID: tool.Name, Brief: tool.Brief})
	}
	return out, nil
}

func (s *Source) GetToolDefinition(_ context.Context, serverID, toolID string) (domain.ToolDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DefinitionCalls[serverID+"/"+toolID]++
	if err := s.FailDefinitions[serverID+"/"+toolID]; err != nil {
		return domain.ToolDefinition{}, err
	}
	tool, ok := s.findTool(serverID, toolID)
	if !ok {
		return domain.ToolDefinition{}, fmt.Errorf("no tool %s on %s", toolID, serverID)
	}
	return domain.ToolDefinition{
		ServerID:    serverID,
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: tool.InputSchema,
	}, nil
}

func (s *Source) Invoke(_ context.Context, serverID, toolID string, args json.RawMessage) (domain.ToolResult, error) {
	s.mu.Lock()
	s.Invocations = append(s.Invocations, serverID+"/"+toolID)
	tool, ok := s.findTool(serverID, toolID)
	s.mu.Unlock()
	if !ok {
		return domain.ToolResult{}, errors.New("tool not found")
	}
	if tool.Handler != nil {
		return tool.Handler(args)
	}
	return domain.ToolResult{Content: string(args)}, nil
}

func (s *Source) find(serverID string) (Server, bool) {
	for _, server := range s.servers {
		if server.ID == serverID {
			return server, true
		}
	}
	return Server{}, false
}

func (s *Source) findTool(serverID, toolID string) (Tool, bool) {
	server, ok := s.find(serverID)
	if !ok {
		return Tool{}, false
	}
	for _, tool := range server.Tools {
		if tool.Name == toolID {
			return tool, true
		}
	}
	return Tool{}, false
}

var _ domain.CatalogSource = (*Source)(nil)
