package assembler

import (
	"dcl/internal/disclosure"
	"dcl/internal/domain"
	"dcl/internal/loader"
)

// Assembler builds the tool list sent with each LLM request.
type Assembler struct {
	loader *loader.Loader
	cache  *disclosure.Cache
}

func New(l *loader.Loader, cache *disclosure.Cache) *Assembler {
	return &Assembler{loader: l, cache: cache}
}

// Build returns the loader followed by every active tool in activation order.
// Names are the exposed names. Build has no side effects.
func (a *Assembler) Build() []domain.ToolDefinition {
	active := a.cache.ActiveTools()
	out := make([]domain.ToolDefinition, 0, len(active)+1)
	out = append(out, a.loader.Definition())
	for _, tool := range active {
		def := tool.Definition
		def.Name = tool.ExposedName
		out = append(out, def)
	}
	return out
}
