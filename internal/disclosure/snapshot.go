package disclosure

import "dcl/internal/domain"

// Snapshot captures levels and active tool names.
func (c *Cache) Snapshot() domain.DisclosureSnapshot {
	snap := domain.DisclosureSnapshot{
		Servers:     make([]domain.ServerSnapshot, 0, len(c.servers)),
		ActiveTools: make([]string, 0, len(c.active)),
	}
	for _, state := range c.servers {
		snap.Servers = append(snap.Servers, domain.ServerSnapshot{
			ID:        state.info.ID,
			Level:     state.level.String(),
			Summaries: len(state.summaries),
		})
	}
	for _, tool := range c.active {
		snap.ActiveTools = append(snap.ActiveTools, tool.ExposedName)
	}
	return snap
}
