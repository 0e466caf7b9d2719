package telemetry

import (
	"sort"
	"sync"
	"time"
)

const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// ComponentHealth is the last reported state of one component.
type ComponentHealth struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type HealthReport struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
}

// HealthTracker collects component states for the /healthz endpoint.
type HealthTracker struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	now        func() time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		components: make(map[string]ComponentHealth),
		now:        time.Now,
	}
}

// Set records the state of a component. A nil error marks it healthy.
func (h *HealthTracker) Set(name string, err error) {
	if h == nil || name == "" {
		return
	}
	entry := ComponentHealth{
		Name:      name,
		Healthy:   err == nil,
		UpdatedAt: h.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	h.mu.Lock()
	h.components[name] = entry
	h.mu.Unlock()
}

func (h *HealthTracker) Report() HealthReport {
	report := HealthReport{Status: HealthStatusOK}
	if h == nil {
		return report
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := h.components[name]
		if !entry.Healthy {
			report.Status = HealthStatusDegraded
		}
		report.Components = append(report.Components, entry)
	}
	return report
}
