package usecase

import (
	"context"
	"log/slog"
	"sort"

	"pulljoker/src/core/ports"
)

// HealthService reports on the dependencies the game server needs.
type HealthService struct {
	log    *slog.Logger
	checks map[string]ports.ExternalService
}

// NewHealthService creates a new HealthService checking the event store.
func NewHealthService(log *slog.Logger, store ports.Repository) *HealthService {
	s := &HealthService{
		log:    log,
		checks: make(map[string]ports.ExternalService),
	}
	if store != nil {
		s.checks["event_store"] = store
	}
	return s
}

// AddCheck registers another dependency under name.
func (s *HealthService) AddCheck(name string, svc ports.ExternalService) {
	s.checks[name] = svc
}

// HealthStatus represents the health of the application.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Check performs a health check of all registered components.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "ok",
		Components: make(map[string]ComponentHealth),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name].Health(ctx); err != nil {
			s.log.Warn("health check failed", "component", name, "error", err)
			status.Status = "degraded"
			status.Components[name] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			continue
		}
		status.Components[name] = ComponentHealth{Status: "healthy"}
	}
	return status
}
