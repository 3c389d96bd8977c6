package security

import (
	"context"

	"github.com/nexuscore/nexus/internal/registry"
)

// ManagerAdapter wraps Service in the registry.Manager capability
// interface. Security depends on config (for JWT/password settings) and
// the event bus (for security/* notifications).
type ManagerAdapter struct {
	svc *Service
}

func NewManager(svc *Service) *ManagerAdapter {
	return &ManagerAdapter{svc: svc}
}

func (m *ManagerAdapter) Name() string { return "security" }

func (m *ManagerAdapter) Initialize(ctx context.Context) error { return nil }

func (m *ManagerAdapter) Shutdown(ctx context.Context) error { return nil }

func (m *ManagerAdapter) Status() registry.Status {
	return registry.Status{Initialized: true, Healthy: true}
}

func (m *ManagerAdapter) Service() *Service { return m.svc }
