package config

import (
	"context"

	"github.com/nexuscore/nexus/internal/registry"
)

// ManagerAdapter wraps Service in the registry.Manager capability interface.
// Config has no dependencies of its own — it is the leaf every other
// manager depends on.
type ManagerAdapter struct {
	svc *Service
}

func NewManager(svc *Service) *ManagerAdapter {
	return &ManagerAdapter{svc: svc}
}

func (m *ManagerAdapter) Name() string { return "config" }

func (m *ManagerAdapter) Initialize(ctx context.Context) error { return nil }

func (m *ManagerAdapter) Shutdown(ctx context.Context) error { return nil }

func (m *ManagerAdapter) Status() registry.Status {
	return registry.Status{Initialized: true, Healthy: true}
}

// Service exposes the underlying config service to other managers.
func (m *ManagerAdapter) Service() *Service { return m.svc }
