package eventbus

import (
	"context"

	"github.com/nexuscore/nexus/internal/registry"
)

// ManagerAdapter wraps a Bus in the registry.Manager capability interface.
type ManagerAdapter struct {
	bus *Bus
}

// NewManager builds the event_bus manager from config.
func NewManager(bus *Bus) *ManagerAdapter {
	return &ManagerAdapter{bus: bus}
}

func (m *ManagerAdapter) Name() string { return "event_bus" }

func (m *ManagerAdapter) Initialize(ctx context.Context) error {
	m.bus.Start()
	return nil
}

func (m *ManagerAdapter) Shutdown(ctx context.Context) error {
	m.bus.Stop()
	return nil
}

func (m *ManagerAdapter) Status() registry.Status {
	published, dropped := m.bus.Stats()
	return registry.Status{
		Initialized: true,
		Healthy:     true,
		Details: map[string]any{
			"published": published,
			"dropped":   dropped,
		},
	}
}

// Bus exposes the underlying bus for other managers to publish/subscribe on.
func (m *ManagerAdapter) Bus() *Bus { return m.bus }
