package monitor

import (
	"context"

	"github.com/nexuscore/nexus/internal/registry"
)

// ManagerAdapter wraps a Monitor in the registry.Manager capability
// interface.
type ManagerAdapter struct {
	monitor *Monitor
}

// NewManager builds the monitor manager from a constructed Monitor.
func NewManager(monitor *Monitor) *ManagerAdapter {
	return &ManagerAdapter{monitor: monitor}
}

func (m *ManagerAdapter) Name() string { return "monitor" }

func (m *ManagerAdapter) Initialize(ctx context.Context) error {
	m.monitor.Start()
	return nil
}

func (m *ManagerAdapter) Shutdown(ctx context.Context) error {
	m.monitor.Stop()
	return nil
}

func (m *ManagerAdapter) Status() registry.Status {
	snap := m.monitor.Snapshot()
	return registry.Status{
		Initialized: true,
		Healthy:     true,
		Details: map[string]any{
			"cpu_percent":    snap.CPUPercent,
			"memory_percent": snap.MemoryPercent,
			"disk_percent":   snap.DiskPercent,
			"uptime_seconds": snap.UptimeSeconds,
		},
	}
}

// Monitor exposes the underlying monitor for other managers (e.g. the API
// layer's /monitoring endpoints) to query.
func (m *ManagerAdapter) Monitor() *Monitor { return m.monitor }
