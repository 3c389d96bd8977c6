package plugin

import (
	"context"

	"github.com/nexuscore/nexus/internal/registry"
)

// AutoloadConfig mirrors the plugins.{directory,autoload,enabled,disabled}
// config keys. Directory empty or Autoload false disables the scan.
type AutoloadConfig struct {
	Directory string
	Autoload  bool
	Enabled   []string
	Disabled  []string
}

// ManagerAdapter wraps a Host in the registry.Manager capability
// interface. Plugin isolation's only startup work is the optional directory
// autoload; shutdown unloads whatever plugins remain loaded.
type ManagerAdapter struct {
	mgr          *Host
	autoload     AutoloadConfig
	autoloadErrs []error
}

// NewManager builds the plugins manager from a constructed Host.
func NewManager(mgr *Host) *ManagerAdapter {
	return &ManagerAdapter{mgr: mgr}
}

// WithAutoload configures the directory scan Initialize performs.
func (m *ManagerAdapter) WithAutoload(cfg AutoloadConfig) *ManagerAdapter {
	m.autoload = cfg
	return m
}

func (m *ManagerAdapter) Name() string { return "plugins" }

func (m *ManagerAdapter) Initialize(ctx context.Context) error {
	if !m.autoload.Autoload || m.autoload.Directory == "" {
		return nil
	}
	m.autoloadErrs = m.mgr.Autoload(ctx, m.autoload.Directory, m.autoload.Enabled, m.autoload.Disabled)
	return nil
}

func (m *ManagerAdapter) Shutdown(ctx context.Context) error {
	for _, id := range m.mgr.Loaded() {
		if err := m.mgr.Unload(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *ManagerAdapter) Status() registry.Status {
	details := map[string]any{"loaded": m.mgr.Loaded()}
	if len(m.autoloadErrs) > 0 {
		msgs := make([]string, len(m.autoloadErrs))
		for i, err := range m.autoloadErrs {
			msgs[i] = err.Error()
		}
		details["autoload_errors"] = msgs
	}
	return registry.Status{
		Initialized: true,
		Healthy:     true,
		Details:     details,
	}
}

// Host exposes the underlying plugin host for the API layer.
func (m *ManagerAdapter) Host() *Host { return m.mgr }
