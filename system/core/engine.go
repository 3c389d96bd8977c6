// Package core implements the Application Core (C9): the component that
// holds every manager (constructed and registered in dependency order by
// system/bootstrap) and owns the process-level start/stop lifecycle — signal handling,
// lifecycle events, and bounded shutdown.
package core

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nexuscore/nexus/internal/concurrency"
	"github.com/nexuscore/nexus/internal/config"
	"github.com/nexuscore/nexus/internal/eventbus"
	"github.com/nexuscore/nexus/internal/monitor"
	"github.com/nexuscore/nexus/internal/plugin"
	"github.com/nexuscore/nexus/internal/registry"
	"github.com/nexuscore/nexus/internal/security"
	"github.com/nexuscore/nexus/internal/store"
	"github.com/nexuscore/nexus/pkg/logger"
)

// shutdownPublishTimeout bounds how long system/shutting_down gets to reach
// subscribers before shutdown proceeds regardless.
const shutdownPublishTimeout = 2 * time.Second

// Engine wires C1-C8 and drives their combined lifecycle. It is built once,
// by system/bootstrap.Wire, and is the handle the REST API layer and the
// process entry point both hold.
type Engine struct {
	Config     *config.ManagerAdapter
	Logger     *logger.Logger
	Facility   *concurrency.ManagerAdapter
	Bus        *eventbus.ManagerAdapter
	Monitor    *monitor.ManagerAdapter
	Database   *store.ManagerAdapter
	Security   *security.ManagerAdapter
	Plugins    *plugin.ManagerAdapter
	PluginHost *plugin.Host

	registry  *registry.Registry
	lifecycle *registry.Lifecycle

	mu      sync.Mutex
	running bool
}

// New assembles an Engine from already-constructed managers and the
// registry they were registered into.
func New(reg *registry.Registry, lc *registry.Lifecycle, cfgMgr *config.ManagerAdapter, log *logger.Logger, facility *concurrency.ManagerAdapter, bus *eventbus.ManagerAdapter, mon *monitor.ManagerAdapter, db *store.ManagerAdapter, sec *security.ManagerAdapter, plugins *plugin.ManagerAdapter, pluginHost *plugin.Host) *Engine {
	return &Engine{
		Config:     cfgMgr,
		Logger:     log,
		Facility:   facility,
		Bus:        bus,
		Monitor:    mon,
		Database:   db,
		Security:   sec,
		Plugins:    plugins,
		PluginHost: pluginHost,
		registry:   reg,
		lifecycle:  lc,
	}
}

// Start initializes every registered manager in dependency order and
// publishes system/started once they have all initialized. On failure, any
// managers that did initialize remain available for Stop to shut down in
// reverse order — initialization failure is not rolled back.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.lifecycle.InitializeAll(ctx); err != nil {
		e.Logger.WithError(err).Error("application core: startup failed")
		return err
	}

	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	if _, err := e.Bus.Bus().Publish("system/started", "application_core", map[string]any{
		"managers": e.registry.Names(),
	}); err != nil {
		e.Logger.WithError(err).Warn("application core: failed to publish system/started")
	}
	e.Logger.Info("application core started")
	return nil
}

// Stop publishes system/shutting_down with a short bounded delivery budget
// (so a stuck subscriber cannot hang shutdown), then runs ShutdownAll in
// reverse initialize order. Per-manager shutdown errors are aggregated but
// never abort the sweep — every manager still gets a shutdown attempt.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.mu.Unlock()

	if _, err := e.Bus.Bus().Publish("system/shutting_down", "application_core", nil); err != nil {
		e.Logger.WithError(err).Warn("application core: failed to publish system/shutting_down")
	} else {
		// Give subscribers a bounded window to see the event; a stuck
		// subscriber cannot extend it.
		graceCtx, cancel := context.WithTimeout(ctx, shutdownPublishTimeout)
		<-graceCtx.Done()
		cancel()
	}

	e.Logger.Info("application core shutting down")
	return e.lifecycle.ShutdownAll(ctx)
}

// Registry exposes the manager registry for status reporting.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// WaitForSignal blocks until SIGINT or SIGTERM. Non-Windows process
// managers typically send SIGTERM on container stop; SIGINT covers
// interactive Ctrl-C.
func WaitForSignal() os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	signal.Stop(sigCh)
	return sig
}

// Status aggregates every manager's self-reported status plus the init
// order actually achieved, for GET /system/status.
type Status struct {
	Managers  map[string]registry.Status `json:"managers"`
	InitOrder []string                   `json:"init_order"`
	Healthy   bool                       `json:"healthy"`
}

// Status returns the current aggregate health snapshot.
func (e *Engine) Status() Status {
	statuses := e.registry.StatusAll()
	healthy := true
	for _, s := range statuses {
		if !s.Healthy {
			healthy = false
			break
		}
	}
	return Status{
		Managers:  statuses,
		InitOrder: e.lifecycle.LastInitOrder(),
		Healthy:   healthy,
	}
}
