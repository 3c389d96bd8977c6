package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/nexuscore/nexus/internal/apperr"
	"github.com/sirupsen/logrus"
)

// Lifecycle drives InitializeAll/ShutdownAll over a Registry. It remembers
// the last successful initialize order so shutdown can run in exact
// reverse.
type Lifecycle struct {
	registry  *Registry
	log       *logrus.Entry
	lastOrder []string
}

// NewLifecycle builds a Lifecycle bound to registry, logging through log
// (scoped with its own component field).
func NewLifecycle(registry *Registry, log *logrus.Logger) *Lifecycle {
	if log == nil {
		log = logrus.New()
	}
	return &Lifecycle{
		registry: registry,
		log:      log.WithField("component", "registry"),
	}
}

// InitializeAll visits managers in dependency order. If any manager's
// Initialize fails, it stops immediately and returns a
// ManagerInitializationError naming the failing manager; managers already
// initialized remain initialized and will be visited by a later
// ShutdownAll in reverse order — initialization, unlike Register, is not
// rolled back.
func (l *Lifecycle) InitializeAll(ctx context.Context) error {
	order, err := l.registry.orderForInit()
	if err != nil {
		return err
	}

	started := make([]string, 0, len(order))
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			l.lastOrder = started
			return err
		}

		mgr := l.registry.Lookup(name)
		if mgr == nil {
			continue
		}

		l.log.WithField("manager", name).Debug("initializing manager")
		if err := mgr.Initialize(ctx); err != nil {
			l.lastOrder = started
			return apperr.Wrap(apperr.KindManagerInitialization, err, fmt.Sprintf("manager %q failed to initialize", name))
		}
		started = append(started, name)
	}

	l.lastOrder = started
	return nil
}

// ShutdownAll visits managers that were successfully initialized, in the
// exact reverse of their initialize order. Per-manager errors are logged and
// swallowed so every manager still gets a shutdown attempt; the aggregate of
// all per-manager errors is returned as a single ManagerShutdownError (nil
// if every manager shut down cleanly).
func (l *Lifecycle) ShutdownAll(ctx context.Context) error {
	var errs *multierror.Error

	for i := len(l.lastOrder) - 1; i >= 0; i-- {
		name := l.lastOrder[i]
		mgr := l.registry.Lookup(name)
		if mgr == nil {
			continue
		}

		if err := mgr.Shutdown(ctx); err != nil {
			l.log.WithField("manager", name).WithError(err).Error("manager shutdown failed; continuing")
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
		} else {
			l.log.WithField("manager", name).Debug("manager shut down")
		}
	}

	l.lastOrder = nil

	if errs.ErrorOrNil() == nil {
		return nil
	}
	return apperr.Wrap(apperr.KindManagerShutdown, errs.ErrorOrNil(), "one or more managers failed to shut down cleanly")
}

// LastInitOrder returns the order in which managers were most recently
// (successfully, up to any failure point) initialized. Exposed for status
// reporting and tests.
func (l *Lifecycle) LastInitOrder() []string {
	out := make([]string, len(l.lastOrder))
	copy(out, l.lastOrder)
	return out
}
