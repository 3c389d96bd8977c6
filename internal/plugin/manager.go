package plugin

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexuscore/nexus/internal/apperr"
	"github.com/nexuscore/nexus/internal/concurrency"
	"github.com/nexuscore/nexus/pkg/metrics"
)

const defaultInvokeTimeout = 30 * time.Second

// handle is an internal record for a loaded plugin.
type handle struct {
	id       string
	path     string
	level    Level
	instance Plugin

	// methodLocks serializes invoke() calls per method name: concurrent
	// invoke(method) calls to the same handle are serialized through the
	// key's mutex, while different methods of the same plugin run
	// concurrently (each gets its own lock, lazily created).
	methodLocks sync.Map // method name -> *sync.Mutex
}

func (h *handle) lockFor(method string) *sync.Mutex {
	l, _ := h.methodLocks.LoadOrStore(method, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// Host implements load/unload/invoke over a set of handles keyed by
// plugin id.
type Host struct {
	opener       Opener
	facility     *concurrency.Facility
	log          *logrus.Logger
	defaultLevel Level

	mu      sync.RWMutex
	handles map[string]*handle
}

// New builds a plugin Host. defaultLevel is used when load() is called
// without an explicit isolation level override.
func New(opener Opener, facility *concurrency.Facility, defaultLevel Level, log *logrus.Logger) *Host {
	if defaultLevel == "" {
		defaultLevel = LevelThread
	}
	return &Host{
		opener:       opener,
		facility:     facility,
		log:          log,
		defaultLevel: defaultLevel,
		handles:      make(map[string]*handle),
	}
}

// Load instantiates the plugin at path and stores a handle keyed by
// pluginID. Reloading the same id unloads the previous handle first. A
// failed load leaves no handle.
func (m *Host) Load(ctx context.Context, pluginID, path string, level Level) (string, string, error) {
	if level == "" {
		level = m.defaultLevel
	}

	m.mu.Lock()
	if existing, ok := m.handles[pluginID]; ok {
		m.unloadLocked(ctx, existing)
		delete(m.handles, pluginID)
	}
	m.mu.Unlock()

	instance, err := m.opener.Open(path)
	if err != nil {
		return "", "", err
	}

	h := &handle{id: pluginID, path: path, level: level, instance: instance}
	m.mu.Lock()
	m.handles[pluginID] = h
	m.mu.Unlock()

	return instance.Name(), instance.Version(), nil
}

// Unload invokes the plugin's optional Shutdown hook with a bounded
// timeout and releases its handle.
func (m *Host) Unload(ctx context.Context, pluginID string) error {
	m.mu.Lock()
	h, ok := m.handles[pluginID]
	if ok {
		delete(m.handles, pluginID)
	}
	m.mu.Unlock()
	if !ok {
		return apperr.Newf(apperr.KindPluginIsolation, "plugin %q is not loaded", pluginID)
	}
	return m.unloadLocked(ctx, h)
}

func (m *Host) unloadLocked(ctx context.Context, h *handle) error {
	hook, ok := h.instance.(ShutdownHook)
	if !ok {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, defaultInvokeTimeout)
	defer cancel()
	if err := hook.Shutdown(shutdownCtx); err != nil {
		return apperr.Wrap(apperr.KindPluginIsolation, err, "shutting down plugin "+h.id)
	}
	return nil
}

// Invoke dispatches method on the plugin identified by pluginID according
// to its isolation level, enforcing timeout and per-(plugin, method)
// serialization.
func (m *Host) Invoke(ctx context.Context, pluginID, method string, args map[string]any, timeout time.Duration) (any, error) {
	m.mu.RLock()
	h, ok := m.handles[pluginID]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.Newf(apperr.KindPluginIsolation, "plugin %q is not loaded", pluginID)
	}

	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}

	lock := h.lockFor(method)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	result, err := m.dispatch(ctx, h, method, args, timeout)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if apperr.HasKind(err, apperr.KindThreadManager) {
			outcome = "timeout"
			err = apperr.Newf(apperr.KindPluginIsolation, "plugin %s method %s timed out", pluginID, method).WithDetails(map[string]any{"plugin": pluginID, "method": method})
		}
	}
	metrics.RecordPluginInvocation(pluginID, method, outcome, time.Since(start))
	return result, err
}

func (m *Host) dispatch(ctx context.Context, h *handle, method string, args map[string]any, timeout time.Duration) (any, error) {
	run := func(runCtx context.Context) (any, error) {
		result, err := h.instance.Invoke(runCtx, method, args)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindPluginIsolation, err, "plugin "+h.id+" method "+method)
		}
		return result, nil
	}

	switch h.level {
	case LevelNone:
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return run(callCtx)
	case LevelProcess:
		return m.runOnPool(ctx, timeout, func(c context.Context) (*concurrency.Handle, error) {
			return m.facility.RunInProcess(c, run)
		})
	default: // LevelThread
		return m.runOnPool(ctx, timeout, func(c context.Context) (*concurrency.Handle, error) {
			return m.facility.RunIO(c, run)
		})
	}
}

func (m *Host) runOnPool(ctx context.Context, timeout time.Duration, submit func(context.Context) (*concurrency.Handle, error)) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	h, err := submit(callCtx)
	if err != nil {
		return nil, err
	}
	return h.Await(callCtx)
}

// Loaded reports every currently loaded plugin id.
func (m *Host) Loaded() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	return ids
}
