package registry

import (
	"context"
	"testing"

	"github.com/nexuscore/nexus/internal/apperr"
	"github.com/stretchr/testify/require"
)

type fakeManager struct {
	name        string
	initErr     error
	shutdownErr error
	initialized bool
}

func (f *fakeManager) Name() string { return f.name }

func (f *fakeManager) Initialize(ctx context.Context) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeManager) Shutdown(ctx context.Context) error {
	f.initialized = false
	return f.shutdownErr
}

func (f *fakeManager) Status() Status {
	return Status{Initialized: f.initialized, Healthy: f.initialized}
}

func TestInitializeAllOrdersDependenciesFirst(t *testing.T) {
	r := New()
	config := &fakeManager{name: "config"}
	logger := &fakeManager{name: "logger"}
	eventBus := &fakeManager{name: "event_bus"}
	plugins := &fakeManager{name: "plugins"}

	require.NoError(t, r.Register(config))
	require.NoError(t, r.Register(logger, "config"))
	require.NoError(t, r.Register(eventBus, "config", "logger"))
	require.NoError(t, r.Register(plugins, "event_bus", "logger"))

	lc := NewLifecycle(r, nil)
	require.NoError(t, lc.InitializeAll(context.Background()))

	order := lc.LastInitOrder()
	require.Equal(t, []string{"config", "logger", "event_bus", "plugins"}, order)

	require.NoError(t, lc.ShutdownAll(context.Background()))
}

func TestRegisterRejectsUnknownDependency(t *testing.T) {
	r := New()
	err := r.Register(&fakeManager{name: "a"}, "missing")
	require.Error(t, err)
	require.True(t, apperr.HasKind(err, apperr.KindDependency))
	require.Nil(t, r.Lookup("a"))
}

func TestRegisterRejectsCycle(t *testing.T) {
	r := New()
	a := &fakeManager{name: "a"}
	b := &fakeManager{name: "b"}
	c := &fakeManager{name: "c"}

	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b, "a"))
	require.NoError(t, r.Register(c, "b"))

	// Attempting to make "a" depend on "c" would close the cycle a->c->b->a.
	cyclic := &fakeManager{name: "a"}
	err := r.graph.setDeps("a", []string{"c"})
	require.Error(t, err)
	require.True(t, apperr.HasKind(err, apperr.KindDependency))
	_ = cyclic

	// The graph is unchanged: init order is still a, b, c.
	lc := NewLifecycle(r, nil)
	require.NoError(t, lc.InitializeAll(context.Background()))
	require.Equal(t, []string{"a", "b", "c"}, lc.LastInitOrder())
}

func TestInitializeAllStopsOnFirstFailure(t *testing.T) {
	r := New()
	ok := &fakeManager{name: "ok"}
	failing := &fakeManager{name: "failing", initErr: apperr.New(apperr.KindApplication, "boom")}
	never := &fakeManager{name: "never"}

	require.NoError(t, r.Register(ok))
	require.NoError(t, r.Register(failing, "ok"))
	require.NoError(t, r.Register(never, "failing"))

	lc := NewLifecycle(r, nil)
	err := lc.InitializeAll(context.Background())
	require.Error(t, err)
	require.True(t, apperr.HasKind(err, apperr.KindManagerInitialization))
	require.True(t, ok.initialized)
	require.False(t, never.initialized)
}

func TestShutdownAllContinuesAfterError(t *testing.T) {
	r := New()
	a := &fakeManager{name: "a"}
	b := &fakeManager{name: "b", shutdownErr: apperr.New(apperr.KindApplication, "boom")}
	c := &fakeManager{name: "c"}

	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b, "a"))
	require.NoError(t, r.Register(c, "b"))

	lc := NewLifecycle(r, nil)
	require.NoError(t, lc.InitializeAll(context.Background()))

	err := lc.ShutdownAll(context.Background())
	require.Error(t, err)
	require.True(t, apperr.HasKind(err, apperr.KindManagerShutdown))
	require.False(t, a.initialized)
	require.False(t, c.initialized)
}
