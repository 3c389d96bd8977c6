package plugin

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexuscore/nexus/internal/concurrency"
)

type fakePlugin struct {
	name, version string
	invoked       int32
	delay         time.Duration
	shutdownCalls int32
}

func (p *fakePlugin) Name() string    { return p.name }
func (p *fakePlugin) Version() string { return p.version }

func (p *fakePlugin) Invoke(ctx context.Context, method string, args map[string]any) (any, error) {
	atomic.AddInt32(&p.invoked, 1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return method + ":ok", nil
}

func (p *fakePlugin) Shutdown(ctx context.Context) error {
	atomic.AddInt32(&p.shutdownCalls, 1)
	return nil
}

func newTestFacility(t *testing.T) *concurrency.Facility {
	t.Helper()
	cfg := concurrency.DefaultConfig()
	f := concurrency.New(cfg, nil)
	t.Cleanup(func() { _ = f.Shutdown(time.Second) })
	return f
}

func TestLoadInvokeUnload(t *testing.T) {
	fp := &fakePlugin{name: "greeter", version: "1.0"}
	opener := NewRegistryOpener(map[string]NewPluginFunc{
		"greeter.so": func() (Plugin, error) { return fp, nil },
	})
	host := New(opener, newTestFacility(t), LevelThread, nil)

	name, version, err := host.Load(context.Background(), "greeter", "greeter.so", "")
	require.NoError(t, err)
	require.Equal(t, "greeter", name)
	require.Equal(t, "1.0", version)

	result, err := host.Invoke(context.Background(), "greeter", "hello", nil, 0)
	require.NoError(t, err)
	require.Equal(t, "hello:ok", result)

	require.NoError(t, host.Unload(context.Background(), "greeter"))
	require.EqualValues(t, 1, fp.shutdownCalls)

	_, err = host.Invoke(context.Background(), "greeter", "hello", nil, 0)
	require.Error(t, err)
}

func TestReloadUnloadsPreviousHandle(t *testing.T) {
	first := &fakePlugin{name: "a", version: "1"}
	second := &fakePlugin{name: "a", version: "2"}
	opener := NewRegistryOpener(map[string]NewPluginFunc{
		"a": func() (Plugin, error) { return first, nil },
		"b": func() (Plugin, error) { return second, nil },
	})
	host := New(opener, newTestFacility(t), LevelNone, nil)

	_, _, err := host.Load(context.Background(), "plugin", "a", "")
	require.NoError(t, err)
	_, v, err := host.Load(context.Background(), "plugin", "b", "")
	require.NoError(t, err)
	require.Equal(t, "2", v)
	require.EqualValues(t, 1, first.shutdownCalls)
}

func TestLoadUnloadLoadIsIndependent(t *testing.T) {
	calls := 0
	opener := NewRegistryOpener(nil)
	opener.Register("p", func() (Plugin, error) {
		calls++
		return &fakePlugin{name: "p", version: "1"}, nil
	})
	host := New(opener, newTestFacility(t), LevelNone, nil)

	_, _, err := host.Load(context.Background(), "p", "p", "")
	require.NoError(t, err)
	require.NoError(t, host.Unload(context.Background(), "p"))

	_, _, err = host.Load(context.Background(), "p", "p", "")
	require.NoError(t, err)
	require.Equal(t, 2, calls, "second load must construct a fresh instance")
	require.Equal(t, []string{"p"}, host.Loaded())
}

func TestInvokeTimesOutAsPluginIsolationError(t *testing.T) {
	fp := &fakePlugin{name: "slow", version: "1", delay: 200 * time.Millisecond}
	opener := NewRegistryOpener(map[string]NewPluginFunc{"slow": func() (Plugin, error) { return fp, nil }})
	host := New(opener, newTestFacility(t), LevelThread, nil)

	_, _, err := host.Load(context.Background(), "slow", "slow", "")
	require.NoError(t, err)

	_, err = host.Invoke(context.Background(), "slow", "work", nil, 10*time.Millisecond)
	require.Error(t, err)
}

func TestSameMethodSerializedDifferentMethodsConcurrent(t *testing.T) {
	fp := &fakePlugin{name: "busy", version: "1", delay: 50 * time.Millisecond}
	opener := NewRegistryOpener(map[string]NewPluginFunc{"busy": func() (Plugin, error) { return fp, nil }})
	host := New(opener, newTestFacility(t), LevelThread, nil)
	_, _, err := host.Load(context.Background(), "busy", "busy", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = host.Invoke(context.Background(), "busy", "same", nil, time.Second)
		}()
	}
	wg.Wait()
	require.GreaterOrEqual(t, time.Since(start), 3*fp.delay, "serialized same-method calls should not overlap")

	wg.Add(2)
	start = time.Now()
	go func() { defer wg.Done(); _, _ = host.Invoke(context.Background(), "busy", "m1", nil, time.Second) }()
	go func() { defer wg.Done(); _, _ = host.Invoke(context.Background(), "busy", "m2", nil, time.Second) }()
	wg.Wait()
	require.Less(t, time.Since(start), 2*fp.delay, "different methods should run concurrently")
}
