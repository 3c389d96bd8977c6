package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		pattern, eventType string
		want               bool
	}{
		{"*", "anything", true},
		{"security.login", "security.login", true},
		{"security.login", "security.logout", false},
		{"security.*", "security.login", true},
		{"security.*", "security.login.failed", false},
		{"security.*.failed", "security.login.failed", true},
		{"security.*.failed", "security.login.ok", false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Matches(c.pattern, c.eventType), "pattern=%s type=%s", c.pattern, c.eventType)
	}
}

func TestPublishDeliversInFIFOOrderPerSubscription(t *testing.T) {
	bus := New(Config{MaxQueueSize: 16}, nil)
	bus.Start()
	defer bus.Stop()

	var mu sync.Mutex
	var received []int

	done := make(chan struct{})
	count := 0
	bus.Subscribe("sub-1", "*", func(ev Event) {
		mu.Lock()
		received = append(received, ev.Payload["n"].(int))
		count++
		if count == 5 {
			close(done)
		}
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		_, err := bus.Publish("test.event", "source", map[string]any{"n": i})
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{0, 1, 2, 3, 4}, received)
}

func TestPublishFailsFastWhenBufferFull(t *testing.T) {
	bus := New(Config{MaxQueueSize: 1}, nil)
	// Dispatcher not started: ingress buffer fills immediately.
	_, err := bus.Publish("a", "s", nil)
	require.NoError(t, err)
	_, err = bus.Publish("b", "s", nil)
	require.Error(t, err)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New(Config{MaxQueueSize: 8}, nil)
	bus.Start()
	defer bus.Stop()

	calls := 0
	var mu sync.Mutex
	bus.Subscribe("sub-1", "*", func(ev Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	bus.Unsubscribe("sub-1")

	_, err := bus.Publish("x", "s", nil)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 0, calls)
}

func TestSelfDeliveryDefaultOnOptOutOff(t *testing.T) {
	bus := New(Config{MaxQueueSize: 8}, nil)
	bus.Start()
	defer bus.Stop()

	var mu sync.Mutex
	var defaultGot, optedOutGot int

	bus.Subscribe("self", "*", func(Event) {
		mu.Lock()
		defaultGot++
		mu.Unlock()
	})
	bus.SubscribeExcludingSelf("hermit", "*", func(Event) {
		mu.Lock()
		optedOutGot++
		mu.Unlock()
	})

	_, err := bus.Publish("x", "self", nil)
	require.NoError(t, err)
	_, err = bus.Publish("y", "hermit", nil)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, defaultGot, "default subscription receives its own events")
	require.Equal(t, 1, optedOutGot, "opted-out subscription skips its own events")
}

func TestResubscribeSameKeyIsIdempotent(t *testing.T) {
	bus := New(Config{MaxQueueSize: 8}, nil)
	bus.Start()
	defer bus.Stop()

	bus.Subscribe("sub-1", "topic", func(Event) {})
	bus.Subscribe("sub-1", "topic", func(Event) {})

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	require.Len(t, bus.subs, 1)
}
