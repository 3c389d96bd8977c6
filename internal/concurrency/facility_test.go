package concurrency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunCPUExecutesAndAwaits(t *testing.T) {
	f := New(Config{WorkerThreads: 2, IOThreads: 2, EnableProcessPool: false, ThreadNamePrefix: "t"}, nil)
	defer f.Shutdown(time.Second)

	h, err := f.RunCPU(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)

	result, err := h.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, result)
}

func TestRunInProcessDisabledReturnsError(t *testing.T) {
	f := New(Config{WorkerThreads: 1, IOThreads: 1, EnableProcessPool: false, ThreadNamePrefix: "t"}, nil)
	defer f.Shutdown(time.Second)

	_, err := f.RunInProcess(context.Background(), func(ctx context.Context) (any, error) { return nil, nil })
	require.Error(t, err)
}

func TestCancelBeforeStartSkipsExecution(t *testing.T) {
	f := New(Config{WorkerThreads: 1, IOThreads: 1, EnableProcessPool: false, ThreadNamePrefix: "t"}, nil)
	defer f.Shutdown(time.Second)

	// Occupy the single worker so the next submission stays queued.
	block := make(chan struct{})
	_, err := f.RunCPU(context.Background(), func(ctx context.Context) (any, error) {
		<-block
		return nil, nil
	})
	require.NoError(t, err)

	h2, err := f.RunCPU(context.Background(), func(ctx context.Context) (any, error) {
		return "ran", nil
	})
	require.NoError(t, err)
	h2.Cancel()
	close(block)

	result, err := h2.Await(context.Background())
	require.Error(t, err)
	require.Nil(t, result)
}

func TestAwaitTimesOutWithoutAffectingTask(t *testing.T) {
	f := New(Config{WorkerThreads: 1, IOThreads: 1, EnableProcessPool: false, ThreadNamePrefix: "t"}, nil)
	defer f.Shutdown(2 * time.Second)

	h, err := f.RunCPU(context.Background(), func(ctx context.Context) (any, error) {
		time.Sleep(200 * time.Millisecond)
		return "done", nil
	})
	require.NoError(t, err)

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = h.Await(shortCtx)
	require.Error(t, err)

	result, err := h.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "done", result)
}

func TestRunOnMainInlineWhenAlreadyMain(t *testing.T) {
	d := NewMainDispatcher(4)
	ran := false
	ctx := context.WithValue(context.Background(), mainCtxKey{}, d)
	_, err := d.RunOnMain(ctx, func(ctx context.Context) (any, error) {
		ran = true
		return nil, nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestRunOnMainHandsOffToMainGoroutine(t *testing.T) {
	d := NewMainDispatcher(4)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	defer cancel()

	result, err := d.RunOnMain(context.Background(), func(ctx context.Context) (any, error) {
		if !d.IsMain(ctx) {
			return nil, errors.New("expected main context")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", result)
}
