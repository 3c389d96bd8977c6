package concurrency

import (
	"context"

	"github.com/nexuscore/nexus/internal/apperr"
)

type mainCtxKey struct{}

// MainDispatcher is the explicit handle for main-thread-affine execution
// named in the design notes, replacing an implicit event-loop context
// (asyncio.get_running_loop()-style global state). "Am I the main task?" is
// an affinity query against this handle, not against ambient goroutine
// state — Go has no public goroutine-identity API, so the dispatcher marks
// its own run loop's context instead of inspecting a thread id.
type MainDispatcher struct {
	thunks  chan func()
	stopCh  chan struct{}
	stopped chan struct{}
}

// NewMainDispatcher creates a dispatcher. Call Run in the goroutine that
// should be considered "main" before any RunOnMain calls are made from
// elsewhere.
func NewMainDispatcher(queueSize int) *MainDispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &MainDispatcher{
		thunks:  make(chan func(), queueSize),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run executes queued thunks on the calling goroutine until ctx is done or
// Stop is called. The caller's goroutine becomes "main" for the duration of
// this call.
func (d *MainDispatcher) Run(ctx context.Context) {
	defer close(d.stopped)
	for {
		select {
		case fn := <-d.thunks:
			fn()
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals Run to return once its current thunk (if any) completes.
func (d *MainDispatcher) Stop() {
	close(d.stopCh)
}

// IsMain reports whether ctx is the context passed to the currently running
// Run call's thunk — i.e. whether the caller is already executing on the
// main dispatcher's goroutine.
func (d *MainDispatcher) IsMain(ctx context.Context) bool {
	v, _ := ctx.Value(mainCtxKey{}).(*MainDispatcher)
	return v == d
}

// RunOnMain executes fn on the main goroutine. If the caller is already
// running on the main dispatcher (ctx carries its marker), fn runs inline;
// otherwise it is handed off through the thunk channel and this call blocks
// until the main goroutine has run it.
func (d *MainDispatcher) RunOnMain(ctx context.Context, fn Func) (any, error) {
	if d.IsMain(ctx) {
		return fn(ctx)
	}

	done := make(chan struct{})
	var result any
	var err error

	thunk := func() {
		mainCtx := context.WithValue(ctx, mainCtxKey{}, d)
		result, err = fn(mainCtx)
		close(done)
	}

	select {
	case d.thunks <- thunk:
	case <-ctx.Done():
		return nil, apperr.New(apperr.KindThreadManager, "context cancelled before main dispatch")
	}

	select {
	case <-done:
		return result, err
	case <-ctx.Done():
		return nil, apperr.Newf(apperr.KindThreadManager, "timed out waiting for main-thread execution").WithDetails(map[string]any{"timeout": true})
	}
}
