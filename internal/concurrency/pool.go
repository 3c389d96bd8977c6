// Package concurrency implements the concurrency facility (C3): typed task
// pools (CPU, I/O, process), a main-thread-affine dispatcher, cooperative
// cancellation, and bounded shutdown.
package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexuscore/nexus/internal/apperr"
)

// Func is unit of work submitted to a pool.
type Func func(ctx context.Context) (any, error)

// Handle is a future-like submission handle: awaitable and cooperatively
// cancellable. Cancelling a queued-but-not-started task prevents it from
// running; cancelling a running task only sets a flag the task may observe.
type Handle struct {
	done    chan struct{}
	result  any
	err     error
	started int32
	cancel  int32
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Cancel requests cancellation. It has no effect once the task has started;
// a started task must observe CancelRequested itself to stop early.
func (h *Handle) Cancel() {
	atomic.StoreInt32(&h.cancel, 1)
}

// CancelRequested reports whether Cancel was called. Long-running Funcs
// should poll this cooperatively.
func (h *Handle) CancelRequested() bool {
	return atomic.LoadInt32(&h.cancel) == 1
}

// Await blocks until the task completes or ctx is done. On ctx expiry it
// returns a ThreadManagerError carrying a timeout marker; the underlying
// task may still complete later since cancellation is cooperative, not
// forcible.
func (h *Handle) Await(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, apperr.Newf(apperr.KindThreadManager, "timed out waiting for task completion").WithDetails(map[string]any{"timeout": true})
	}
}

func (h *Handle) finish(result any, err error) {
	h.result = result
	h.err = err
	close(h.done)
}

// pool is a bounded worker-goroutine pool draining a job queue, mirroring
// the queue-plus-worker-pool shape used for request routing elsewhere in
// this codebase.
type pool struct {
	name    string
	jobs    chan job
	wg      sync.WaitGroup
	closing int32
}

type job struct {
	ctx    context.Context
	fn     Func
	handle *Handle
}

func newPool(name string, workers, queueSize int) *pool {
	p := &pool{name: name, jobs: make(chan job, queueSize)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if j.handle.CancelRequested() {
			j.handle.finish(nil, apperr.New(apperr.KindThreadManager, "task cancelled before start"))
			continue
		}
		atomic.StoreInt32(&j.handle.started, 1)
		result, err := j.fn(j.ctx)
		j.handle.finish(result, err)
	}
}

// submit enqueues fn. Returns a ThreadManagerError if the pool is shutting
// down.
func (p *pool) submit(ctx context.Context, fn Func) (*Handle, error) {
	if atomic.LoadInt32(&p.closing) == 1 {
		return nil, apperr.Newf(apperr.KindThreadManager, "pool %q is shutting down, rejecting new work", p.name)
	}
	h := newHandle()
	p.jobs <- job{ctx: ctx, fn: fn, handle: h}
	return h, nil
}

// shutdown stops accepting new work and waits up to timeout for running
// tasks to finish, logging a warning (via the returned bool) if it times
// out rather than blocking forever.
func (p *pool) shutdown(timeout time.Duration) (clean bool) {
	atomic.StoreInt32(&p.closing, 1)
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
