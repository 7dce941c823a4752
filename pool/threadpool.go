// Package pool implements the fixed, work-stealing-free worker pool that
// resumes suspended coroutines for the dataflow runtime (see the flowrt
// package for the coroutine-ish primitives themselves).
package pool

import (
	"context"
	"sync"

	"github.com/flowlattice/corert"
	"github.com/google/uuid"
	co "github.com/republicprotocol/co-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type poolKey struct{}

// ThreadPool is a fixed-size pool of worker goroutines that run queued
// continuations in FIFO order. Unlike Go's own goroutine scheduler, which a
// ThreadPool sits on top of, workers here never steal from one another and
// never run more than one continuation at a time; the only concurrency is
// the fixed worker count.
type ThreadPool struct {
	id   uuid.UUID
	opts Options

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []func(ctx context.Context)
	size     int
	stopping bool
	stopped  bool

	backlog *backlogSemaphore

	group *errgroup.Group
}

// New creates a ThreadPool and starts its worker goroutines immediately.
func New(opts Options) *ThreadPool {
	opts = opts.withDefaults()

	p := &ThreadPool{
		id:   uuid.New(),
		opts: opts,
	}
	p.cond = sync.NewCond(&p.mu)
	if opts.MaxBacklog > 0 {
		p.backlog = newBacklogSemaphore(int64(opts.MaxBacklog))
	}

	group, _ := errgroup.WithContext(context.Background())
	p.group = group

	workers := make([]func(), opts.ThreadCount)
	for i := range workers {
		idx := i
		workers[i] = func() { p.runWorker(idx) }
	}
	// co.ParBegin blocks until every worker loop returns, i.e. for the pool's
	// whole lifetime, so it runs inside the errgroup goroutine rather than on
	// New's own call stack.
	group.Go(func() error {
		co.ParBegin(workers...)
		return nil
	})

	return p
}

func (p *ThreadPool) runWorker(idx int) {
	if p.opts.OnThreadStart != nil {
		p.opts.OnThreadStart(idx)
	}
	defer func() {
		if p.opts.OnThreadStop != nil {
			p.opts.OnThreadStop(idx)
		}
	}()

	// ctx carries the pool's own identity for the life of this worker, so a
	// continuation Current(ctx) recovers p without its caller having had to
	// thread p.Context(...) through itself.
	ctx := p.Context(context.Background())
	for {
		fn, ok := p.dequeue()
		if !ok {
			return
		}
		fn(ctx)
	}
}

func (p *ThreadPool) dequeue() (func(context.Context), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.stopping {
		p.cond.Wait()
	}
	// Once stopping, continuations still queued are left unrun.
	if p.stopping {
		return nil, false
	}

	fn := p.queue[0]
	p.queue = p.queue[1:]
	p.size--
	return fn, true
}

func (p *ThreadPool) enqueue(fn func(ctx context.Context)) {
	p.mu.Lock()
	p.queue = append(p.queue, fn)
	p.size++
	p.mu.Unlock()
	p.cond.Signal()
}

// Resume enqueues an already-suspended continuation without blocking the
// caller. fn receives a context tagged with the pool running it, recoverable
// downstream with Current.
func (p *ThreadPool) Resume(fn func(ctx context.Context)) error {
	p.mu.Lock()
	stopping := p.stopping
	p.mu.Unlock()
	if stopping {
		return flowrt.ShutdownRejected
	}
	p.enqueue(fn)
	return nil
}

// Schedule blocks the calling goroutine until a worker has dequeued and run
// a no-op continuation on its behalf, i.e. until the calling goroutine has
// had a turn on the pool. It is the Go rendering of "co_await pool.schedule()":
// the caller suspends, a worker resumes it.
func (p *ThreadPool) Schedule(ctx context.Context) error {
	p.mu.Lock()
	stopping := p.stopping
	p.mu.Unlock()
	if stopping {
		return flowrt.ShutdownRejected
	}

	if p.backlog != nil {
		if err := p.backlog.Acquire(ctx, 1); err != nil {
			return err
		}
		defer p.backlog.Release(1)
	}

	var span Span
	if p.opts.SpanFactory != nil {
		span = p.opts.SpanFactory("schedule to thread_pool")
	}

	done := make(chan struct{})
	p.enqueue(func(context.Context) { close(done) })

	select {
	case <-done:
		if span != nil {
			span.End()
		}
		return nil
	case <-ctx.Done():
		if span != nil {
			span.End()
		}
		return ctx.Err()
	}
}

// Size returns the number of not-yet-resumed handles currently queued.
func (p *ThreadPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Shutdown idempotently stops accepting new work, wakes every worker, and
// blocks until all of them have finished their currently running
// continuation and exited.
func (p *ThreadPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return p.joinWorkers(ctx)
	}
	p.stopping = true
	p.mu.Unlock()
	p.cond.Broadcast()

	p.opts.Logger.Info("thread pool shutting down", zap.String("pool_id", p.id.String()))
	return p.joinWorkers(ctx)
}

func (p *ThreadPool) joinWorkers(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	select {
	case err := <-done:
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the ThreadPool that ctx was tagged with, either by a
// worker's own loop or by ThreadPool.Context, or nil if ctx carries no pool.
// This is the Go-idiomatic substitute for a thread-local "current pool"
// pointer: Go cannot pin a goroutine to a specific OS thread for the
// duration of an arbitrary call chain, so the pool identity is threaded
// through context.Context instead.
func Current(ctx context.Context) *ThreadPool {
	p, _ := ctx.Value(poolKey{}).(*ThreadPool)
	return p
}

// ID returns the pool's unique identifier, used to correlate log records and
// span names across workers.
func (p *ThreadPool) ID() uuid.UUID {
	return p.id
}

// Context returns a child of parent tagged with p, so that code running
// downstream of it (on any goroutine, not just a pool worker) can recover p
// with Current. Operator code typically calls this once, right after a
// ThreadPool is created, and threads the resulting context through every
// Task and channel operation it schedules.
func (p *ThreadPool) Context(parent context.Context) context.Context {
	return context.WithValue(parent, poolKey{}, p)
}

// SpawnRoot starts body as a Task the way Go would, except that a failure is
// also unconditionally recorded on p's Logger. It exists for root tasks that
// a pipeline never joins with Await: without it, a panicking or
// error-returning root task would fail silently, since nothing is left to
// observe the Task's stored error. Tasks that are awaited are unaffected
// beyond the extra log line.
func SpawnRoot[T any](p *ThreadPool, ctx context.Context, body func(ctx context.Context) (T, error)) *flowrt.Task[T] {
	t := flowrt.Go(ctx, body)
	go func() {
		if _, err := t.Await(ctx); err != nil {
			p.opts.Logger.Error("unhandled task failure",
				zap.String("pool_id", p.id.String()),
				zap.Bool("fatal", true),
				zap.Error(err),
			)
		}
	}()
	return t
}
