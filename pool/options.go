package pool

import "go.uber.org/zap"

// A Span is the narrow interface the pool needs from a tracing
// implementation: something with an End method. The pool never imports a
// tracing package directly; callers wire in whatever span type their
// collaborator (a separate, out-of-scope RPC/tracing layer) provides.
type Span interface {
	End()
}

// Options configures a ThreadPool.
type Options struct {
	// ThreadCount is the number of worker goroutines. Must be >= 1.
	ThreadCount int

	// OnThreadStart and OnThreadStop, if set, are called by each worker as
	// it enters and leaves its run loop, with its zero-based index.
	OnThreadStart func(idx int)
	OnThreadStop  func(idx int)

	// MaxBacklog, if > 0, bounds how many Schedule calls may be outstanding
	// at once. Schedule blocks past this limit instead of growing the queue
	// without bound. Resume does not count against this limit.
	MaxBacklog int

	// SpanFactory, if set, is called by Schedule with the span name
	// "schedule to thread_pool" when it enqueues its continuation; the
	// returned Span's End method is called once a worker has run the
	// continuation, or when Schedule's ctx ends first. Resume creates no
	// span.
	SpanFactory func(name string) Span

	// Logger receives structured pool lifecycle and failure records. It
	// defaults to zap.NewNop() when nil.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ThreadCount < 1 {
		o.ThreadCount = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
