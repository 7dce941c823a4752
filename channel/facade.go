package channel

import (
	"context"
	"sync/atomic"

	"github.com/flowlattice/corert"
)

// ReadableChannel is the read half of a type-erased channel.
type ReadableChannel[T any] interface {
	Read(ctx context.Context) *flowrt.Task[flowrt.Result[T]]
}

// WritableChannel is the write half of a type-erased channel.
type WritableChannel[T any] interface {
	Write(ctx context.Context, v T) *flowrt.Task[struct{}]
	Close() error
}

// Channel is a type-erased channel: both halves, plus the ability to close
// the whole thing outright.
type Channel[T any] interface {
	ReadableChannel[T]
	WritableChannel[T]
}

// GenericChannel wraps any concrete channel (ImmediateChannel, Handoff, or a
// hand-rolled type) behind three closures, so that operator code can be
// written against Channel[T] without caring which concrete implementation
// backs it.
type GenericChannel[T any] struct {
	readFn  func(ctx context.Context) (T, error)
	writeFn func(ctx context.Context, v T) error
	closeFn func() error
}

// NewGenericChannel builds a GenericChannel from the three primitive
// operations any concrete channel exposes.
func NewGenericChannel[T any](
	readFn func(ctx context.Context) (T, error),
	writeFn func(ctx context.Context, v T) error,
	closeFn func() error,
) *GenericChannel[T] {
	return &GenericChannel[T]{readFn: readFn, writeFn: writeFn, closeFn: closeFn}
}

// FromImmediateChannel adapts a concrete ImmediateChannel into the facade.
func FromImmediateChannel[T any](ch *ImmediateChannel[T]) *GenericChannel[T] {
	return NewGenericChannel(ch.Read, ch.Write, ch.Close)
}

// FromHandoff adapts a concrete Handoff into the facade.
func FromHandoff[T any](ch *Handoff[T]) *GenericChannel[T] {
	return NewGenericChannel(ch.Read, ch.Write, ch.Close)
}

// Read returns a Task that resolves to the next value, or a Result
// carrying flowrt.Closed at end-of-stream.
func (g *GenericChannel[T]) Read(ctx context.Context) *flowrt.Task[flowrt.Result[T]] {
	return flowrt.Go(ctx, func(ctx context.Context) (flowrt.Result[T], error) {
		v, err := g.readFn(ctx)
		if err != nil {
			if status, ok := err.(flowrt.Status); ok {
				return flowrt.Fail[T](status), nil
			}
			var zero flowrt.Result[T]
			return zero, err
		}
		return flowrt.Value(v), nil
	})
}

// Write returns a Task that resolves once v has been handed to a reader.
func (g *GenericChannel[T]) Write(ctx context.Context, v T) *flowrt.Task[struct{}] {
	return flowrt.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.writeFn(ctx, v)
	})
}

// Close closes the underlying concrete channel outright.
func (g *GenericChannel[T]) Close() error {
	return g.closeFn()
}

// Provider takes ownership of a concrete channel (wrapped as a
// GenericChannel) and vends reference-counted readable and writable halves.
// Both halves jointly own the underlying channel: closing a writable half
// alone does not close it. Provider.Close closes it at once; a half's Close
// only drops one of the provider's two references, and the channel closes
// when the count reaches zero.
type Provider[T any] struct {
	ch   *GenericChannel[T]
	refs int32
}

// NewProvider wraps ch and starts the shared reference count at two, one for
// each half.
func NewProvider[T any](ch *GenericChannel[T]) *Provider[T] {
	return &Provider[T]{ch: ch, refs: 2}
}

// Readable returns the provider's readable half.
func (p *Provider[T]) Readable() ReadableChannel[T] {
	return &providerHalf[T]{p: p}
}

// Writable returns the provider's writable half.
func (p *Provider[T]) Writable() WritableChannel[T] {
	return &providerHalf[T]{p: p}
}

// Close closes the underlying channel immediately, regardless of how many
// halves are still referencing it.
func (p *Provider[T]) Close() error {
	return p.ch.Close()
}

func (p *Provider[T]) release() {
	if atomic.AddInt32(&p.refs, -1) == 0 {
		_ = p.ch.Close()
	}
}

// providerHalf implements both ReadableChannel and WritableChannel by
// delegating to the shared provider; its Close drops one reference without
// forcing the underlying channel closed unless it was the last one.
type providerHalf[T any] struct {
	p      *Provider[T]
	closed atomic.Bool
}

func (h *providerHalf[T]) Read(ctx context.Context) *flowrt.Task[flowrt.Result[T]] {
	if h.closed.Load() {
		panic(flowrt.ProtocolMisuse("read from a closed channel half"))
	}
	return h.p.ch.Read(ctx)
}

func (h *providerHalf[T]) Write(ctx context.Context, v T) *flowrt.Task[struct{}] {
	if h.closed.Load() {
		panic(flowrt.ProtocolMisuse("write to a closed channel half"))
	}
	return h.p.ch.Write(ctx, v)
}

func (h *providerHalf[T]) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		h.p.release()
	}
	return nil
}
