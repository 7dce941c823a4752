package edge

import (
	"context"

	"github.com/flowlattice/corert"
	"github.com/flowlattice/corert/channel"
)

// ChannelReader wraps a readable channel as a scheduling-term-style
// awaitable: awaiting it returns the next value, or flowrt.Closed once the
// channel is exhausted.
type ChannelReader[T any] struct {
	ch channel.ReadableChannel[T]
}

// NewChannelReader connects a ChannelReader to ch.
func NewChannelReader[T any](ch channel.ReadableChannel[T]) *ChannelReader[T] {
	return &ChannelReader[T]{ch: ch}
}

// Await blocks until the next value is available, the channel closes, or
// ctx is done. Awaiting a disconnected reader panics with ProtocolMisuse.
func (r *ChannelReader[T]) Await(ctx context.Context) (T, error) {
	if r.ch == nil {
		panic(flowrt.ProtocolMisuse("await on a disconnected ChannelReader"))
	}
	res, err := r.ch.Read(ctx).Await(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if v, ok := res.Get(); ok {
		return v, nil
	}
	var zero T
	return zero, res.Status()
}

// Disconnect releases the held channel reference. A disconnected
// ChannelReader cannot be reconnected (NewChannelReader builds a new one);
// awaiting it is a programming error.
func (r *ChannelReader[T]) Disconnect() {
	r.ch = nil
}

// AnyChannelReader erases the concrete channel type behind a stored
// closure, exposing the same await contract as ChannelReader. It is used
// where an operator's input must be able to hold readers of differently
// typed underlying channels without a type parameter leaking through.
type AnyChannelReader[T any] struct {
	await func(ctx context.Context) (T, error)
}

// NewAnyChannelReader erases ch's concrete type behind a closure.
func NewAnyChannelReader[T any](ch channel.ReadableChannel[T]) *AnyChannelReader[T] {
	r := NewChannelReader(ch)
	return &AnyChannelReader[T]{await: r.Await}
}

// Await blocks until the next value is available, the channel closes, or
// ctx is done. Awaiting a disconnected reader panics with ProtocolMisuse.
func (r *AnyChannelReader[T]) Await(ctx context.Context) (T, error) {
	if r.await == nil {
		panic(flowrt.ProtocolMisuse("await on a disconnected AnyChannelReader"))
	}
	return r.await(ctx)
}

// Disconnect releases the held closure.
func (r *AnyChannelReader[T]) Disconnect() {
	r.await = nil
}
