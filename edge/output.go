// Package edge implements the producer- and consumer-side glue that
// connects an operator's typed outputs and inputs to the underlying
// channel and generator primitives.
package edge

import (
	"context"
	"sync"

	"github.com/flowlattice/corert"
	"github.com/flowlattice/corert/channel"
)

// Output owns a SymmetricTransfer shared with at most one downstream edge.
// It starts unconnected; ConnectGenerator or ConnectChannel steals the
// transfer and marks the Output connected. Connecting twice is a
// programming error.
type Output[T any] struct {
	mu        sync.Mutex
	transfer  *flowrt.SymmetricTransfer[T]
	connected bool
}

// NewOutput creates an unconnected Output.
func NewOutput[T any]() *Output[T] {
	return &Output[T]{transfer: flowrt.NewSymmetricTransfer[T]()}
}

// Init blocks until the downstream edge has entered Initialize.
func (o *Output[T]) Init(ctx context.Context) error {
	return o.transfer.WaitUntilInitialized(ctx)
}

// Produce hands v to the downstream edge, suspending until it is observed.
func (o *Output[T]) Produce(ctx context.Context, v T) error {
	return o.transfer.Produce(ctx, v)
}

// Finalize closes the transfer; the downstream edge observes end-of-stream.
func (o *Output[T]) Finalize() {
	o.transfer.Close()
}

// ConnectGenerator relinquishes the Output's transfer to a freshly
// constructed AsyncGenerator, bypassing channels entirely. Legal only with
// a single output and no concurrency split; calling it twice, or after
// ConnectChannel, panics with flowrt.ProtocolMisuse.
func (o *Output[T]) ConnectGenerator() *flowrt.AsyncGenerator[T] {
	tr := o.steal()
	// Initialize eagerly, like the channel-writer task below: iter.Pull
	// doesn't run the producer closure until the first Next, so Init would
	// otherwise never return until the generator's consumer pulls.
	tr.Initialize()
	return flowrt.NewAsyncGenerator(func(yield func(T) bool) {
		for {
			v, ok := tr.Next(context.Background())
			if !ok || !yield(v) {
				return
			}
		}
	})
}

// ConnectChannel relinquishes the Output's transfer to a writer task that
// drains it into w. The returned task is already running; the caller owns
// it and must await it before considering the Output finished.
func (o *Output[T]) ConnectChannel(w channel.WritableChannel[T]) *flowrt.Task[struct{}] {
	tr := o.steal()
	return flowrt.Go(context.Background(), func(ctx context.Context) (struct{}, error) {
		tr.Initialize()
		for {
			v, ok := tr.Next(ctx)
			if !ok {
				return struct{}{}, nil
			}
			if _, err := w.Write(ctx, v).Await(ctx); err != nil {
				return struct{}{}, err
			}
		}
	})
}

func (o *Output[T]) steal() *flowrt.SymmetricTransfer[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.connected {
		panic(flowrt.ProtocolMisuse("output already connected"))
	}
	o.connected = true
	return o.transfer
}
