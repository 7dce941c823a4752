package flowrt

import (
	"context"
	"sync"
)

// A SymmetricTransfer is a rendezvous point between exactly one producer
// goroutine and one consumer goroutine that moves one value at a time.
//
// It is "symmetric" in the sense that a value send and its matching receive
// on an unbuffered Go channel are a single atomic rendezvous, with no
// intermediate queueing and no extra trip through a scheduler — a direct
// hand-off from producer to consumer.
//
// A SymmetricTransfer must be used by at most one producer and one consumer
// at a time.
type SymmetricTransfer[T any] struct {
	values      chan T
	initialized chan struct{}
	closed      chan struct{}
	initOnce    sync.Once

	// mu guards inFlight and closeRequested. Close must never block on a
	// send completing — its caller may be the very goroutine that would
	// otherwise drain it via Next, which would deadlock. Instead Close
	// only closes the channel immediately if nothing is in flight; if a
	// send is in flight, it just records the request, and the Produce
	// call that finishes the send closes it afterward.
	mu             sync.Mutex
	inFlight       int
	closeRequested bool
}

// NewSymmetricTransfer returns an unconnected SymmetricTransfer.
func NewSymmetricTransfer[T any]() *SymmetricTransfer[T] {
	return &SymmetricTransfer[T]{
		values:      make(chan T),
		initialized: make(chan struct{}),
		closed:      make(chan struct{}),
	}
}

// Initialize must be called by the consumer exactly once, before the first
// call to Next. It marks the transfer ready to receive a producer.
func (s *SymmetricTransfer[T]) Initialize() {
	s.initOnce.Do(func() { close(s.initialized) })
}

// WaitUntilInitialized blocks until the consumer has called Initialize, or
// until ctx is done.
func (s *SymmetricTransfer[T]) WaitUntilInitialized(ctx context.Context) error {
	select {
	case <-s.initialized:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Produce writes v into the transfer, blocking until the consumer receives
// it (or until ctx is done, or the transfer has been closed). Producing on
// a closed transfer fails with Closed.
func (s *SymmetricTransfer[T]) Produce(ctx context.Context, v T) error {
	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		return Closed
	default:
	}
	s.inFlight++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		if s.inFlight == 0 && s.closeRequested {
			close(s.closed)
		}
		s.mu.Unlock()
	}()

	// closed is deliberately absent from this select: Close only ever
	// closes s.closed once inFlight drops back to zero, so it cannot fire
	// while this send is outstanding.
	select {
	case s.values <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next blocks until a value is produced or the transfer closes, returning
// the value and true, or the zero value and false at end-of-stream.
func (s *SymmetricTransfer[T]) Next(ctx context.Context) (T, bool) {
	select {
	case v := <-s.values:
		return v, true
	case <-s.closed:
		var zero T
		return zero, false
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// Close marks the transfer closed. If a value is already mid-flight it is
// delivered to the consumer first: Close never blocks, but if a Produce call
// is currently sending, the actual close is deferred until that send either
// completes or gives up via its own ctx. Close is idempotent.
func (s *SymmetricTransfer[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeRequested {
		return
	}
	s.closeRequested = true
	if s.inFlight == 0 {
		close(s.closed)
	}
}

// Closed reports whether the transfer has closed. If Close was called while
// a Produce call was sending, Closed reports false until that send finishes.
func (s *SymmetricTransfer[T]) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
