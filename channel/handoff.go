package channel

import "context"

// Handoff is a single-slot specialization of ImmediateChannel for exactly
// one writer and one reader. It is built directly on ImmediateChannel: with
// only one side on each end, the LIFO parking discipline degenerates to a
// plain rendezvous.
type Handoff[T any] struct {
	ch *ImmediateChannel[T]
}

// NewHandoff creates a live Handoff.
func NewHandoff[T any]() *Handoff[T] {
	return &Handoff[T]{ch: NewImmediateChannel[T]()}
}

// Write suspends until the reader observes v.
func (h *Handoff[T]) Write(ctx context.Context, v T) error {
	return h.ch.Write(ctx, v)
}

// Read returns the next value, or flowrt.Closed once the handoff has been
// closed and drained.
func (h *Handoff[T]) Read(ctx context.Context) (T, error) {
	return h.ch.Read(ctx)
}

// Close wakes the parked reader, if any, with end-of-stream.
func (h *Handoff[T]) Close() error {
	return h.ch.Close()
}

// Closed reports whether Close has been called.
func (h *Handoff[T]) Closed() bool {
	return h.ch.Closed()
}
