// Package channel implements the rendezvous-style channels that operators
// use to exchange values once a producer's Output has been connected to a
// channel edge instead of a direct generator edge (see the edge package).
package channel

import (
	"context"
	"sync"

	"github.com/flowlattice/corert"
)

// ImmediateChannel is an unbuffered, multi-writer/multi-reader rendezvous
// channel. Unlike SymmetricTransfer, which is a strict ping-pong between
// exactly two goroutines, ImmediateChannel allows any number of readers and
// writers to park on it concurrently; it matches them LIFO.
//
// Readers and writers are parked on intrusive stacks guarded by a single
// mutex. At most one of the two stacks is non-empty at a time while the
// channel is live: a write or read that finds a matching peer already
// parked transfers synchronously instead of parking itself.
//
// A matched transfer is the Go analogue of a coroutine resume: the value
// send "is" the resume of the matched peer. A peer that loops — reads (or
// writes) again immediately after being matched — is expected to reclaim
// the top of its stack before the other side's next operation runs, the
// same way a resumed coroutine runs to its next suspend point before the
// resumer regains control. The *next* Write (respectively Read) call after
// a match honors that: it waits for the stack to regrow to the depth it had
// before the match before picking a new peer, rather than grabbing whatever
// stale waiter happens to already be underneath it.
type ImmediateChannel[T any] struct {
	mu      sync.Mutex
	closed  bool
	writers []*waitingWriter[T]
	readers []*waitingReader[T]

	// readerParked and writerParked are closed and replaced every time a
	// reader (respectively writer) parks or the channel closes, so a
	// goroutine waiting for a peer to park can block on the current one
	// without holding c.mu.
	readerParked chan struct{}
	writerParked chan struct{}

	// expectReaderDepth/expectWriterDepth are set by a match to the stack
	// depth it had just before popping its peer. The next Write
	// (respectively Read) call waits for the stack to reach that depth
	// again before matching, giving the just-matched peer a chance to
	// reclaim its spot if it loops. Zero means no pending expectation.
	expectReaderDepth int
	expectWriterDepth int
}

type waitingWriter[T any] struct {
	value T
	done  chan error
}

type waitingReader[T any] struct {
	value T
	err   error
	done  chan struct{}
}

// NewImmediateChannel creates a live (not yet closed) channel.
func NewImmediateChannel[T any]() *ImmediateChannel[T] {
	return &ImmediateChannel[T]{
		readerParked: make(chan struct{}),
		writerParked: make(chan struct{}),
	}
}

// Write suspends until a reader receives v, unless a reader is already
// parked, in which case the transfer happens synchronously before Write
// returns. Write on a closed channel fails with flowrt.Closed.
func (c *ImmediateChannel[T]) Write(ctx context.Context, v T) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return flowrt.Closed
	}
	if err := c.waitForStickyReader(ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	if n := len(c.readers); n > 0 {
		r := c.readers[n-1]
		c.readers = c.readers[:n-1]
		r.value = v
		c.expectReaderDepth = n
		c.mu.Unlock()
		close(r.done)
		return nil
	}
	c.expectReaderDepth = 0

	w := &waitingWriter[T]{value: v, done: make(chan error, 1)}
	c.writers = append(c.writers, w)
	c.signalWriterParked()
	c.mu.Unlock()

	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		if c.removeWriter(w) {
			return ctx.Err()
		}
		// A reader claimed w between ctx firing and removeWriter taking the
		// lock: the value is already committed, so honor the transfer
		// instead of reporting cancellation and losing it.
		return <-w.done
	}
}

// Read suspends until a writer offers a value, unless a writer is already
// parked, in which case the transfer happens synchronously. Read on a
// closed, empty channel returns flowrt.Closed.
func (c *ImmediateChannel[T]) Read(ctx context.Context) (T, error) {
	c.mu.Lock()
	if err := c.waitForStickyWriter(ctx); err != nil {
		c.mu.Unlock()
		var zero T
		return zero, err
	}

	if n := len(c.writers); n > 0 {
		w := c.writers[n-1]
		c.writers = c.writers[:n-1]
		c.expectWriterDepth = n
		c.mu.Unlock()
		w.done <- nil
		return w.value, nil
	}
	c.expectWriterDepth = 0
	if c.closed {
		c.mu.Unlock()
		var zero T
		return zero, flowrt.Closed
	}

	r := &waitingReader[T]{done: make(chan struct{})}
	c.readers = append(c.readers, r)
	c.signalReaderParked()
	c.mu.Unlock()

	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		if c.removeReader(r) {
			var zero T
			return zero, ctx.Err()
		}
		// A writer claimed r between ctx firing and removeReader taking the
		// lock: the value is already committed, so honor the transfer
		// instead of reporting cancellation and losing it.
		<-r.done
		return r.value, r.err
	}
}

// Close marks the channel closed, wakes every parked reader and writer with
// flowrt.Closed, and fails every subsequent write or read. Close is
// idempotent.
func (c *ImmediateChannel[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	readers := c.readers
	c.readers = nil
	writers := c.writers
	c.writers = nil
	close(c.readerParked)
	close(c.writerParked)
	c.mu.Unlock()

	for _, r := range readers {
		r.err = flowrt.Closed
		close(r.done)
	}
	for _, w := range writers {
		w.done <- flowrt.Closed
	}
	return nil
}

// Closed reports whether Close has been called.
func (c *ImmediateChannel[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// waitForStickyReader blocks, releasing c.mu while it waits, until the stack of
// parked readers has regrown to expectReaderDepth (someone, typically the
// reader matched by the previous Write, has reclaimed the top of the
// stack), there is no pending expectation, the channel closes, or ctx ends.
// Must be called with c.mu held; always returns with c.mu held.
func (c *ImmediateChannel[T]) waitForStickyReader(ctx context.Context) error {
	for {
		if c.expectReaderDepth == 0 || len(c.readers) >= c.expectReaderDepth || c.closed {
			return nil
		}
		notify := c.readerParked
		c.mu.Unlock()
		select {
		case <-notify:
			c.mu.Lock()
		case <-ctx.Done():
			c.mu.Lock()
			c.expectReaderDepth = 0
			return ctx.Err()
		}
	}
}

// waitForStickyWriter is the Read-side counterpart of waitForStickyReader.
func (c *ImmediateChannel[T]) waitForStickyWriter(ctx context.Context) error {
	for {
		if c.expectWriterDepth == 0 || len(c.writers) >= c.expectWriterDepth || c.closed {
			return nil
		}
		notify := c.writerParked
		c.mu.Unlock()
		select {
		case <-notify:
			c.mu.Lock()
		case <-ctx.Done():
			c.mu.Lock()
			c.expectWriterDepth = 0
			return ctx.Err()
		}
	}
}

// signalReaderParked must be called with c.mu held, after appending to
// c.readers.
func (c *ImmediateChannel[T]) signalReaderParked() {
	close(c.readerParked)
	c.readerParked = make(chan struct{})
}

// signalWriterParked must be called with c.mu held, after appending to
// c.writers.
func (c *ImmediateChannel[T]) signalWriterParked() {
	close(c.writerParked)
	c.writerParked = make(chan struct{})
}

// removeWriter removes w from the parked stack and reports whether it found
// it there. A false return means a reader already matched w under c.mu
// before this call acquired it, so w.done is (or is about to be) settled.
func (c *ImmediateChannel[T]) removeWriter(w *waitingWriter[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.writers {
		if other == w {
			c.writers = append(c.writers[:i], c.writers[i+1:]...)
			return true
		}
	}
	return false
}

// removeReader removes r from the parked stack and reports whether it found
// it there. A false return means a writer already matched r under c.mu
// before this call acquired it, so r.done is (or is about to be) settled.
func (c *ImmediateChannel[T]) removeReader(r *waitingReader[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.readers {
		if other == r {
			c.readers = append(c.readers[:i], c.readers[i+1:]...)
			return true
		}
	}
	return false
}
