package flowrt

import (
	"context"
	"sync"
)

// A WaitGroup counts outstanding work, like [Latch], but unlike a Latch its
// counter can go up as well as down. It is safe for multiple goroutines to
// call Add/Done concurrently.
type WaitGroup struct {
	mu     sync.Mutex
	n      int
	signal chan struct{}
}

// NewWaitGroup returns a zeroed WaitGroup, already signalled.
func NewWaitGroup() *WaitGroup {
	wg := &WaitGroup{signal: make(chan struct{})}
	close(wg.signal)
	return wg
}

// Add adds delta, which may be negative, to the counter. It panics if the
// counter goes negative.
func (wg *WaitGroup) Add(delta int) {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	if wg.n == 0 && delta > 0 {
		wg.signal = make(chan struct{})
	}

	wg.n += delta
	if wg.n < 0 {
		panic("flowrt: WaitGroup: negative counter")
	}
	if wg.n == 0 {
		close(wg.signal)
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Await blocks until the counter reaches zero or ctx is done. Awaiting a
// WaitGroup whose counter is already zero never blocks.
func (wg *WaitGroup) Await(ctx context.Context) error {
	wg.mu.Lock()
	signal := wg.signal
	wg.mu.Unlock()

	select {
	case <-signal:
		return nil
	default:
	}
	select {
	case <-signal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
