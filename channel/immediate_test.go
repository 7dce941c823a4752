package channel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flowlattice/corert"
	"github.com/flowlattice/corert/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImmediateChannelClosedBeforeUse(t *testing.T) {
	ch := channel.NewImmediateChannel[int]()
	require.NoError(t, ch.Close())

	_, err := ch.Read(context.Background())
	assert.ErrorIs(t, err, flowrt.Closed)

	err = ch.Write(context.Background(), 1)
	assert.ErrorIs(t, err, flowrt.Closed)
}

func TestImmediateChannelSingleWriterReader(t *testing.T) {
	ch := channel.NewImmediateChannel[int]()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			require.NoError(t, ch.Write(ctx, i))
		}
	}()

	for i := 0; i < 3; i++ {
		v, err := ch.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	wg.Wait()
}

// TestImmediateChannelLIFOReaders encodes the Readerx4_Writer_x1 scenario:
// four readers park in arrival order, then a single writer sends three
// values. Because readers are matched LIFO, the last-registered reader
// receives all three values while the first three receive nothing until
// Close wakes them with flowrt.Closed.
func TestImmediateChannelLIFOReaders(t *testing.T) {
	ch := channel.NewImmediateChannel[int]()
	ctx := context.Background()

	type result struct {
		idx int
		v   int
		err error
	}
	results := make(chan result, 4)

	var parked sync.WaitGroup
	parked.Add(4)
	for i := 0; i < 4; i++ {
		i := i
		go func() {
			// Signal "about to park" before calling Read; there is no
			// observable parked state to wait on, so a short stagger
			// guarantees arrival order across goroutines.
			parked.Done()
			time.Sleep(time.Duration(i) * 5 * time.Millisecond)
			for {
				v, err := ch.Read(ctx)
				results <- result{idx: i, v: v, err: err}
				if err != nil {
					return
				}
			}
		}()
	}
	parked.Wait()
	time.Sleep(30 * time.Millisecond) // let all four actually park

	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Write(ctx, i))
	}
	require.NoError(t, ch.Close())

	gotByReader := map[int]int{}
	closedByReader := map[int]int{}
	for n := 0; n < 7; n++ {
		r := <-results
		if r.err != nil {
			closedByReader[r.idx]++
		} else {
			gotByReader[r.idx]++
		}
	}

	assert.Equal(t, 3, gotByReader[3], "last-registered reader should receive all writes")
	assert.Equal(t, 1, closedByReader[3])
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, gotByReader[i])
		assert.Equal(t, 1, closedByReader[i])
	}
}

func TestImmediateChannelMultipleWritersReaders(t *testing.T) {
	ch := channel.NewImmediateChannel[int]()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	for w := 0; w < 2; w++ {
		w := w
		go func() {
			defer wg.Done()
			require.NoError(t, ch.Write(ctx, w))
		}()
	}

	got := make(map[int]bool)
	var mu sync.Mutex
	var rwg sync.WaitGroup
	rwg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer rwg.Done()
			v, err := ch.Read(ctx)
			require.NoError(t, err)
			mu.Lock()
			got[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	rwg.Wait()

	assert.True(t, got[0])
	assert.True(t, got[1])
}

func TestImmediateChannelCloseWakesParkedReaders(t *testing.T) {
	ch := channel.NewImmediateChannel[int]()
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() {
		_, err := ch.Read(ctx)
		errs <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ch.Close())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, flowrt.Closed)
	case <-time.After(time.Second):
		t.Fatal("parked reader was not woken by Close")
	}
}

func TestImmediateChannelContextCancellation(t *testing.T) {
	ch := channel.NewImmediateChannel[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := ch.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
