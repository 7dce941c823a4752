package flowrt_test

import (
	"context"
	"testing"
	"time"

	"github.com/flowlattice/corert"
)

func TestWaitGroup(t *testing.T) {
	t.Run("ZeroNeverBlocks", func(t *testing.T) {
		wg := flowrt.NewWaitGroup()
		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		if err := wg.Await(ctx); err != nil {
			t.Fatalf("Await() = %v; want nil", err)
		}
	})

	t.Run("AddThenDone", func(t *testing.T) {
		wg := flowrt.NewWaitGroup()
		wg.Add(2)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := wg.Await(ctx); err == nil {
			t.Fatal("Await() = nil before counter reached zero")
		}

		wg.Done()
		wg.Done()

		ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
		defer cancel2()
		if err := wg.Await(ctx2); err != nil {
			t.Fatalf("Await() = %v; want nil", err)
		}
	})

	t.Run("NegativePanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("Done() on an empty WaitGroup did not panic")
			}
		}()
		flowrt.NewWaitGroup().Done()
	})
}
