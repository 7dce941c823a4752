package flowrt_test

import (
	"context"
	"testing"
	"time"

	"github.com/flowlattice/corert"
)

func TestAsyncGenerator(t *testing.T) {
	t.Run("YieldsInOrder", func(t *testing.T) {
		g := flowrt.NewAsyncGenerator(func(yield func(int) bool) {
			for i := 0; i < 3; i++ {
				if !yield(i) {
					return
				}
			}
		})

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			v, ok := g.Next(ctx)
			if !ok || v != i {
				t.Fatalf("Next() #%d = %v, %v; want %v, true", i, v, ok, i)
			}
		}

		v, ok := g.Next(ctx)
		if ok || v != 0 {
			t.Fatalf("Next() past end = %v, %v; want 0, false", v, ok)
		}
	})

	t.Run("LazyUntilPulled", func(t *testing.T) {
		produced := 0
		g := flowrt.NewAsyncGenerator(func(yield func(int) bool) {
			for {
				produced++
				if !yield(produced) {
					return
				}
			}
		})

		if produced != 0 {
			t.Fatalf("produced = %d before the first Next; want 0", produced)
		}

		ctx := context.Background()
		if _, ok := g.Next(ctx); !ok {
			t.Fatal("Next() ok = false")
		}
		if produced != 1 {
			t.Fatalf("produced = %d after one Next; want 1", produced)
		}
	})

	t.Run("CloseStopsProducer", func(t *testing.T) {
		g := flowrt.NewAsyncGenerator(func(yield func(int) bool) {
			for i := 0; ; i++ {
				if !yield(i) {
					return
				}
			}
		})

		ctx := context.Background()
		g.Next(ctx)
		g.Close()

		v, ok := g.Next(ctx)
		if ok || v != 0 {
			t.Fatalf("Next() after Close = %v, %v; want 0, false", v, ok)
		}
	})

	t.Run("NextRespectsContext", func(t *testing.T) {
		g := flowrt.NewAsyncGenerator(func(yield func(int) bool) {
			select {} // never yields
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, ok := g.Next(ctx)
		if ok {
			t.Fatal("Next() ok = true; want false on context deadline")
		}
	})
}
