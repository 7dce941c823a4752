package edge_test

import (
	"context"
	"testing"
	"time"

	"github.com/flowlattice/corert/channel"
	"github.com/flowlattice/corert/edge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputConnectGenerator(t *testing.T) {
	out := edge.NewOutput[int]()
	gen := out.ConnectGenerator()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, out.Init(ctx))

	produced := make(chan error, 1)
	go func() {
		for i := 0; i < 3; i++ {
			if err := out.Produce(ctx, i); err != nil {
				produced <- err
				return
			}
		}
		out.Finalize()
		produced <- nil
	}()

	for i := 0; i < 3; i++ {
		v, ok := gen.Next(ctx)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := gen.Next(ctx)
	assert.False(t, ok)
	require.NoError(t, <-produced)
}

func TestOutputConnectChannel(t *testing.T) {
	out := edge.NewOutput[int]()
	ch := channel.NewImmediateChannel[int]()
	writer := out.ConnectChannel(channel.FromImmediateChannel(ch))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, out.Init(ctx))

	go func() {
		for i := 0; i < 3; i++ {
			_ = out.Produce(ctx, i)
		}
		out.Finalize()
	}()

	for i := 0; i < 3; i++ {
		v, err := ch.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	_, err := writer.Await(ctx)
	require.NoError(t, err)
}

func TestOutputDoubleConnectPanics(t *testing.T) {
	out := edge.NewOutput[int]()
	out.ConnectGenerator()

	defer func() {
		if recover() == nil {
			t.Fatal("second Connect did not panic")
		}
	}()
	out.ConnectGenerator()
}
