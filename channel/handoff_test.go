package channel_test

import (
	"context"
	"testing"

	"github.com/flowlattice/corert"
	"github.com/flowlattice/corert/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandoffTenValues(t *testing.T) {
	h := channel.NewHandoff[int]()
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 10; i++ {
			if err := h.Write(ctx, i); err != nil {
				done <- err
				return
			}
		}
		done <- h.Close()
	}()

	for i := 0; i < 10; i++ {
		v, err := h.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	require.NoError(t, <-done)

	_, err := h.Read(ctx)
	assert.ErrorIs(t, err, flowrt.Closed)
}

func TestHandoffCloseIsIdempotent(t *testing.T) {
	h := channel.NewHandoff[int]()
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.True(t, h.Closed())
}
