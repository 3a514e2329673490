package tx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cs4432/simpledb/buffer"
	"github.com/cs4432/simpledb/test"
	"github.com/cs4432/simpledb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPin(t *testing.T) {
	t.Parallel()

	t.Run("waits for a buffer to be released", func(t *testing.T) {
		t.Parallel()

		conf := test.DefaultConfig(t)
		conf.BuffersAvailable = 1
		_, _, bm := test.MakeManagersWithConfig(t, conf)

		held, err := bm.Pin(types.NewBlock(conf.BlockFile, 0))
		require.NoError(t, err)

		go func() {
			time.Sleep(20 * time.Millisecond)
			bm.Unpin(held)
		}()

		list := makeBufferList(bm)
		wanted := types.NewBlock(conf.BlockFile, 1)
		require.NoError(t, list.pin(context.Background(), wanted))
		assert.Equal(t, wanted, list.buffer(wanted).Block())
	})

	t.Run("times out when every buffer stays pinned", func(t *testing.T) {
		t.Parallel()

		conf := test.DefaultConfig(t)
		conf.BuffersAvailable = 1
		_, _, bm := test.MakeManagersWithConfig(t, conf)

		_, err := bm.Pin(types.NewBlock(conf.BlockFile, 0))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		list := makeBufferList(bm)
		err = list.pin(ctx, types.NewBlock(conf.BlockFile, 1))
		assert.ErrorIs(t, err, ErrPinTimeout)
		assert.ErrorIs(t, err, buffer.ErrInsufficientFrames)
		assert.Empty(t, list.pins)
	})

	t.Run("stops when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := retryPin(ctx, func() (*buffer.Buffer, error) {
			calls++
			if calls == 3 {
				cancel()
			}
			return nil, buffer.ErrInsufficientFrames
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrPinTimeout)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		calls := 0
		_, err := retryPin(context.Background(), func() (*buffer.Buffer, error) {
			calls++
			return nil, errBoom
		})

		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, calls)
	})
}
