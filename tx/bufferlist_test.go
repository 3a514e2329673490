package tx

import (
	"context"
	"testing"

	"github.com/cs4432/simpledb/test"
	"github.com/cs4432/simpledb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferlistPin(t *testing.T) {
	conf := test.DefaultConfig(t)

	_, _, bm := test.MakeManagersWithConfig(t, conf)

	buflist := makeBufferList(bm)

	testBlock := types.NewBlock(conf.BlockFile, 1)

	require.NoError(t, buflist.pin(context.Background(), testBlock))
	require.NoError(t, buflist.pin(context.Background(), testBlock))

	// test that available buffers in the manager are all minus one
	assert.Equal(t, conf.BuffersAvailable-1, bm.Available())

	// test that the pinned buffer is correctly accounted for in the list
	assert.Equal(t, 2, buflist.pins[testBlock.ID()], "expected two pins for block %s", testBlock)

	buflist.unpin(testBlock)
	assert.Equal(t, 1, buflist.pins[testBlock.ID()])
	assert.NotNil(t, buflist.buffer(testBlock))

	buflist.unpin(testBlock)

	// test that internal counters are set to 0
	assert.Nil(t, buflist.buffer(testBlock), "expected buffer for block %s to not be listed as pinned", testBlock)
	assert.NotContains(t, buflist.pins, testBlock.ID())
	assert.Equal(t, conf.BuffersAvailable, bm.Available())

	assert.Panics(t, func() { buflist.unpin(testBlock) })
}

func TestBufferlistUnpinAll(t *testing.T) {
	conf := test.DefaultConfig(t)

	_, _, bm := test.MakeManagersWithConfig(t, conf)

	buflist := makeBufferList(bm)

	for i := 0; i < 3; i++ {
		block := types.NewBlock(conf.BlockFile, types.Long(i))
		require.NoError(t, buflist.pin(context.Background(), block))
	}

	// a block pinned twice is released twice
	require.NoError(t, buflist.pin(context.Background(), types.NewBlock(conf.BlockFile, 0)))

	buflist.unpinAll()

	assert.Empty(t, buflist.buffers, "expected pinned buffers list to be empty")
	assert.Empty(t, buflist.pins, "expected pinned buffers count to be empty")
	assert.Equal(t, conf.BuffersAvailable, bm.Available())
}

func TestBufferlistPinNew(t *testing.T) {
	conf := test.DefaultConfig(t)

	fm, _, bm := test.MakeManagersWithConfig(t, conf)

	buflist := makeBufferList(bm)

	block, err := buflist.pinNew(context.Background(), conf.BlockFile, nil)
	require.NoError(t, err)

	assert.Equal(t, types.NewBlock(conf.BlockFile, 0), block)
	assert.Equal(t, 1, buflist.pins[block.ID()])

	size, err := fm.Size(conf.BlockFile)
	require.NoError(t, err)
	assert.Equal(t, types.Long(1), size)
}
