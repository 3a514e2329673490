package tx

import (
	"context"
	"fmt"

	"github.com/cs4432/simpledb/buffer"
	"github.com/cs4432/simpledb/types"
)

// bufferList keeps track of the buffers pinned by a transaction.
type bufferList struct {
	buffers map[types.BlockID]*buffer.Buffer
	pins    map[types.BlockID]int // holds a counter of pins
	bm      *buffer.BufferManager
}

func makeBufferList(bm *buffer.BufferManager) bufferList {
	return bufferList{
		buffers: map[types.BlockID]*buffer.Buffer{},
		pins:    map[types.BlockID]int{},
		bm:      bm,
	}
}

// buffer returns the buffer pinned to the specified block.
// If such a buffer does not exists, it returns nil
// (for example, if the tx has not yet pinned the block)
func (list *bufferList) buffer(block types.Block) *buffer.Buffer {
	return list.buffers[block.ID()]
}

// pin pins the specified block and keeps track of the buffer internally.
// Returns ErrPinTimeout if no buffer becomes available in time.
func (list *bufferList) pin(ctx context.Context, block types.Block) error {
	buf, err := retryPin(ctx, func() (*buffer.Buffer, error) {
		return list.bm.Pin(block)
	})
	if err != nil {
		return err
	}

	list.track(buf)
	return nil
}

// pinNew appends a block to filename, formatted by fmtr, and pins it.
func (list *bufferList) pinNew(ctx context.Context, filename string, fmtr buffer.PageFormatter) (types.Block, error) {
	buf, err := retryPin(ctx, func() (*buffer.Buffer, error) {
		return list.bm.PinNew(filename, fmtr)
	})
	if err != nil {
		return types.Block{}, err
	}

	list.track(buf)
	return buf.Block(), nil
}

func (list *bufferList) track(buf *buffer.Buffer) {
	key := buf.Block().ID()
	list.buffers[key] = buf
	// increase the pinned counter
	list.pins[key]++
}

func (list *bufferList) unpin(block types.Block) {
	key := block.ID()
	buf, ok := list.buffers[key]
	if !ok {
		panic(fmt.Sprintf("tx: unpin of %s, which is not pinned", block))
	}

	list.bm.Unpin(buf)

	// decrement pins
	if list.pins[key] == 1 {
		delete(list.pins, key)
		delete(list.buffers, key)
	} else {
		list.pins[key]--
	}
}

// Unpin any buffer still pinned by this transaction
func (list *bufferList) unpinAll() {
	for k, c := range list.pins {
		buf := list.buffers[k]
		for i := 0; i < c; i++ {
			list.bm.Unpin(buf)
		}
	}

	list.buffers = map[types.BlockID]*buffer.Buffer{}
	list.pins = map[types.BlockID]int{}
}
