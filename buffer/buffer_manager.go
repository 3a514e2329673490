package buffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cs4432/simpledb/types"
)

// bufferFreeList holds the frames that are not assigned to any block.
// Frames are handed out in pool order.
type bufferFreeList struct {
	list []*Buffer
}

func newBufferFreeListFromSlice(bufs []*Buffer) *bufferFreeList {
	list := make([]*Buffer, len(bufs))
	copy(list, bufs)

	return &bufferFreeList{
		list: list,
	}
}

func (list *bufferFreeList) len() int {
	return len(list.list)
}

func (list *bufferFreeList) push(buf *Buffer) {
	list.list = append(list.list, buf)
}

func (list *bufferFreeList) pop() *Buffer {
	if len(list.list) == 0 {
		return nil
	}

	b := list.list[0]
	list.list = list.list[1:]

	return b
}

// Stats are the counters of a buffer manager.
type Stats struct {
	Hits       int
	Misses     int
	Evictions  int
	Flushes    int
	FailedPins int
}

// HitRatio is the ratio of pins that found the block in the pool.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// BufferManager is the BufferManager of the system.
// The buffer manager is the component of the engine which is responsible
// for the pages that hold user data.
// The buffer manager allocates a fixed set of pages, shared across all the system.
// In order to access a block, a client interacts with the BufferManager as follows:
// 1. The client asks the BM to pin a page from the buffer pool to that block
// 2. The client accesses the contents of that page as much as it desires.
// 3. When the client is done with the buffer, it requests the BM to unpin it
//
// Each page in the buffer pool has associated status information, such as
// whether it is pinned and, if so, what block it is assigned to.
//
// When a block is not in the pool, a never used frame is assigned to it if there is one.
// Otherwise the replacement Policy picks an unpinned frame to reuse.
// If every frame is pinned, pinning fails immediately with ErrInsufficientFrames.
//
// All the state of the pool is guarded by a single lock.
type BufferManager struct {
	pool     []*Buffer
	blockMap map[types.BlockID]*Buffer
	freeList *bufferFreeList
	// number of frames with no pins
	available int
	policy    Policy
	replacer  replacer
	observer  Observer
	stats     Stats
	sync.Mutex
}

type Option func(man *BufferManager)

// WithPolicy sets the replacement policy. The default is PolicyBasic.
func WithPolicy(p Policy) Option {
	return func(man *BufferManager) {
		man.policy = p
	}
}

// WithObserver sets the observer notified of the pool events.
func WithObserver(o Observer) Option {
	return func(man *BufferManager) {
		man.observer = o
	}
}

// NewBufferManager pre-allocates all shared buffers, as indicated by the size argument.
// A hashmap allows for fast access when looking for buffers assigned to a given block.
func NewBufferManager(fm fileManager, lm logManager, size int, opts ...Option) *BufferManager {
	if size <= 0 {
		panic(fmt.Sprintf("buffer: invalid pool size %d", size))
	}

	man := &BufferManager{
		pool:      make([]*Buffer, size),
		blockMap:  make(map[types.BlockID]*Buffer, size),
		available: size,
		policy:    PolicyBasic,
		observer:  NopObserver(),
	}

	for _, opt := range opts {
		opt(man)
	}

	for i := 0; i < len(man.pool); i++ {
		man.pool[i] = newBuffer(i, &man.Mutex, fm, lm)
	}

	man.freeList = newBufferFreeListFromSlice(man.pool)
	man.replacer = man.policy.newReplacer(size)

	return man
}

// Policy returns the replacement policy of the manager.
func (man *BufferManager) Policy() Policy {
	return man.policy
}

// Size returns the number of frames in the pool.
func (man *BufferManager) Size() int {
	return len(man.pool)
}

// Available returns the number of unpinned frames.
func (man *BufferManager) Available() int {
	man.Lock()
	defer man.Unlock()

	return man.available
}

// Stats returns a snapshot of the manager counters.
func (man *BufferManager) Stats() Stats {
	man.Lock()
	defer man.Unlock()

	return man.stats
}

// FlushAll iterates over the assigned blocks and flush them to disk
// if and only if they were modified by txnum.
// Buffers are flushed regardless of their pins, and stay in the pool.
func (man *BufferManager) FlushAll(txnum types.TxID) error {
	if txnum == types.NoTx {
		return nil
	}

	man.Lock()
	defer man.Unlock()

	var errs []error
	for _, buf := range man.pool {
		if !buf.assigned || buf.txnum != txnum {
			continue
		}

		if err := buf.flush(); err != nil {
			errs = append(errs, err)
			continue
		}

		man.stats.Flushes++
		man.emit(Event{Kind: EventFlushed, Frame: buf.id, Block: buf.block})
	}

	return errors.Join(errs...)
}

// Unpin unpins the specified buffer.
// Unpinning a buffer with no pins is a programming error and panics.
func (man *BufferManager) Unpin(buf *Buffer) {
	man.Lock()
	defer man.Unlock()

	if !buf.isPinned() {
		panic(fmt.Sprintf("buffer: unpin of unpinned %s", buf))
	}

	buf.unpin()
	man.replacer.released(buf.id)

	if !buf.isPinned() {
		man.available++
	}
}

// Pin pins a buffer to the given block.
// The method first looks for an existing buffer assigned to the block and returns it if such buffer exists.
// Otherwise it looks for an unpinned buffer to assign to the block,
// writing back its previous contents if they were modified.
// Returns ErrInsufficientFrames if no buffer is available.
func (man *BufferManager) Pin(block types.Block) (*Buffer, error) {
	man.Lock()
	defer man.Unlock()

	buf := man.findExistingBuffer(block)
	if buf != nil {
		man.stats.Hits++
		man.emit(Event{Kind: EventHit, Frame: buf.id, Block: block})
	} else {
		man.stats.Misses++

		buf = man.chooseUnpinnedBuffer(block)
		if buf == nil {
			return nil, ErrInsufficientFrames
		}

		if err := man.evict(buf); err != nil {
			return nil, err
		}

		if err := buf.assignToBlock(block); err != nil {
			man.freeList.push(buf)
			return nil, err
		}

		man.blockMap[block.ID()] = buf
		man.emit(Event{Kind: EventMiss, Frame: buf.id, Block: block})
	}

	man.pin(buf)

	return buf, nil
}

// PinNew appends a new block to filename and pins a buffer to it.
// The page is initialised by fmtr, which may be nil, and written to the new block.
// Returns ErrInsufficientFrames if no buffer is available: in that case the file is not extended.
func (man *BufferManager) PinNew(filename string, fmtr PageFormatter) (*Buffer, error) {
	man.Lock()
	defer man.Unlock()

	man.stats.Misses++

	buf := man.chooseUnpinnedBuffer(types.Block{})
	if buf == nil {
		return nil, ErrInsufficientFrames
	}

	if err := man.evict(buf); err != nil {
		return nil, err
	}

	if err := buf.assignToNew(filename, fmtr); err != nil {
		man.freeList.push(buf)
		return nil, err
	}

	man.blockMap[buf.block.ID()] = buf
	man.emit(Event{Kind: EventMiss, Frame: buf.id, Block: buf.block})

	man.pin(buf)

	return buf, nil
}

func (man *BufferManager) pin(buf *Buffer) {
	if !buf.isPinned() {
		man.available--
	}

	buf.pin()
	man.replacer.accessed(buf.id)
}

// findExistingBuffer tries to find a buffer that has already been assigned the given block.
// if found, the buffer is returned, otherwise the method returns nil
func (man *BufferManager) findExistingBuffer(block types.Block) *Buffer {
	return man.blockMap[block.ID()]
}

// chooseUnpinnedBuffer returns a frame that was never assigned, if any.
// Otherwise it asks the replacement policy for an unpinned frame.
// Returns nil if every frame is pinned.
func (man *BufferManager) chooseUnpinnedBuffer(wanted types.Block) *Buffer {
	if b := man.freeList.pop(); b != nil {
		return b
	}

	frame, steps, ok := man.replacer.victim(man.pool)
	if !ok {
		man.stats.FailedPins++
		man.emit(Event{Kind: EventPinFailed, Frame: -1, Block: wanted, Steps: steps})
		return nil
	}

	b := man.pool[frame]
	man.emit(Event{Kind: EventVictimChosen, Frame: frame, Block: b.block, Steps: steps})

	return b
}

// evict removes the block assigned to buf from the pool, writing it back if it was modified.
// If the write fails, buf keeps its block.
func (man *BufferManager) evict(buf *Buffer) error {
	if !buf.assigned {
		return nil
	}

	dirty := buf.isDirty()
	if err := buf.flush(); err != nil {
		return fmt.Errorf("evict %s: %w", buf.block, err)
	}

	delete(man.blockMap, buf.block.ID())
	man.stats.Evictions++
	man.emit(Event{Kind: EventEvicted, Frame: buf.id, Block: buf.block, Dirty: dirty})

	buf.reset()

	return nil
}

func (man *BufferManager) emit(e Event) {
	e.Policy = man.policy
	man.observer.Observe(e)
}
