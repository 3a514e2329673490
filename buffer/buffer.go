package buffer

import (
	"fmt"
	"sync"

	"github.com/cs4432/simpledb/types"
)

// Buffer is a frame of the buffer pool.
// It holds the contents of at most one block, together with
// its pin count and the transaction that last modified it.
//
// Clients only ever see pinned buffers. The contents of a buffer belong
// to the client that pinned it, until it is unpinned.
type Buffer struct {
	// index of the frame in the pool
	id int
	// guards pins, txnum and lsn. It is the lock of the manager owning the frame.
	mu       *sync.Mutex
	fm       fileManager
	lm       logManager
	contents *types.Page
	block    types.Block
	assigned bool
	pins     int
	txnum    types.TxID
	// log sequence number of the most recent log record for this buffer
	lsn int
}

func newBuffer(id int, mu *sync.Mutex, fm fileManager, lm logManager) *Buffer {
	return &Buffer{
		id:       id,
		mu:       mu,
		fm:       fm,
		lm:       lm,
		contents: types.NewPageWithSize(fm.BlockSize()),
		txnum:    types.NoTx,
		lsn:      -1,
	}
}

func (buf *Buffer) Contents() *types.Page {
	return buf.contents
}

// Block returns the block currently assigned to the buffer.
func (buf *Buffer) Block() types.Block {
	return buf.block
}

// ID is the index of the frame in the pool.
func (buf *Buffer) ID() int {
	return buf.id
}

// SetModified marks the buffer as dirty on behalf of txnum.
// A negative lsn means that no log record was generated for the update.
func (buf *Buffer) SetModified(txnum types.TxID, lsn int) {
	buf.mu.Lock()
	defer buf.mu.Unlock()

	buf.txnum = txnum
	if lsn >= 0 {
		buf.lsn = lsn
	}
}

// ModifyingTx returns the transaction that modified the buffer since its last flush,
// or types.NoTx.
func (buf *Buffer) ModifyingTx() types.TxID {
	buf.mu.Lock()
	defer buf.mu.Unlock()

	return buf.txnum
}

// LSN returns the sequence number of the latest log record for the buffer.
func (buf *Buffer) LSN() int {
	buf.mu.Lock()
	defer buf.mu.Unlock()

	return buf.lsn
}

func (buf *Buffer) IsPinned() bool {
	buf.mu.Lock()
	defer buf.mu.Unlock()

	return buf.isPinned()
}

func (buf *Buffer) isPinned() bool {
	return buf.pins > 0
}

func (buf *Buffer) isDirty() bool {
	return buf.txnum != types.NoTx
}

// flush ensures that the buffer's assigned disk block has the same values as its page.
// If the page has not been modified, nothing is written to disk.
// Otherwise the log is flushed up to the buffer's LSN before the page is written.
func (buf *Buffer) flush() error {
	if !buf.isDirty() {
		return nil
	}

	if err := buf.lm.Flush(buf.lsn); err != nil {
		return fmt.Errorf("flush log for %s: %w", buf.block, err)
	}

	if err := buf.fm.Write(buf.block, buf.contents); err != nil {
		return err
	}

	buf.txnum = types.NoTx
	return nil
}

// assignToBlock reads block into the buffer.
// The previous contents must have been flushed by the caller.
// On failure the buffer is left unassigned.
func (buf *Buffer) assignToBlock(block types.Block) error {
	buf.reset()

	if err := buf.fm.Read(block, buf.contents); err != nil {
		return fmt.Errorf("load %s: %w", block, err)
	}

	buf.block = block
	buf.assigned = true
	return nil
}

// assignToNew appends a new block to filename, formats the page with fmtr
// and writes it to the new block.
// On failure the buffer is left unassigned.
func (buf *Buffer) assignToNew(filename string, fmtr PageFormatter) error {
	buf.reset()

	block, err := buf.fm.Append(filename)
	if err != nil {
		return err
	}

	buf.contents.Clear()
	if fmtr != nil {
		fmtr.Format(buf.contents)
	}

	if err := buf.fm.Write(block, buf.contents); err != nil {
		return fmt.Errorf("format %s: %w", block, err)
	}

	buf.block = block
	buf.assigned = true
	return nil
}

func (buf *Buffer) reset() {
	buf.block = types.Block{}
	buf.assigned = false
	buf.pins = 0
	buf.txnum = types.NoTx
	buf.lsn = -1
}

func (buf *Buffer) pin() {
	buf.pins++
}

func (buf *Buffer) unpin() {
	buf.pins--
}

func (buf *Buffer) String() string {
	if !buf.assigned {
		return fmt.Sprintf("frame %d: unassigned", buf.id)
	}

	return fmt.Sprintf("frame %d: %s pins %d tx %d", buf.id, buf.block, buf.pins, buf.txnum)
}
