package tx

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cs4432/simpledb/buffer"
	"github.com/cs4432/simpledb/file"
	"github.com/cs4432/simpledb/types"
)

// ErrBlockNotPinned is returned when a transaction accesses a block it has not pinned.
var ErrBlockNotPinned = errors.New("tx: block not pinned")

var nextTxNum atomic.Uint32

type Transaction interface {
	// ID returns the transaction id
	ID() types.TxID

	// Commit commits the current transaction
	// Flushes all the modified buffers and their log records
	// writes and flushes a commit record to the log
	// and finally unpins any pinned buffers.
	Commit() error

	// Rollback rolls back the current transaction:
	// it undoes any modified values,
	// flushes the underlying buffers
	// writes and flushes a rollback record to the log
	// and finally unpins any pinned buffers
	Rollback() error

	// Recover flushes all the modified buffers then goes through the log
	// rolling back all uncommitted transactions.
	// Finally, it writes a quiescent checkpoint record to the log.
	// This method is called during system startup, before user transactions begin.
	Recover() error

	// Pin pins the specified block.
	// The transaction wraps and manages the buffer for the client.
	// If every buffer is pinned, Pin waits for one to be released,
	// until ctx is done or MaxPinWait elapses. In that case it returns ErrPinTimeout.
	Pin(ctx context.Context, block types.Block) error

	// PinNew appends a new block to the file, formats it with fmtr and pins it.
	// It waits for a buffer as Pin does.
	PinNew(ctx context.Context, fname string, fmtr buffer.PageFormatter) (types.Block, error)

	// Unpin unpins the specified block.
	// The transaction looks up the buffer pinned to this block and unpins it
	Unpin(block types.Block)

	// Int returns the integer value stored at the specified offset of the specified block.
	// Returns ErrBlockNotPinned if the transaction has not pinned the block.
	Int(block types.Block, offset int) (int, error)

	// String returns the string value stored at offset of the given block.
	// Returns ErrBlockNotPinned if the transaction has not pinned the block.
	String(block types.Block, offset int) (string, error)

	// SetInt stores an integer at the specified offset of the given block.
	// If shouldLog is true, it first creates a SETINT log record holding the previous value.
	// Then it writes the value to the underlying buffer, passing in the log sequence number
	SetInt(block types.Block, offset int, val int, shouldLog bool) error

	// SetString stores a string at the specified offset of the given block.
	// If shouldLog is true, it first creates a SETSTRING log record holding the previous value.
	// Then it writes the value to the underlying buffer, passing in the log sequence number.
	SetString(block types.Block, offset int, val string, shouldLog bool) error

	// Size returns the number of blocks in the specified file.
	Size(fname string) (types.Long, error)

	// Append appends a new block to the end of the specific file and returns a reference to it
	Append(fname string) (types.Block, error)

	// BlockSize returns the size of a block
	BlockSize() int
}

// incrTxNum generates transaction ids
func incrTxNum() types.TxID {
	return types.TxID(nextTxNum.Add(1))
}

// advanceTxNum makes sure that the next generated id is greater than txnum.
func advanceTxNum(txnum types.TxID) {
	for {
		cur := nextTxNum.Load()
		if cur >= uint32(txnum) || nextTxNum.CompareAndSwap(cur, uint32(txnum)) {
			return
		}
	}
}

var _ Transaction = (*transactionImpl)(nil)

type transactionImpl struct {
	bufMan     *buffer.BufferManager
	fileMan    *file.FileManager
	recoverMan recoveryManager
	buffers    bufferList
	num        types.TxID
}

// NewTx starts a new transaction, writing its START record to the log.
func NewTx(fm *file.FileManager, lm logManager, bm *buffer.BufferManager) (Transaction, error) {
	tx := &transactionImpl{
		bufMan:  bm,
		fileMan: fm,
		num:     incrTxNum(),
		buffers: makeBufferList(bm),
	}

	rm, err := newRecoveryManagerForTx(tx, tx.num, lm, bm)
	if err != nil {
		return nil, err
	}
	tx.recoverMan = rm

	return tx, nil
}

func (tx *transactionImpl) ID() types.TxID {
	return tx.num
}

func (tx *transactionImpl) Commit() error {
	if err := tx.recoverMan.commit(); err != nil {
		return fmt.Errorf("commit tx %d: %w", tx.num, err)
	}

	tx.buffers.unpinAll()
	return nil
}

func (tx *transactionImpl) Rollback() error {
	if err := tx.recoverMan.rollback(); err != nil {
		return fmt.Errorf("rollback tx %d: %w", tx.num, err)
	}

	tx.buffers.unpinAll()
	return nil
}

func (tx *transactionImpl) Recover() error {
	if err := tx.bufMan.FlushAll(tx.num); err != nil {
		return err
	}

	maxTx, err := tx.recoverMan.recover()
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}

	// set the next tx number past the transactions found in the log
	advanceTxNum(maxTx)
	return nil
}

func (tx *transactionImpl) Pin(ctx context.Context, block types.Block) error {
	return tx.buffers.pin(ctx, block)
}

func (tx *transactionImpl) PinNew(ctx context.Context, fname string, fmtr buffer.PageFormatter) (types.Block, error) {
	return tx.buffers.pinNew(ctx, fname, fmtr)
}

func (tx *transactionImpl) Unpin(block types.Block) {
	tx.buffers.unpin(block)
}

func (tx *transactionImpl) pinned(block types.Block) (*buffer.Buffer, error) {
	buf := tx.buffers.buffer(block)
	if buf == nil {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotPinned, block)
	}

	return buf, nil
}

func (tx *transactionImpl) Int(block types.Block, offset int) (int, error) {
	buf, err := tx.pinned(block)
	if err != nil {
		return 0, err
	}

	return buf.Contents().Int(offset), nil
}

func (tx *transactionImpl) String(block types.Block, offset int) (string, error) {
	buf, err := tx.pinned(block)
	if err != nil {
		return "", err
	}

	return buf.Contents().String(offset), nil
}

func (tx *transactionImpl) SetInt(block types.Block, offset int, val int, shouldLog bool) error {
	buf, err := tx.pinned(block)
	if err != nil {
		return err
	}

	lsn := -1
	if shouldLog {
		if lsn, err = tx.recoverMan.setInt(buf, offset); err != nil {
			return err
		}
	}

	buf.Contents().SetInt(offset, val)
	// flag the underlying buffer as dirty to signal that a flush might be needed
	buf.SetModified(tx.num, lsn)
	return nil
}

func (tx *transactionImpl) SetString(block types.Block, offset int, val string, shouldLog bool) error {
	buf, err := tx.pinned(block)
	if err != nil {
		return err
	}

	lsn := -1
	if shouldLog {
		if lsn, err = tx.recoverMan.setString(buf, offset); err != nil {
			return err
		}
	}

	buf.Contents().SetString(offset, val)
	buf.SetModified(tx.num, lsn)
	return nil
}

func (tx *transactionImpl) Size(fname string) (types.Long, error) {
	return tx.fileMan.Size(fname)
}

func (tx *transactionImpl) Append(fname string) (types.Block, error) {
	return tx.fileMan.Append(fname)
}

func (tx *transactionImpl) BlockSize() int {
	return tx.fileMan.BlockSize()
}
