package tx

import (
	"context"
	"fmt"

	"github.com/cs4432/simpledb/types"
)

type setIntLogRecord struct {
	txnum  types.TxID
	offset int
	block  types.Block
	val    int
}

// newSetIntRecord reads a SETINT record from p.
// The layout is described in logSetInt.
func newSetIntRecord(p *types.Page) setIntLogRecord {
	const fpos = txPos + types.IntSize

	si := setIntLogRecord{}
	si.txnum = types.TxID(p.Int(txPos))
	fname := p.String(fpos)

	bpos := fpos + types.MaxLength(len(fname))
	si.block = types.NewBlock(fname, types.Long(p.Int(bpos)))

	opos := bpos + types.IntSize
	si.offset = p.Int(opos)

	vpos := opos + types.IntSize
	si.val = p.Int(vpos)

	return si
}

func (si setIntLogRecord) Op() txType {
	return SETINT
}

func (si setIntLogRecord) TxNumber() types.TxID {
	return si.txnum
}

func (si setIntLogRecord) String() string {
	return fmt.Sprintf("<SETINT %d %s %d %d>", si.txnum, si.block, si.offset, si.val)
}

// Undo restores the value saved in the log record.
// The method pins a buffer to the specified block, calls tx.SetInt to restore the saved value,
// and unpins the buffer. The restore is not logged.
func (si setIntLogRecord) Undo(tx Transaction) error {
	if err := tx.Pin(context.Background(), si.block); err != nil {
		return err
	}
	defer tx.Unpin(si.block)

	return tx.SetInt(si.block, si.offset, si.val, false)
}

// logSetInt appends an int record to the log file.
// An int log entry has the following layout:
// | log type | tx number | filename | block number | offset | value |
func logSetInt(lm logManager, txnum types.TxID, block types.Block, offset int, val int) (int, error) {
	// precompute all the record offsets
	// filename
	const fpos = txPos + types.IntSize
	// block id number
	bpos := fpos + types.MaxLength(len(block.FileName()))
	// offset
	opos := bpos + types.IntSize
	// value
	vpos := opos + types.IntSize
	vlen := vpos + types.IntSize

	record := make([]byte, vlen)

	page := types.NewPageWithSlice(record)
	page.SetInt(opPos, int(SETINT))
	page.SetInt(txPos, int(txnum))
	page.SetString(fpos, block.FileName())
	page.SetInt(bpos, int(block.Number()))
	page.SetInt(opos, offset)
	page.SetInt(vpos, val)

	return lm.Append(record)
}
