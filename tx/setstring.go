package tx

import (
	"context"
	"fmt"

	"github.com/cs4432/simpledb/types"
)

type setStringLogRecord struct {
	txnum  types.TxID
	offset int
	block  types.Block
	val    string
}

// newSetStringRecord reads a SETSTRING record from p.
// The layout of a string log record is populated according to logSetString
func newSetStringRecord(p *types.Page) setStringLogRecord {
	const fpos = txPos + types.IntSize

	ss := setStringLogRecord{}
	ss.txnum = types.TxID(p.Int(txPos))

	fname := p.String(fpos)

	bpos := fpos + types.MaxLength(len(fname))
	ss.block = types.NewBlock(fname, types.Long(p.Int(bpos)))

	opos := bpos + types.IntSize
	ss.offset = p.Int(opos)

	vpos := opos + types.IntSize
	ss.val = p.String(vpos)

	return ss
}

func (ss setStringLogRecord) Op() txType {
	return SETSTRING
}

func (ss setStringLogRecord) TxNumber() types.TxID {
	return ss.txnum
}

func (ss setStringLogRecord) String() string {
	return fmt.Sprintf("<SETSTRING %d %s %d %s>", ss.txnum, ss.block, ss.offset, ss.val)
}

// Undo replaces the specified data value with the value saved in the log record.
// The method pins a buffer to the specified block, calls tx.SetString to restore the saved value,
// and unpins the buffer
func (ss setStringLogRecord) Undo(tx Transaction) error {
	if err := tx.Pin(context.Background(), ss.block); err != nil {
		return err
	}
	defer tx.Unpin(ss.block)

	return tx.SetString(ss.block, ss.offset, ss.val, false)
}

// logSetString appends a string record to the log file.
// A string log entry has the following layout:
// | log type | tx number | filename | block number | offset | value |
func logSetString(lm logManager, txnum types.TxID, block types.Block, offset int, val string) (int, error) {
	// filename
	const fpos = txPos + types.IntSize
	// block id number
	bpos := fpos + types.MaxLength(len(block.FileName()))
	// offset
	opos := bpos + types.IntSize
	// value
	vpos := opos + types.IntSize
	vlen := vpos + types.MaxLength(len(val))

	record := make([]byte, vlen)

	page := types.NewPageWithSlice(record)
	page.SetInt(opPos, int(SETSTRING))
	page.SetInt(txPos, int(txnum))
	page.SetString(fpos, block.FileName())
	page.SetInt(bpos, int(block.Number()))
	page.SetInt(opos, offset)
	page.SetString(vpos, val)

	return lm.Append(record)
}
