package tx

import (
	"fmt"

	"github.com/cs4432/simpledb/types"
)

type startLogRecord struct {
	txnum types.TxID
}

func newStartLogRecord(p *types.Page) startLogRecord {
	return startLogRecord{
		txnum: types.TxID(p.Int(txPos)),
	}
}

func (record startLogRecord) Op() txType {
	return START
}

func (record startLogRecord) TxNumber() types.TxID {
	return record.txnum
}

func (record startLogRecord) Undo(Transaction) error {
	// do nothing
	return nil
}

func (record startLogRecord) String() string {
	return fmt.Sprintf("<START %d>", record.txnum)
}

func logStart(lm logManager, txnum types.TxID) (int, error) {
	return lm.Append(logTxRecord(START, txnum))
}
