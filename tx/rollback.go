package tx

import (
	"fmt"

	"github.com/cs4432/simpledb/types"
)

type rollbackLogRecord struct {
	txnum types.TxID
}

func newRollbackRecord(p *types.Page) rollbackLogRecord {
	return rollbackLogRecord{
		txnum: types.TxID(p.Int(txPos)),
	}
}

func (record rollbackLogRecord) Op() txType {
	return ROLLBACK
}

func (record rollbackLogRecord) TxNumber() types.TxID {
	return record.txnum
}

func (record rollbackLogRecord) Undo(Transaction) error {
	// do nothing
	return nil
}

func (record rollbackLogRecord) String() string {
	return fmt.Sprintf("<ROLLBACK %d>", record.txnum)
}

func logRollback(lm logManager, txnum types.TxID) (int, error) {
	return lm.Append(logTxRecord(ROLLBACK, txnum))
}
