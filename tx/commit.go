package tx

import (
	"fmt"

	"github.com/cs4432/simpledb/types"
)

type commitLogRecord struct {
	txnum types.TxID
}

func newCommitRecord(p *types.Page) commitLogRecord {
	return commitLogRecord{
		txnum: types.TxID(p.Int(txPos)),
	}
}

func (record commitLogRecord) Op() txType {
	return COMMIT
}

func (record commitLogRecord) TxNumber() types.TxID {
	return record.txnum
}

func (record commitLogRecord) Undo(Transaction) error {
	// do nothing
	return nil
}

func (record commitLogRecord) String() string {
	return fmt.Sprintf("<COMMIT %d>", record.txnum)
}

func logCommit(lm logManager, txnum types.TxID) (int, error) {
	return lm.Append(logTxRecord(COMMIT, txnum))
}
