package tx

import (
	"fmt"

	"github.com/cs4432/simpledb/buffer"
	"github.com/cs4432/simpledb/log"
	"github.com/cs4432/simpledb/types"
)

type logManager interface {
	Flush(lsn int) error
	Append(record []byte) (int, error)
	Iterator() (*log.Iterator, error)
}

// recoveryManager manages transaction recovery from the WAL.
// The recoveryManager has three roles:
// 1. to write WAL records
// 2. to rollback transactions
// 3. to recover the database after a system crash
type recoveryManager struct {
	lm    logManager
	bm    *buffer.BufferManager
	tx    Transaction
	txnum types.TxID
}

// newRecoveryManagerForTx returns a recovery manager for the given transaction and txnum,
// and writes the START record of the transaction.
func newRecoveryManagerForTx(tx Transaction, txnum types.TxID, lm logManager, bm *buffer.BufferManager) (recoveryManager, error) {
	man := recoveryManager{
		lm:    lm,
		bm:    bm,
		tx:    tx,
		txnum: txnum,
	}

	if _, err := logStart(lm, txnum); err != nil {
		return recoveryManager{}, fmt.Errorf("log start of tx %d: %w", txnum, err)
	}

	return man, nil
}

// setInt writes a SETINT record to the log and returns its lsn.
// The record holds the value found at offset before the update,
// so that it can be restored on rollback.
func (man recoveryManager) setInt(buff *buffer.Buffer, offset int) (int, error) {
	oldval := buff.Contents().Int(offset)
	return logSetInt(man.lm, man.txnum, buff.Block(), offset, oldval)
}

// setString writes a SETSTRING record holding the value found at offset to the log and returns its lsn.
func (man recoveryManager) setString(buff *buffer.Buffer, offset int) (int, error) {
	oldval := buff.Contents().String(offset)
	return logSetString(man.lm, man.txnum, buff.Block(), offset, oldval)
}

// commit flushes the buffers modified by the transaction,
// then writes a commit record to the log and flushes it to disk
func (man recoveryManager) commit() error {
	if err := man.bm.FlushAll(man.txnum); err != nil {
		return err
	}

	lsn, err := logCommit(man.lm, man.txnum)
	if err != nil {
		return err
	}

	return man.lm.Flush(lsn)
}

// rollback undoes the transaction, then writes a rollback record to the log and flushes it to disk
func (man recoveryManager) rollback() error {
	if err := man.doRollback(); err != nil {
		return err
	}

	if err := man.bm.FlushAll(man.txnum); err != nil {
		return err
	}

	lsn, err := logRollback(man.lm, man.txnum)
	if err != nil {
		return err
	}

	return man.lm.Flush(lsn)
}

// doRollback rolls the transaction back by iterating through log records
// until it finds the transaction's START record, calling Undo for each of the TX log records.
func (man recoveryManager) doRollback() error {
	reader, err := man.lm.Iterator()
	if err != nil {
		return err
	}

	for reader.HasNext() {
		// the log is read from the most recent record
		bytes, err := reader.Next()
		if err != nil {
			return err
		}

		record, err := createLogRecord(bytes)
		if err != nil {
			return err
		}

		if record.TxNumber() != man.txnum {
			continue
		}

		if record.Op() == START {
			return nil
		}

		if err := record.Undo(man.tx); err != nil {
			return fmt.Errorf("undo %s: %w", record, err)
		}
	}

	return nil
}

// recover recovers uncompleted transactions from the log
// and then writes a quiescent checkpoint record to the log and flushes it.
// Returns the highest transaction number found in the log.
func (man recoveryManager) recover() (types.TxID, error) {
	maxTx, err := man.doRecover()
	if err != nil {
		return 0, err
	}

	if err := man.bm.FlushAll(man.txnum); err != nil {
		return 0, err
	}

	lsn, err := logCheckpoint(man.lm)
	if err != nil {
		return 0, err
	}

	return maxTx, man.lm.Flush(lsn)
}

// doRecover does a complete database recovery.
// The method iterates through the log records.
// Whenever it finds a log record for an unfinished transaction,
// it calls undo() on that record.
// The method stops when it encounters a CHECKPOINT record or the end of the log file
func (man recoveryManager) doRecover() (types.TxID, error) {
	finishedTxs := map[types.TxID]struct{}{}
	reader, err := man.lm.Iterator()
	if err != nil {
		return 0, err
	}

	var maxTxNum types.TxID
	for reader.HasNext() {
		bytes, err := reader.Next()
		if err != nil {
			return 0, err
		}

		record, err := createLogRecord(bytes)
		if err != nil {
			return 0, err
		}

		if record.Op() == CHECKPOINT {
			return maxTxNum, nil
		}

		txNum := record.TxNumber()
		if txNum > maxTxNum && txNum != man.txnum {
			maxTxNum = txNum
		}

		switch record.Op() {
		case COMMIT, ROLLBACK:
			finishedTxs[txNum] = struct{}{}
		default:
			if _, ok := finishedTxs[txNum]; ok {
				continue
			}

			if err := record.Undo(man.tx); err != nil {
				return 0, fmt.Errorf("undo %s: %w", record, err)
			}
		}
	}

	return maxTxNum, nil
}
