package tx

import (
	"fmt"

	"github.com/cs4432/simpledb/types"
)

type logRecord interface {
	// Op returns the log record's type
	Op() txType

	// TxNumber returns the tx id stored with the log record
	TxNumber() types.TxID

	// Undo undoes the operation encoded by this log record.
	Undo(tx Transaction) error
}

type txType int

const (
	CHECKPOINT txType = iota
	START
	COMMIT
	ROLLBACK
	SETINT
	SETSTRING
)

var txTypeNames = [...]string{
	CHECKPOINT: "CHECKPOINT",
	START:      "START",
	COMMIT:     "COMMIT",
	ROLLBACK:   "ROLLBACK",
	SETINT:     "SETINT",
	SETSTRING:  "SETSTRING",
}

func (t txType) String() string {
	if t < 0 || int(t) >= len(txTypeNames) {
		return fmt.Sprintf("txType(%d)", int(t))
	}

	return txTypeNames[t]
}

// Every record starts with its type, followed by the transaction number.
const (
	opPos = 0
	txPos = opPos + types.IntSize
)

func createLogRecord(bytes []byte) (logRecord, error) {
	if len(bytes) < types.IntSize {
		return nil, fmt.Errorf("log record too short: %d bytes", len(bytes))
	}

	p := types.NewPageWithSlice(bytes)
	switch op := txType(p.Int(opPos)); op {
	case CHECKPOINT:
		return checkpointLogRecord{}, nil
	case START:
		return newStartLogRecord(p), nil
	case COMMIT:
		return newCommitRecord(p), nil
	case ROLLBACK:
		return newRollbackRecord(p), nil
	case SETINT:
		return newSetIntRecord(p), nil
	case SETSTRING:
		return newSetStringRecord(p), nil
	default:
		return nil, fmt.Errorf("unknown log record %s", op)
	}
}

// logTxRecord builds the records made only of their type and transaction number.
func logTxRecord(op txType, txnum types.TxID) []byte {
	record := make([]byte, 2*types.IntSize)
	p := types.NewPageWithSlice(record)
	p.SetInt(opPos, int(op))
	p.SetInt(txPos, int(txnum))
	return record
}
