package tx

import "github.com/cs4432/simpledb/types"

// checkpointLogRecord marks a point in the log before which every transaction
// has completed.
type checkpointLogRecord struct{}

func (record checkpointLogRecord) Op() txType {
	return CHECKPOINT
}

func (record checkpointLogRecord) TxNumber() types.TxID {
	return types.NoTx
}

func (record checkpointLogRecord) Undo(Transaction) error {
	// do nothing
	return nil
}

func (record checkpointLogRecord) String() string {
	return "<CHECKPOINT>"
}

func logCheckpoint(lm logManager) (int, error) {
	record := make([]byte, types.IntSize)
	p := types.NewPageWithSlice(record)
	p.SetInt(opPos, int(CHECKPOINT))
	return lm.Append(record)
}
