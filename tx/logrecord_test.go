package tx

import (
	"testing"

	"github.com/cs4432/simpledb/log"
	"github.com/cs4432/simpledb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLog keeps appended records in memory.
type recordingLog struct {
	records [][]byte
}

func (l *recordingLog) Append(rec []byte) (int, error) {
	l.records = append(l.records, rec)
	return len(l.records), nil
}

func (l *recordingLog) Flush(int) error {
	return nil
}

func (l *recordingLog) Iterator() (*log.Iterator, error) {
	panic("not implemented")
}

func TestLogRecords(t *testing.T) {
	const txNum types.TxID = 123
	block := types.NewBlock("records", 7)

	lm := &recordingLog{}

	_, err := logStart(lm, txNum)
	require.NoError(t, err)
	_, err = logSetInt(lm, txNum, block, 12, -5)
	require.NoError(t, err)
	_, err = logSetString(lm, txNum, block, 40, "this is the old val")
	require.NoError(t, err)
	_, err = logCommit(lm, txNum)
	require.NoError(t, err)
	_, err = logRollback(lm, txNum)
	require.NoError(t, err)
	lsn, err := logCheckpoint(lm)
	require.NoError(t, err)
	assert.Equal(t, 6, lsn)

	exp := []struct {
		op  txType
		tx  types.TxID
		str string
	}{
		{START, txNum, "<START 123>"},
		{SETINT, txNum, `<SETINT 123 file "records" block 7 12 -5>`},
		{SETSTRING, txNum, `<SETSTRING 123 file "records" block 7 40 this is the old val>`},
		{COMMIT, txNum, "<COMMIT 123>"},
		{ROLLBACK, txNum, "<ROLLBACK 123>"},
		{CHECKPOINT, types.NoTx, "<CHECKPOINT>"},
	}

	require.Len(t, lm.records, len(exp))
	for i, e := range exp {
		rec, err := createLogRecord(lm.records[i])
		require.NoError(t, err)

		assert.Equal(t, e.op, rec.Op())
		assert.Equal(t, e.tx, rec.TxNumber())
		assert.Equal(t, e.str, rec.(interface{ String() string }).String())
	}

	si, err := createLogRecord(lm.records[1])
	require.NoError(t, err)
	assert.Equal(t, block, si.(setIntLogRecord).block)
}

func TestCreateLogRecordErrors(t *testing.T) {
	_, err := createLogRecord([]byte{1, 2})
	assert.Error(t, err)

	bad := make([]byte, types.IntSize)
	types.NewPageWithSlice(bad).SetInt(0, 42)
	_, err = createLogRecord(bad)
	assert.ErrorContains(t, err, "txType(42)")
}
