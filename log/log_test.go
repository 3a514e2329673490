package log_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/cs4432/simpledb/file"
	"github.com/cs4432/simpledb/log"
	"github.com/cs4432/simpledb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	logfile   = "testlog"
	blockSize = 400
)

func TestLog(t *testing.T) {
	t.Parallel()

	fman, err := file.NewFileManager(t.TempDir(), blockSize)
	require.NoError(t, err)
	t.Cleanup(func() { fman.Close() })

	lm, err := log.NewLogManager(fman, logfile)
	require.NoError(t, err)

	populateLogManager(t, lm, 1, 35)
	testLogIteration(t, lm, 35)
	populateLogManager(t, lm, 36, 70)

	require.NoError(t, lm.Flush(65))
	testLogIteration(t, lm, 70)

	size, err := fman.Size(logfile)
	require.NoError(t, err)
	assert.Greater(t, size, types.Long(1), "expected the log to span more than one block")
}

func TestLogReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fman, err := file.NewFileManager(dir, blockSize)
	require.NoError(t, err)
	t.Cleanup(func() { fman.Close() })

	lm, err := log.NewLogManager(fman, logfile)
	require.NoError(t, err)

	populateLogManager(t, lm, 1, 20)
	require.NoError(t, lm.Flush(20))

	reopened, err := log.NewLogManager(fman, logfile)
	require.NoError(t, err)

	populateLogManager(t, reopened, 21, 30)
	testLogIteration(t, reopened, 30)
}

func TestLogRecordTooLarge(t *testing.T) {
	t.Parallel()

	fman, err := file.NewFileManager(t.TempDir(), blockSize)
	require.NoError(t, err)
	t.Cleanup(func() { fman.Close() })

	lm, err := log.NewLogManager(fman, logfile)
	require.NoError(t, err)

	// random bytes do not compress, so the record exceeds a block once encoded
	big := make([]byte, blockSize)
	rand.New(rand.NewSource(1)).Read(big)

	_, err = lm.Append(big)
	assert.ErrorIs(t, err, log.ErrRecordTooLarge)

	// compressible records larger than a block are fine
	lsn, err := lm.Append(bytes.Repeat([]byte{'a'}, 2*blockSize))
	require.NoError(t, err)
	assert.Equal(t, 1, lsn)
}

func makeLogKey(idx int) string {
	return fmt.Sprintf("record_%d", idx)
}

func makeLogVal(idx int) int {
	return idx + 100
}

// testLogIteration verifies that logs are returned in a LIFO manner
func testLogIteration(t *testing.T, lm *log.Manager, from int) {
	t.Helper()

	iter, err := lm.Iterator()
	require.NoError(t, err)

	f := from
	for iter.HasNext() {
		record, err := iter.Next()
		require.NoError(t, err)

		page := types.NewPageWithSlice(record)

		s := page.String(0)
		require.Equal(t, makeLogKey(f), s)

		v := page.Int(types.MaxLength(len(s)))
		require.Equal(t, makeLogVal(f), v)

		f--
	}

	assert.Equal(t, 0, f, "expected every record to be visited")
}

// populateLogManager appends logs of format K -> V to the logfile
func populateLogManager(t *testing.T, lm *log.Manager, start, end int) {
	t.Helper()

	for i := start; i <= end; i++ {
		record := createLogRecord(makeLogKey(i), makeLogVal(i))
		lsn, err := lm.Append(record)
		require.NoError(t, err)
		require.Positive(t, lsn)
	}
}

func createLogRecord(s string, val int) []byte {
	npos := types.MaxLength(len(s))
	b := make([]byte, npos+types.IntSize)
	page := types.NewPageWithSlice(b)
	page.SetString(0, s)
	page.SetInt(npos, val)
	return b
}
