// test package includes common methods to run tests.
// It should not be included in release builds
package test

import (
	"testing"

	"github.com/cs4432/simpledb/buffer"
	"github.com/cs4432/simpledb/file"
	"github.com/cs4432/simpledb/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	logfile          = "testlog"
	blockSize        = 400
	buffersAvailable = 3
)

type Conf struct {
	DbFolder         string
	LogFile          string
	BlockFile        string
	BlockSize        int
	BuffersAvailable int
	Policy           buffer.Policy
}

// DefaultConfig returns a configuration rooted in a temporary folder.
// BlockFile is unique for every call.
func DefaultConfig(t *testing.T) Conf {
	return Conf{
		DbFolder:         t.TempDir(),
		LogFile:          logfile,
		BlockFile:        "testfile-" + uuid.NewString(),
		BlockSize:        blockSize,
		BuffersAvailable: buffersAvailable,
		Policy:           buffer.PolicyBasic,
	}
}

func MakeManagers(t *testing.T) (*file.FileManager, *log.Manager, *buffer.BufferManager) {
	return MakeManagersWithConfig(t, DefaultConfig(t))
}

func MakeManagersWithConfig(t *testing.T, conf Conf) (*file.FileManager, *log.Manager, *buffer.BufferManager) {
	t.Helper()

	fm, err := file.NewFileManager(conf.DbFolder, conf.BlockSize)
	require.NoError(t, err)
	t.Cleanup(func() {
		fm.Close()
	})

	lm, err := log.NewLogManager(fm, conf.LogFile)
	require.NoError(t, err)

	bm := buffer.NewBufferManager(fm, lm, conf.BuffersAvailable, buffer.WithPolicy(conf.Policy))

	return fm, lm, bm
}
