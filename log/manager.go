package log

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cs4432/simpledb/types"
	"github.com/golang/snappy"
)

var ErrRecordTooLarge = errors.New("log record does not fit in a block")

type fileManager interface {
	BlockSize() int
	Size(filename string) (types.Long, error)
	Read(block types.Block, page *types.Page) error
	Write(block types.Block, page *types.Page) error
	Append(filename string) (types.Block, error)
}

// Manager is the write ahead log of the system.
// Records are compressed with snappy before being written to the log page.
type Manager struct {
	fm           fileManager
	logfile      string
	logpage      *types.Page
	currentBlock types.Block
	latestLSN    int
	lastSavedLSN int
	sync.Mutex
}

func NewLogManager(fm fileManager, logfile string) (*Manager, error) {
	logsize, err := fm.Size(logfile)
	if err != nil {
		return nil, fmt.Errorf("log size: %w", err)
	}

	man := &Manager{
		fm:      fm,
		logfile: logfile,
		logpage: types.NewPageWithSize(fm.BlockSize()),
	}

	if logsize == 0 {
		// empty log, create a new one
		block, err := man.appendNewBlock()
		if err != nil {
			return nil, err
		}
		man.currentBlock = block
	} else {
		man.currentBlock = types.NewBlock(logfile, logsize-1)
		if err := fm.Read(man.currentBlock, man.logpage); err != nil {
			return nil, fmt.Errorf("read last log block: %w", err)
		}
	}

	return man, nil
}

// flush writes the contents of the logpage into the currentBlock
// and updates the lastSavedLSN id
func (man *Manager) flush() error {
	if err := man.fm.Write(man.currentBlock, man.logpage); err != nil {
		return fmt.Errorf("flush log: %w", err)
	}
	man.lastSavedLSN = man.latestLSN
	return nil
}

// Flush compares the requested Log Sequence Number
// with the latest that has been flushed to disk.
// If the requested LSN is greater than the latest dumped
// we need to access the disk and flush.
func (man *Manager) Flush(lsn int) error {
	man.Lock()
	defer man.Unlock()

	if lsn >= man.lastSavedLSN {
		return man.flush()
	}

	return nil
}

// Iterator flushes the log and returns an iterator over its records,
// from the most recent to the oldest.
func (man *Manager) Iterator() (*Iterator, error) {
	man.Lock()
	defer man.Unlock()

	if err := man.flush(); err != nil {
		return nil, err
	}

	return newIterator(man.fm, man.currentBlock)
}

// Append adds a record to the log page and returns its LSN.
// If the record does not fit, flushes the current contents into the current block
// and creates a new one to append data to.
// The page writes data starting from the end of the buffer and uses the first types.IntSize bytes to write an header
// that keeps track of where to prepend new records:
// ------
// head of the buffer -> | recpos | . . . . . . . | existing records | <- end of the buffer
//
//	      ^--------------------^
//	types.IntSize        value of recpos
//
// when a new record is inserted, its length is computed.
// if the record fits, its is prepended at the "recpos" index
// and recpos is updated.
func (man *Manager) Append(record []byte) (int, error) {
	encoded := snappy.Encode(nil, record)

	man.Lock()
	defer man.Unlock()

	bytesneeded := types.MaxLength(len(encoded))
	if bytesneeded+types.IntSize > man.fm.BlockSize() {
		return 0, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, bytesneeded)
	}

	// boundary contains the offset of the most recently added record
	spaceLeft := man.logpage.Int(0)

	// if the bytes needed to insert the record, PLUS the page header, are larger than the space left
	// the record won't fit.
	// In this case, flush the current page and move to the next block
	if bytesneeded+types.IntSize > spaceLeft {
		if err := man.flush(); err != nil {
			return 0, err
		}

		block, err := man.appendNewBlock()
		if err != nil {
			return 0, err
		}

		man.currentBlock = block
		spaceLeft = man.logpage.Int(0)
	}

	recpos := spaceLeft - bytesneeded
	man.logpage.SetBytes(recpos, encoded)
	man.logpage.SetInt(0, recpos)
	man.latestLSN++

	return man.latestLSN, nil
}

// appendNewBlock appends a new block to the logfile and writes an empty log page into it.
// The first IntSize bytes of the page hold the boundary of the most recent record.
func (man *Manager) appendNewBlock() (types.Block, error) {
	block, err := man.fm.Append(man.logfile)
	if err != nil {
		return types.Block{}, fmt.Errorf("append log block: %w", err)
	}

	man.logpage.Clear()
	man.logpage.SetInt(0, man.fm.BlockSize())

	if err := man.fm.Write(block, man.logpage); err != nil {
		return types.Block{}, fmt.Errorf("write log block: %w", err)
	}

	return block, nil
}
