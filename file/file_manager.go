package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cs4432/simpledb/types"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	tmpTablePrefix = "__tmp_"
	TmpTablePrefix = tmpTablePrefix + "%d"
)

var ErrBlockOutOfRange = errors.New("block number out of range")

// FileManager implements methods that read and write pages to disk blocks.
// It always reads and writes a block-sized number of bytes from a file, always at a block bounduary.
// This ensures that each call to read, write or append will incur exactly one disk access.
type FileManager struct {
	folder    string
	blockSize int
	isNew     bool
	// maps a file name to an open file.
	// files are opened in RWS mode
	openFiles *xsync.MapOf[string, *os.File]
	// serialises appends, so that two callers never get the same new block
	appendMu sync.Mutex
}

// NewFileManager opens the database folder at path, creating it if it does not exist.
// Temporary table files left over by a previous run are removed.
func NewFileManager(path string, blockSize int) (*FileManager, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}

	_, err := os.Stat(path)
	isNew := errors.Is(err, os.ErrNotExist)
	if !isNew && err != nil {
		return nil, fmt.Errorf("stat database folder: %w", err)
	}

	if isNew {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create database folder: %w", err)
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read database folder: %w", err)
	}

	for _, v := range entries {
		if strings.HasPrefix(v.Name(), tmpTablePrefix) {
			fn := filepath.Join(path, v.Name())
			if err := os.Remove(fn); err != nil {
				return nil, fmt.Errorf("remove temporary file %q: %w", fn, err)
			}
		}
	}

	return &FileManager{
		folder:    path,
		blockSize: blockSize,
		isNew:     isNew,
		openFiles: xsync.NewMapOf[string, *os.File](),
	}, nil
}

func (manager *FileManager) getFile(fname string) (*os.File, error) {
	if f, ok := manager.openFiles.Load(fname); ok {
		return f, nil
	}

	p := filepath.Join(manager.folder, fname)
	table, err := os.OpenFile(p, os.O_CREATE|os.O_RDWR|os.O_SYNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", fname, err)
	}

	f, loaded := manager.openFiles.LoadOrStore(fname, table)
	if loaded {
		// somebody else opened the same file in the meantime
		table.Close()
	}

	return f, nil
}

// Folder is the path of the database folder.
func (manager *FileManager) Folder() string {
	return manager.folder
}

// IsNew reports whether the database folder was created by this manager.
func (manager *FileManager) IsNew() bool {
	return manager.isNew
}

func (manager *FileManager) BlockSize() int {
	return manager.blockSize
}

func (manager *FileManager) offset(blk types.Block) (int64, error) {
	if blk.Number() == types.EOF {
		return 0, fmt.Errorf("%s: %w", blk, ErrBlockOutOfRange)
	}

	return int64(blk.Number()) * int64(manager.blockSize), nil
}

// Read reads the content of block blk into page p.
// Reading past the end of the file yields a zeroed page.
func (manager *FileManager) Read(blk types.Block, p *types.Page) error {
	f, err := manager.getFile(blk.FileName())
	if err != nil {
		return err
	}

	off, err := manager.offset(blk)
	if err != nil {
		return err
	}

	// io.EOF is returned if we are reading too far into the file. This is ok, as we can read an empty block into the page
	n, err := f.ReadAt(p.Contents(), off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read %s: %w", blk, err)
	}

	clear(p.Contents()[n:])

	return nil
}

// Write writes page p to block blk
func (manager *FileManager) Write(blk types.Block, p *types.Page) error {
	f, err := manager.getFile(blk.FileName())
	if err != nil {
		return err
	}

	off, err := manager.offset(blk)
	if err != nil {
		return err
	}

	if _, err := f.WriteAt(p.Contents(), off); err != nil {
		return fmt.Errorf("write %s: %w", blk, err)
	}

	return nil
}

// Size returns the size, in blocks, of the given file
func (manager *FileManager) Size(filename string) (types.Long, error) {
	f, err := manager.getFile(filename)
	if err != nil {
		return 0, err
	}

	finfo, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", filename, err)
	}

	return types.Long(finfo.Size() / int64(manager.blockSize)), nil
}

// Append extends the file by one zeroed block and returns it.
func (manager *FileManager) Append(fname string) (types.Block, error) {
	manager.appendMu.Lock()
	defer manager.appendMu.Unlock()

	newBlkNum, err := manager.Size(fname)
	if err != nil {
		return types.Block{}, err
	}

	block := types.NewBlock(fname, newBlkNum)
	buf := make([]byte, manager.blockSize)

	f, err := manager.getFile(fname)
	if err != nil {
		return types.Block{}, err
	}

	if _, err := f.WriteAt(buf, int64(block.Number())*int64(manager.blockSize)); err != nil {
		return types.Block{}, fmt.Errorf("append to %q: %w", fname, err)
	}

	return block, nil
}

// Close closes every open file.
func (manager *FileManager) Close() error {
	var errs []error
	manager.openFiles.Range(func(name string, f *os.File) bool {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
		manager.openFiles.Delete(name)
		return true
	})

	return errors.Join(errs...)
}
