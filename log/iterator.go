package log

import (
	"fmt"

	"github.com/cs4432/simpledb/types"
	"github.com/golang/snappy"
)

// Iterator walks the log backwards, from the most recent record to the first one.
type Iterator struct {
	fm         fileManager
	block      types.Block
	page       *types.Page
	currentPos int
}

func newIterator(fm fileManager, start types.Block) (*Iterator, error) {
	it := &Iterator{
		fm:    fm,
		block: start,
		page:  types.NewPageWithSize(fm.BlockSize()),
	}

	if err := it.moveToBlock(start); err != nil {
		return nil, err
	}

	return it, nil
}

func (it *Iterator) HasNext() bool {
	return it.currentPos < it.fm.BlockSize() || it.block.Number() > 0
}

// Next returns the next record, decompressed.
func (it *Iterator) Next() ([]byte, error) {
	if it.currentPos == it.fm.BlockSize() {
		// we are at the end of the block, read the previous one
		prev := types.NewBlock(it.block.FileName(), it.block.Number()-1)
		if err := it.moveToBlock(prev); err != nil {
			return nil, err
		}
	}

	encoded := it.page.Bytes(it.currentPos)
	it.currentPos += types.MaxLength(len(encoded))

	record, err := snappy.Decode(nil, encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupt log record in %s: %w", it.block, err)
	}

	return record, nil
}

func (it *Iterator) moveToBlock(block types.Block) error {
	if err := it.fm.Read(block, it.page); err != nil {
		return fmt.Errorf("read log block: %w", err)
	}

	it.block = block
	it.currentPos = it.page.Int(0)
	return nil
}
