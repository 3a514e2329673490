package types

import (
	"fmt"
	"math"
)

// EOF is the block number used to address the end of a file,
// e.g. when locking a file against appends.
const EOF = Long(math.MaxUint64)

// Long is the type of block numbers and file sizes, in blocks.
type Long uint64

// BlockID is the string key of a block, stable across processes.
type BlockID string

// Block identifies a fixed-size block within a named file.
// Blocks are values: two blocks are equal if they point to
// the same block number of the same file.
type Block struct {
	id       BlockID
	filename string
	number   Long
}

func NewBlock(filename string, number Long) Block {
	return Block{
		filename: filename,
		number:   number,
		id:       BlockID(fmt.Sprintf("f:%sb:%d", filename, number)),
	}
}

func (bid Block) ID() BlockID {
	return bid.id
}

func (bid Block) FileName() string {
	return bid.filename
}

func (bid Block) Number() Long {
	return bid.number
}

func (bid Block) Equals(other Block) bool {
	return bid.filename == other.filename && bid.number == other.number
}

func (bid Block) String() string {
	return fmt.Sprintf("file %q block %d", bid.filename, bid.number)
}
