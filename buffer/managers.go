package buffer

import "github.com/cs4432/simpledb/types"

type fileManager interface {
	BlockSize() int
	Read(block types.Block, page *types.Page) error
	Write(block types.Block, page *types.Page) error
	Append(filename string) (types.Block, error)
}

type logManager interface {
	Flush(lsn int) error
}

// PageFormatter writes the initial layout of a freshly appended block.
type PageFormatter interface {
	Format(page *types.Page)
}

// PageFormatterFunc adapts a function to a PageFormatter.
type PageFormatterFunc func(page *types.Page)

func (f PageFormatterFunc) Format(page *types.Page) {
	f(page)
}
