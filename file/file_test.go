package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cs4432/simpledb/file"
	"github.com/cs4432/simpledb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	t.Parallel()

	const blockfile = "testblock"
	const blockSize = 400

	t.Run("pages are written and read back", func(t *testing.T) {
		t.Parallel()
		fman, err := file.NewFileManager(t.TempDir(), blockSize)
		require.NoError(t, err)
		t.Cleanup(func() { fman.Close() })

		block := types.NewBlock(blockfile, 2)
		page := types.NewPageWithSize(fman.BlockSize())

		pos := 88

		const val = "abcdefghilmno"
		const intv = 352
		page.SetString(pos, val)

		pos2 := pos + types.MaxLength(len(val))
		page.SetInt(pos2, intv)

		require.NoError(t, fman.Write(block, page))

		p2 := types.NewPageWithSize(fman.BlockSize())
		require.NoError(t, fman.Read(block, p2))

		assert.Equal(t, intv, p2.Int(pos2))
		assert.Equal(t, val, p2.String(pos))

		size, err := fman.Size(blockfile)
		require.NoError(t, err)
		assert.Equal(t, types.Long(3), size)
	})

	t.Run("reading past the end of file yields an empty page", func(t *testing.T) {
		t.Parallel()
		fman, err := file.NewFileManager(t.TempDir(), blockSize)
		require.NoError(t, err)
		t.Cleanup(func() { fman.Close() })

		p := types.NewPageWithSize(fman.BlockSize())
		p.SetInt(0, 99)

		require.NoError(t, fman.Read(types.NewBlock(blockfile, 10), p))
		assert.Equal(t, 0, p.Int(0))
	})

	t.Run("append grows the file one block at a time", func(t *testing.T) {
		t.Parallel()
		fman, err := file.NewFileManager(t.TempDir(), blockSize)
		require.NoError(t, err)
		t.Cleanup(func() { fman.Close() })

		for i := 0; i < 3; i++ {
			blk, err := fman.Append(blockfile)
			require.NoError(t, err)
			assert.Equal(t, types.Long(i), blk.Number())
		}

		size, err := fman.Size(blockfile)
		require.NoError(t, err)
		assert.Equal(t, types.Long(3), size)
	})

	t.Run("the EOF marker block cannot be read", func(t *testing.T) {
		t.Parallel()
		fman, err := file.NewFileManager(t.TempDir(), blockSize)
		require.NoError(t, err)
		t.Cleanup(func() { fman.Close() })

		p := types.NewPageWithSize(fman.BlockSize())
		err = fman.Read(types.NewBlock(blockfile, types.EOF), p)
		assert.ErrorIs(t, err, file.ErrBlockOutOfRange)
	})

	t.Run("new and existing folders", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "db")

		fman, err := file.NewFileManager(dir, blockSize)
		require.NoError(t, err)
		assert.True(t, fman.IsNew())
		assert.Equal(t, dir, fman.Folder())
		require.NoError(t, fman.Close())

		tmp := filepath.Join(dir, "__tmp_1")
		require.NoError(t, os.WriteFile(tmp, []byte("x"), 0o644))

		fman, err = file.NewFileManager(dir, blockSize)
		require.NoError(t, err)
		assert.False(t, fman.IsNew())
		require.NoError(t, fman.Close())

		_, err = os.Stat(tmp)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
