package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	t.Parallel()

	t.Run("ints are read back", func(t *testing.T) {
		t.Parallel()
		page := NewPageWithSize(1024)

		nums := []int{256, 123, 1, 0, 10000000, -16543}
		for i, n := range nums {
			page.SetInt(i*IntSize, n)
		}

		for i, n := range nums {
			assert.Equal(t, n, page.Int(i*IntSize))
		}
	})

	t.Run("strings are length prefixed", func(t *testing.T) {
		t.Parallel()
		page := NewPageWithSize(1024)

		const v = "this is a test"
		const v2 = "this is another test"

		page.SetString(0, v)
		off := MaxLength(len(v))
		page.SetString(off, v2)

		assert.Equal(t, v, page.String(0))
		assert.Equal(t, v2, page.String(off))
	})

	t.Run("writes past the end of the page panic", func(t *testing.T) {
		t.Parallel()
		page := NewPageWithSize(16)

		require.Panics(t, func() { page.SetInt(9, 1) })
		require.Panics(t, func() { page.SetString(0, "too long for this page") })
	})

	t.Run("clear zeroes the page", func(t *testing.T) {
		t.Parallel()
		page := NewPageWithSize(32)
		page.SetInt(8, 42)
		page.Clear()

		assert.Equal(t, 0, page.Int(8))
	})
}

func TestBlock(t *testing.T) {
	t.Parallel()

	a := NewBlock("data.tbl", 3)
	b := NewBlock("data.tbl", 3)
	c := NewBlock("data.tbl", 4)

	assert.True(t, a.Equals(b))
	assert.Equal(t, a, b)
	assert.Equal(t, a.ID(), b.ID())
	assert.False(t, a.Equals(c))
	assert.NotEqual(t, a.ID(), c.ID())
	assert.Equal(t, `file "data.tbl" block 3`, a.String())
}
