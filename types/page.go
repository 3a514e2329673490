package types

import (
	"encoding/binary"
	"fmt"
)

// IntSize is the number of bytes used to encode an int in a page.
const IntSize = 8

// Page holds the contents of a block in memory.
// Integers are stored little endian on IntSize bytes.
// Bytes and strings are prefixed by their length.
type Page struct {
	buf []byte
}

func NewPageWithSize(size int) *Page {
	return &Page{
		buf: make([]byte, size),
	}
}

// NewPageWithSlice wraps buf. The page writes through to the slice.
func NewPageWithSlice(buf []byte) *Page {
	return &Page{
		buf: buf,
	}
}

func (p *Page) assertSize(offset int, size int) {
	if offset < 0 || offset+size > len(p.buf) {
		panic(fmt.Sprintf("data out of page bounds. offset: %d length: %d. Max page size is %d", offset, size, len(p.buf)))
	}
}

// Contents returns the raw bytes of the page.
func (p *Page) Contents() []byte {
	return p.buf
}

// Size is the size of the page in bytes.
func (p *Page) Size() int {
	return len(p.buf)
}

// Clear zeroes the page.
func (p *Page) Clear() {
	clear(p.buf)
}

// SetBytes writes a byte slice at the provided offset, prefixed by its length.
func (p *Page) SetBytes(offset int, data []byte) {
	p.assertSize(offset, MaxLength(len(data)))
	binary.LittleEndian.PutUint64(p.buf[offset:], uint64(len(data)))
	copy(p.buf[offset+IntSize:], data)
}

// Bytes returns the byte slice stored at offset.
// The returned slice aliases the page.
func (p *Page) Bytes(offset int) []byte {
	p.assertSize(offset, IntSize)
	size := int(binary.LittleEndian.Uint64(p.buf[offset:]))
	from := offset + IntSize
	p.assertSize(from, size)
	return p.buf[from : from+size]
}

func (p *Page) SetInt(offset int, val int) {
	p.assertSize(offset, IntSize)
	binary.LittleEndian.PutUint64(p.buf[offset:], uint64(val))
}

func (p *Page) Int(offset int) int {
	p.assertSize(offset, IntSize)
	return int(int64(binary.LittleEndian.Uint64(p.buf[offset:])))
}

func (p *Page) SetString(offset int, v string) {
	p.SetBytes(offset, []byte(v))
}

func (p *Page) String(offset int) string {
	return string(p.Bytes(offset))
}

// MaxLength returns the size of an encoded string or byte slice of length strlen
func MaxLength(strlen int) int {
	return strlen + IntSize
}
