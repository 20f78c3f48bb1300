// Package cursor provides position-tracking readers and writers over byte
// buffers. Every format in the toolkit (archives, compressed blobs, property
// tables) is decoded through a Cursor and encoded through a Writer, so bounds
// checking and byte order handling live in one place.
package cursor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Cursor reads from a borrowed byte slice. The position is always within
// [0, len(buf)] and no read ever returns fewer bytes than requested.
type Cursor struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

// New creates a cursor over buf using the given byte order.
func New(buf []byte, order binary.ByteOrder) *Cursor {
	if order == nil {
		order = binary.BigEndian
	}
	return &Cursor{buf: buf, order: order}
}

// Position returns the current offset from the start of the buffer.
func (c *Cursor) Position() int {
	return c.pos
}

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of bytes between the position and the end.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Bytes returns the underlying buffer.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Order returns the byte order used for multi-byte values.
func (c *Cursor) Order() binary.ByteOrder {
	return c.order
}

// Seek moves to an absolute offset. Seeking to exactly Len() is allowed.
func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.buf) {
		return fmt.Errorf("seek to %d in buffer of %d bytes: %w", offset, len(c.buf), ErrOutOfRange)
	}
	c.pos = offset
	return nil
}

// SeekRelative moves delta bytes from the current position.
func (c *Cursor) SeekRelative(delta int) error {
	return c.Seek(c.pos + delta)
}

// SeekFromEnd moves to offset bytes before the end of the buffer.
func (c *Cursor) SeekFromEnd(offset int) error {
	return c.Seek(len(c.buf) - offset)
}

// Read returns the next n bytes in storage order and advances past them.
// The returned slice aliases the buffer.
func (c *Cursor) Read(n int) ([]byte, error) {
	if n < 0 || n > len(c.buf)-c.pos {
		return nil, fmt.Errorf("read %d bytes at %d in buffer of %d bytes: %w", n, c.pos, len(c.buf), ErrOutOfRange)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadS8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.Read(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) ReadS16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.Read(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) ReadS32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadU64() (uint64, error) {
	b, err := c.Read(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(b), nil
}

func (c *Cursor) ReadS64() (int64, error) {
	v, err := c.ReadU64()
	return int64(v), err
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

func (c *Cursor) ReadF64() (float64, error) {
	v, err := c.ReadU64()
	return math.Float64frombits(v), err
}

// ReadFixedString reads exactly n bytes as text. Trailing NUL padding is kept;
// callers that store padded names trim it themselves.
func (c *Cursor) ReadFixedString(n int) (string, error) {
	b, err := c.Read(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadCString reads up to, but not including, the next zero byte and leaves
// the position just past the terminator.
func (c *Cursor) ReadCString() (string, error) {
	i := bytes.IndexByte(c.buf[c.pos:], 0)
	if i < 0 {
		return "", fmt.Errorf("unterminated string at %d: %w", c.pos, ErrOutOfRange)
	}
	s := string(c.buf[c.pos : c.pos+i])
	c.pos += i + 1
	return s, nil
}

// CStringAt reads a NUL-terminated string at offset without moving the cursor.
func (c *Cursor) CStringAt(offset int) (string, error) {
	return ReadAt(c, offset, (*Cursor).ReadCString)
}

// ReadAt saves the cursor position, seeks to offset, runs fn and restores the
// saved position whether or not fn succeeds. Calls nest freely.
func ReadAt[T any](c *Cursor, offset int, fn func(*Cursor) (T, error)) (T, error) {
	saved := c.pos
	defer func() { c.pos = saved }()

	if err := c.Seek(offset); err != nil {
		var zero T
		return zero, err
	}
	return fn(c)
}
