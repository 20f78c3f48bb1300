package cursor

import (
	"fmt"
	"math"
)

// readN reads n fixed-width values, failing before any decoding if the
// buffer cannot hold all of them.
func readN[T any](c *Cursor, n, width int, decode func([]byte) T) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative element count %d: %w", n, ErrOutOfRange)
	}
	if n > c.Remaining()/width {
		return nil, fmt.Errorf("read %d values of %d bytes at %d in buffer of %d bytes: %w", n, width, c.pos, len(c.buf), ErrOutOfRange)
	}
	b, err := c.Read(n * width)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		out[i] = decode(b[i*width:])
	}
	return out, nil
}

// ReadU16s reads n consecutive unsigned 16-bit values.
func (c *Cursor) ReadU16s(n int) ([]uint16, error) {
	return readN(c, n, 2, c.order.Uint16)
}

func (c *Cursor) ReadS16s(n int) ([]int16, error) {
	return readN(c, n, 2, func(b []byte) int16 { return int16(c.order.Uint16(b)) })
}

// ReadU32s reads n consecutive unsigned 32-bit values.
func (c *Cursor) ReadU32s(n int) ([]uint32, error) {
	return readN(c, n, 4, c.order.Uint32)
}

func (c *Cursor) ReadS32s(n int) ([]int32, error) {
	return readN(c, n, 4, func(b []byte) int32 { return int32(c.order.Uint32(b)) })
}

func (c *Cursor) ReadF32s(n int) ([]float32, error) {
	return readN(c, n, 4, func(b []byte) float32 { return math.Float32frombits(c.order.Uint32(b)) })
}
