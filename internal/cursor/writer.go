package cursor

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Writer is the output counterpart of Cursor. Writes overwrite bytes at the
// position and grow the buffer when they run past its end.
type Writer struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

// NewWriter creates an empty writer using the given byte order.
func NewWriter(order binary.ByteOrder) *Writer {
	if order == nil {
		order = binary.BigEndian
	}
	return &Writer{order: order}
}

func (w *Writer) Position() int {
	return w.pos
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written buffer. It is only valid until the next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Seek moves to an absolute offset within the written data.
func (w *Writer) Seek(offset int) error {
	if offset < 0 || offset > len(w.buf) {
		return fmt.Errorf("seek to %d in output of %d bytes: %w", offset, len(w.buf), ErrOutOfRange)
	}
	w.pos = offset
	return nil
}

func (w *Writer) SeekRelative(delta int) error {
	return w.Seek(w.pos + delta)
}

func (w *Writer) SeekFromEnd(offset int) error {
	return w.Seek(len(w.buf) - offset)
}

// Write copies b at the current position, extending the buffer if needed.
func (w *Writer) Write(b []byte) (int, error) {
	end := w.pos + len(b)
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, end, max(end, 2*cap(w.buf)))
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:end]
		}
	}
	copy(w.buf[w.pos:], b)
	w.pos = end
	return len(b), nil
}

func (w *Writer) write(b []byte) error {
	_, err := w.Write(b)
	return err
}

func (w *Writer) WriteU8(v uint8) error {
	return w.write([]byte{v})
}

func (w *Writer) WriteS8(v int8) error {
	return w.WriteU8(uint8(v))
}

func (w *Writer) WriteU16(v uint16) error {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	return w.write(b[:])
}

func (w *Writer) WriteS16(v int16) error {
	return w.WriteU16(uint16(v))
}

func (w *Writer) WriteU32(v uint32) error {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	return w.write(b[:])
}

func (w *Writer) WriteS32(v int32) error {
	return w.WriteU32(uint32(v))
}

func (w *Writer) WriteU64(v uint64) error {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	return w.write(b[:])
}

func (w *Writer) WriteS64(v int64) error {
	return w.WriteU64(uint64(v))
}

func (w *Writer) WriteF32(v float32) error {
	return w.WriteU32(math.Float32bits(v))
}

func (w *Writer) WriteF64(v float64) error {
	return w.WriteU64(math.Float64bits(v))
}

// WriteFixedString writes s into a field of exactly n bytes, zero padded.
func (w *Writer) WriteFixedString(s string, n int) error {
	if len(s) > n {
		return fmt.Errorf("string of %d bytes does not fit field of %d: %w", len(s), n, ErrOutOfRange)
	}
	b := make([]byte, n)
	copy(b, s)
	return w.write(b)
}

// WriteCString writes s followed by a zero byte. s may not contain a zero
// byte itself.
func (w *Writer) WriteCString(s string) error {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return fmt.Errorf("string %q has a zero byte at %d: %w", s, i, ErrUnsupportedValue)
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return w.write(b)
}

func (w *Writer) WriteU16s(vs []uint16) error {
	for _, v := range vs {
		if err := w.WriteU16(v); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) WriteU32s(vs []uint32) error {
	for _, v := range vs {
		if err := w.WriteU32(v); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) WriteF32s(vs []float32) error {
	for _, v := range vs {
		if err := w.WriteF32(v); err != nil {
			return err
		}
	}
	return nil
}

// Align pads with zero bytes until the position is a multiple of n.
func (w *Writer) Align(n int) error {
	if n <= 0 {
		return nil
	}
	if rem := w.pos % n; rem != 0 {
		return w.write(make([]byte, n-rem))
	}
	return nil
}

// WriteAt saves the position, seeks to offset, runs fn and restores the saved
// position. It is used to back-patch offsets once they are known.
func WriteAt(w *Writer, offset int, fn func(*Writer) error) error {
	saved := w.pos
	defer func() { w.pos = saved }()

	if err := w.Seek(offset); err != nil {
		return err
	}
	return fn(w)
}
