package cursor

import (
	"encoding/binary"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_ScalarReads(t *testing.T) {
	buf := []byte{
		0x12, 0x34, 0x56, 0x78,
		0x9a, 0xbc, 0xde, 0xf0,
	}

	tests := []struct {
		name  string
		order binary.ByteOrder
		u16   uint16
		u32   uint32
		u64   uint64
	}{
		{"big endian", binary.BigEndian, 0x1234, 0x12345678, 0x123456789abcdef0},
		{"little endian", binary.LittleEndian, 0x3412, 0x78563412, 0xf0debc9a78563412},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(buf, tt.order)

			u16, err := c.ReadU16()
			require.NoError(t, err)
			assert.Equal(t, tt.u16, u16)
			assert.Equal(t, 2, c.Position())

			require.NoError(t, c.Seek(0))
			u32, err := c.ReadU32()
			require.NoError(t, err)
			assert.Equal(t, tt.u32, u32)

			require.NoError(t, c.Seek(0))
			u64, err := c.ReadU64()
			require.NoError(t, err)
			assert.Equal(t, tt.u64, u64)
			assert.Equal(t, 0, c.Remaining())
		})
	}
}

func TestCursor_SignedAndFloat(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	require.NoError(t, w.WriteS8(-2))
	require.NoError(t, w.WriteS16(-300))
	require.NoError(t, w.WriteS32(-70000))
	require.NoError(t, w.WriteS64(math.MinInt64))
	require.NoError(t, w.WriteF32(1.5))
	require.NoError(t, w.WriteF64(-0.25))

	c := New(w.Bytes(), binary.BigEndian)

	s8, err := c.ReadS8()
	require.NoError(t, err)
	assert.Equal(t, int8(-2), s8)

	s16, err := c.ReadS16()
	require.NoError(t, err)
	assert.Equal(t, int16(-300), s16)

	s32, err := c.ReadS32()
	require.NoError(t, err)
	assert.Equal(t, int32(-70000), s32)

	s64, err := c.ReadS64()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), s64)

	f32, err := c.ReadF32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)

	f64, err := c.ReadF64()
	require.NoError(t, err)
	assert.Equal(t, -0.25, f64)
}

func TestCursor_ReadIsStorageOrder(t *testing.T) {
	c := New([]byte{1, 2, 3, 4}, binary.BigEndian)
	b, err := c.Read(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, b)
}

func TestCursor_OutOfRange(t *testing.T) {
	c := New([]byte{1, 2, 3}, binary.BigEndian)

	_, err := c.ReadU32()
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 0, c.Position(), "failed read must not move the cursor")

	_, err = c.Read(-1)
	require.ErrorIs(t, err, ErrOutOfRange)

	require.ErrorIs(t, c.Seek(4), ErrOutOfRange)
	require.ErrorIs(t, c.Seek(-1), ErrOutOfRange)
	require.ErrorIs(t, c.SeekFromEnd(4), ErrOutOfRange)

	require.NoError(t, c.Seek(3), "seeking to the end is valid")
	b, err := c.Read(0)
	require.NoError(t, err)
	assert.Empty(t, b)

	require.NoError(t, c.SeekFromEnd(1))
	assert.Equal(t, 2, c.Position())
	require.NoError(t, c.SeekRelative(-2))
	assert.Equal(t, 0, c.Position())
	require.ErrorIs(t, c.SeekRelative(-1), ErrOutOfRange)
}

func TestCursor_Strings(t *testing.T) {
	c := New([]byte("ROOT\x00abc\x00tail"), binary.BigEndian)

	s, err := c.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "ROOT", s)
	assert.Equal(t, 5, c.Position())

	s, err = c.ReadFixedString(3)
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	require.NoError(t, c.SeekRelative(1))
	_, err = c.ReadCString()
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 9, c.Position())
}

func TestCursor_ReadAtRestoresPosition(t *testing.T) {
	c := New([]byte("\x00\x00\x00\x08\x00\x00\x00\x0dname\x00inner\x00"), binary.BigEndian)
	require.NoError(t, c.Seek(2))

	name, err := ReadAt(c, 0, func(c *Cursor) (string, error) {
		off, err := c.ReadU32()
		if err != nil {
			return "", err
		}
		outer, err := c.CStringAt(int(off))
		if err != nil {
			return "", err
		}
		innerOff, err := c.ReadU32()
		if err != nil {
			return "", err
		}
		inner, err := ReadAt(c, int(innerOff), (*Cursor).ReadCString)
		if err != nil {
			return "", err
		}
		assert.Equal(t, 8, c.Position(), "nested read must restore the outer position")
		return outer + "/" + inner, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "name/inner", name)
	assert.Equal(t, 2, c.Position())

	_, err = ReadAt(c, 100, (*Cursor).ReadU8)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 2, c.Position())

	_, err = ReadAt(c, 16, (*Cursor).ReadU64)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 2, c.Position(), "failing callback must still restore")
}

func TestCursor_Arrays(t *testing.T) {
	w := NewWriter(binary.LittleEndian)
	require.NoError(t, w.WriteU16s([]uint16{1, 0xffff}))
	require.NoError(t, w.WriteU32s([]uint32{7, 0x80000000}))
	require.NoError(t, w.WriteF32s([]float32{0.5, -2}))

	c := New(w.Bytes(), binary.LittleEndian)

	u16s, err := c.ReadU16s(2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 0xffff}, u16s)

	require.NoError(t, c.Seek(0))
	s16s, err := c.ReadS16s(2)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -1}, s16s)

	u32s, err := c.ReadU32s(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7}, u32s)

	s32s, err := c.ReadS32s(1)
	require.NoError(t, err)
	assert.Equal(t, []int32{math.MinInt32}, s32s)

	f32s, err := c.ReadF32s(2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -2}, f32s)

	require.NoError(t, c.Seek(0))
	_, err = c.ReadU32s(6)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 0, c.Position())
}

func TestCursor_ArrayCountOverflow(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("needs 64-bit int")
	}
	c := New(make([]byte, 16), binary.BigEndian)

	// 4 * (2^62 + 1) wraps to 4
	shift := 62
	n := 1<<shift + 1
	_, err := c.ReadU32s(n)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = c.ReadU16s(n)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 0, c.Position())
}

func TestWriter_RoundTripBitForBit(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		src := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}
		c := New(src, order)
		v64, err := c.ReadU64()
		require.NoError(t, err)

		w := NewWriter(order)
		require.NoError(t, w.WriteU64(v64))
		assert.Equal(t, src, w.Bytes(), order.String())
	}
}

func TestWriter_OverwriteAndBackPatch(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	require.NoError(t, w.WriteU32(0)) // placeholder
	require.NoError(t, w.WriteCString("abc"))
	require.NoError(t, w.Align(0x10))
	assert.Equal(t, 0x10, w.Len())

	err := WriteAt(w, 0, func(w *Writer) error {
		return w.WriteU32(0xcafebabe)
	})
	require.NoError(t, err)
	assert.Equal(t, 0x10, w.Position())
	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe, 'a', 'b', 'c', 0}, w.Bytes()[:8])

	require.ErrorIs(t, WriteAt(w, 0x11, func(*Writer) error { return nil }), ErrOutOfRange)
	require.ErrorIs(t, w.WriteFixedString("toolong", 4), ErrOutOfRange)
	require.ErrorIs(t, w.WriteCString("a\x00b"), ErrUnsupportedValue)
	assert.Equal(t, 0x10, w.Len())

	require.NoError(t, w.SeekFromEnd(4))
	require.NoError(t, w.WriteFixedString("RARC", 8))
	assert.Equal(t, 0x14, w.Len())
}
