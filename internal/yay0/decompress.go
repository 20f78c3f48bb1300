package yay0

import (
	"encoding/binary"
	"fmt"

	"github.com/jchantrell/dolhouse/internal/cursor"
)

// Decompress expands a Yay0 image. Decoding stops as soon as the declared
// number of bytes has been produced, whatever the streams still hold.
func Decompress(data []byte) ([]byte, error) {
	hdr, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	mask := cursor.New(data, binary.BigEndian)
	link := cursor.New(data, binary.BigEndian)
	chunk := cursor.New(data, binary.BigEndian)

	if err := mask.Seek(HeaderSize); err != nil {
		return nil, fmt.Errorf("seeking to mask stream: %w", err)
	}
	if err := link.Seek(int(hdr.LinkOffset)); err != nil {
		return nil, fmt.Errorf("seeking to link stream: %w", err)
	}
	if err := chunk.Seek(int(hdr.ChunkOffset)); err != nil {
		return nil, fmt.Errorf("seeking to chunk stream: %w", err)
	}

	size := int(hdr.DecompressedSize)

	// every mask bit yields at most MaxMatch bytes, which bounds what a
	// truthful header can declare for this input
	out := make([]byte, 0, min(size, len(data)*8*MaxMatch))

	for len(out) < size {
		bits, err := mask.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("reading mask at output %d: %w", len(out), err)
		}

		for bit := 7; bit >= 0 && len(out) < size; bit-- {
			if bits&(1<<bit) != 0 {
				b, err := chunk.ReadU8()
				if err != nil {
					return nil, fmt.Errorf("reading literal at output %d: %w", len(out), err)
				}
				out = append(out, b)
				continue
			}

			word, err := link.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("reading back-reference at output %d: %w", len(out), err)
			}

			dist := int(word&0x0fff) + 1
			length := int(word >> 12)
			if length == 0 {
				extra, err := chunk.ReadU8()
				if err != nil {
					return nil, fmt.Errorf("reading extended length at output %d: %w", len(out), err)
				}
				length = int(extra) + ExtendedThreshold
			} else {
				length += 2
			}

			if dist > len(out) {
				return nil, fmt.Errorf("back-reference distance %d exceeds %d decoded bytes: %w", dist, len(out), cursor.ErrFormat)
			}

			// source and destination overlap whenever dist < length
			for i := 0; i < length && len(out) < size; i++ {
				out = append(out, out[len(out)-dist])
			}
		}
	}

	return out, nil
}
