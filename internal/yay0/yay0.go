// Package yay0 implements the Yay0 compression format used for GameCube
// archives and assets.
//
// A Yay0 image is a 16-byte header followed by three streams:
//
//   - a mask bitstream, one bit per token, packed MSB-first into big-endian
//     32-bit words. A set bit selects a literal, a clear bit a back-reference;
//   - a link stream of big-endian 16-bit back-references. The low 12 bits hold
//     distance-1, the high 4 bits length-2. A zero length nibble means the
//     length is 18 plus the next byte of the chunk stream;
//   - a chunk stream of literal bytes interleaved with extended lengths.
//
// The link and chunk streams start at absolute offsets stored in the header
// and are consumed independently, front to back.
package yay0

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jchantrell/dolhouse/internal/cursor"
)

const (
	// Magic is the signature at the start of every Yay0 image.
	Magic = "Yay0"

	// HeaderSize is the size of the fixed header; the mask stream follows it.
	HeaderSize = 0x10

	// WindowSize is how far back a back-reference may reach.
	WindowSize = 0x1000

	// MinMatch is the shortest run the compressor encodes as a back-reference.
	MinMatch = 3

	// MaxMatch is the longest run a single back-reference can express.
	MaxMatch = 0x111

	// ExtendedThreshold is the shortest length stored in the chunk stream
	// instead of the link word.
	ExtendedThreshold = 0x12
)

// ErrBadMagic is returned when a buffer does not start with Magic.
var ErrBadMagic = fmt.Errorf("bad yay0 magic: %w", cursor.ErrFormat)

// Header is the fixed Yay0 header. Both offsets are absolute.
type Header struct {
	DecompressedSize uint32
	LinkOffset       uint32
	ChunkOffset      uint32
}

// IsCompressed reports whether data starts with the Yay0 magic.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Magic))
}

// ReadHeader validates the magic and decodes the header fields.
func ReadHeader(data []byte) (Header, error) {
	c := cursor.New(data, binary.BigEndian)

	magic, err := c.ReadFixedString(len(Magic))
	if err != nil {
		return Header{}, fmt.Errorf("reading yay0 magic: %w", err)
	}
	if magic != Magic {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, magic)
	}

	fields, err := c.ReadU32s(3)
	if err != nil {
		return Header{}, fmt.Errorf("reading yay0 header: %w", err)
	}

	return Header{
		DecompressedSize: fields[0],
		LinkOffset:       fields[1],
		ChunkOffset:      fields[2],
	}, nil
}
