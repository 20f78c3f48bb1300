package yay0

import (
	"encoding/binary"
	"fmt"

	"github.com/jchantrell/dolhouse/internal/cursor"
)

// match describes a run found earlier in the window.
type match struct {
	distance int // bytes back from the current position
	length   int
}

// findMatch returns the longest run in src[windowStart:pos] that repeats at
// pos. Candidates are scanned front to back and only a strictly longer run
// replaces the best one, so ties go to the furthest candidate. The run may
// extend past pos, which the decoder reproduces by copying byte by byte.
func findMatch(src []byte, pos, windowStart int) match {
	limit := min(MaxMatch, len(src)-pos)

	var best match
	for start := windowStart; start < pos; start++ {
		n := 0
		for n < limit && src[start+n] == src[pos+n] {
			n++
		}
		if n > best.length {
			best = match{distance: pos - start, length: n}
			if n == limit {
				break
			}
		}
	}
	return best
}

// Compress encodes src as a Yay0 image using a greedy longest-match search
// over a 4 KiB window.
func Compress(src []byte) ([]byte, error) {
	var (
		masks  []uint32
		links  []uint16
		chunks []byte

		word   uint32
		tokens uint
	)

	pushBit := func(literal bool) {
		if literal {
			word |= 1 << (31 - tokens)
		}
		tokens++
		if tokens == 32 {
			masks = append(masks, word)
			word, tokens = 0, 0
		}
	}

	for pos := 0; pos < len(src); {
		m := findMatch(src, pos, max(0, pos-WindowSize))

		if m.length < MinMatch {
			pushBit(true)
			chunks = append(chunks, src[pos])
			pos++
			continue
		}

		pushBit(false)
		dist := uint16(m.distance - 1)
		if m.length >= ExtendedThreshold {
			links = append(links, dist)
			chunks = append(chunks, byte(m.length-ExtendedThreshold))
		} else {
			links = append(links, uint16(m.length-2)<<12|dist)
		}
		pos += m.length
	}

	// final, zero padded word
	masks = append(masks, word)

	linkOffset := HeaderSize + 4*len(masks)
	chunkOffset := linkOffset + 2*len(links)

	w := cursor.NewWriter(binary.BigEndian)
	if err := writeImage(w, uint32(len(src)), uint32(linkOffset), uint32(chunkOffset), masks, links, chunks); err != nil {
		return nil, fmt.Errorf("writing yay0 image: %w", err)
	}
	return w.Bytes(), nil
}

func writeImage(w *cursor.Writer, size, linkOffset, chunkOffset uint32, masks []uint32, links []uint16, chunks []byte) error {
	if err := w.WriteFixedString(Magic, len(Magic)); err != nil {
		return err
	}
	if err := w.WriteU32s([]uint32{size, linkOffset, chunkOffset}); err != nil {
		return err
	}
	if err := w.WriteU32s(masks); err != nil {
		return err
	}
	if err := w.WriteU16s(links); err != nil {
		return err
	}
	_, err := w.Write(chunks)
	return err
}
