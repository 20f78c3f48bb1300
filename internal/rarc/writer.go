package rarc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jchantrell/dolhouse/internal/cursor"
)

// stringTable deduplicates names and remembers their offsets.
type stringTable struct {
	w       *cursor.Writer
	offsets map[string]uint32
}

func newStringTable() (*stringTable, error) {
	st := &stringTable{
		w:       cursor.NewWriter(binary.BigEndian),
		offsets: make(map[string]uint32),
	}
	// the game expects the two links first
	for _, link := range []string{".", ".."} {
		if _, err := st.add(link); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (st *stringTable) add(name string) (uint32, error) {
	if off, ok := st.offsets[name]; ok {
		return off, nil
	}
	off := uint32(st.w.Len())
	if err := st.w.WriteCString(name); err != nil {
		return 0, fmt.Errorf("adding name %q: %w", name, err)
	}
	st.offsets[name] = off
	return off, nil
}

// Marshal serializes an archive. Offsets, lengths, counts and the string
// table are recomputed from the tree; identifiers, hashes, file indices,
// entry types, first entry indices and reserved fields are written back as
// they are so a parsed archive round-trips. Entries are laid out in node
// order, which is the order Read consumes them in.
func Marshal(a *Archive) ([]byte, error) {
	st, err := newStringTable()
	if err != nil {
		return nil, err
	}
	nodeNames := make([]uint32, len(a.Nodes))
	entryNames := make([][]uint32, len(a.Nodes))

	var entryCount, fileCount int
	for i := range a.Nodes {
		n := &a.Nodes[i]
		if len(n.Entries) > math.MaxUint16 {
			return nil, fmt.Errorf("node %q has %d entries: %w", n.Name, len(n.Entries), cursor.ErrUnsupportedValue)
		}
		if nodeNames[i], err = st.add(n.Name); err != nil {
			return nil, err
		}
		entryNames[i] = make([]uint32, len(n.Entries))
		for j := range n.Entries {
			e := &n.Entries[j]
			if entryNames[i][j], err = st.add(e.Name); err != nil {
				return nil, err
			}
			if e.IsFile() {
				fileCount++
			}
		}
		entryCount += len(n.Entries)
	}
	if st.w.Len() > math.MaxUint16+1 {
		return nil, fmt.Errorf("string table of %d bytes exceeds 16-bit name offsets: %w", st.w.Len(), cursor.ErrUnsupportedValue)
	}
	if err := st.w.Align(alignment); err != nil {
		return nil, err
	}

	nodeStart := HeaderSize + InfoSize
	entryStart := alignUp(nodeStart+len(a.Nodes)*NodeSize, alignment)
	stringStart := alignUp(entryStart+entryCount*EntrySize, alignment)
	dataStart := stringStart + st.w.Len()

	w := cursor.NewWriter(binary.BigEndian)

	// file payloads first so their offsets are known when entries are written
	if _, err := w.Write(make([]byte, dataStart)); err != nil {
		return nil, err
	}
	dataOffsets := make([][]uint32, len(a.Nodes))
	for i := range a.Nodes {
		dataOffsets[i] = make([]uint32, len(a.Nodes[i].Entries))
		for j := range a.Nodes[i].Entries {
			e := &a.Nodes[i].Entries[j]
			if !e.IsFile() {
				continue
			}
			dataOffsets[i][j] = uint32(w.Position() - dataStart)
			if _, err := w.Write(e.Data); err != nil {
				return nil, err
			}
			if err := w.Align(alignment); err != nil {
				return nil, err
			}
		}
	}
	dataLength := w.Len() - dataStart

	err = cursor.WriteAt(w, 0, func(w *cursor.Writer) error {
		h := a.Header
		if _, err := w.Write([]byte(Magic)); err != nil {
			return err
		}
		if err := w.WriteU32s([]uint32{
			uint32(w.Len()),
			HeaderSize,
			uint32(dataStart - HeaderSize),
			uint32(dataLength),
		}); err != nil {
			return err
		}
		if err := w.WriteU32s(h.Reserved[:]); err != nil {
			return err
		}

		info := a.Info
		if err := w.WriteU32s([]uint32{
			uint32(len(a.Nodes)),
			uint32(nodeStart - HeaderSize),
			uint32(entryCount),
			uint32(entryStart - HeaderSize),
			uint32(st.w.Len()),
			uint32(stringStart - HeaderSize),
		}); err != nil {
			return err
		}
		if err := w.WriteU16s([]uint16{uint16(fileCount), info.SyncIDs}); err != nil {
			return err
		}
		return w.WriteU32(info.Reserved)
	})
	if err != nil {
		return nil, fmt.Errorf("writing rarc header: %w", err)
	}

	err = cursor.WriteAt(w, nodeStart, func(w *cursor.Writer) error {
		for i := range a.Nodes {
			n := &a.Nodes[i]
			if _, err := w.Write(n.ID[:]); err != nil {
				return err
			}
			if err := w.WriteU32(nodeNames[i]); err != nil {
				return err
			}
			if err := w.WriteU16s([]uint16{n.Hash, uint16(len(n.Entries))}); err != nil {
				return err
			}
			if err := w.WriteU32(n.FirstEntryIndex); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing node table: %w", err)
	}

	err = cursor.WriteAt(w, entryStart, func(w *cursor.Writer) error {
		for i := range a.Nodes {
			for j := range a.Nodes[i].Entries {
				e := &a.Nodes[i].Entries[j]
				offset, length := e.DataOffset, e.DataLength
				if e.IsFile() {
					offset, length = dataOffsets[i][j], uint32(len(e.Data))
				}
				if err := w.WriteU16s([]uint16{e.Index, e.Hash, e.Type, uint16(entryNames[i][j])}); err != nil {
					return err
				}
				if err := w.WriteU32s([]uint32{offset, length, e.Reserved}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing entry table: %w", err)
	}

	err = cursor.WriteAt(w, stringStart, func(w *cursor.Writer) error {
		_, err := w.Write(st.w.Bytes())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("writing string table: %w", err)
	}

	return w.Bytes(), nil
}

func alignUp(n, to int) int {
	return (n + to - 1) / to * to
}
