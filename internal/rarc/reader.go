package rarc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/jchantrell/dolhouse/internal/cursor"
)

// ErrBadMagic is returned when a buffer does not start with Magic.
var ErrBadMagic = fmt.Errorf("bad rarc magic: %w", cursor.ErrFormat)

// reader carries the state of one parse. entry is the running position in
// the directory table; nodes consume their entries from it in table order.
type reader struct {
	c       *cursor.Cursor
	archive *Archive
	entry   uint32
}

// Read parses a complete archive image. File payloads are copied out of data
// so the returned archive does not alias it. Any malformed field aborts the
// parse; no partial archive is returned.
func Read(data []byte) (*Archive, error) {
	r := &reader{
		c:       cursor.New(data, binary.BigEndian),
		archive: &Archive{},
	}

	if err := r.readHeader(); err != nil {
		return nil, fmt.Errorf("reading rarc header: %w", err)
	}
	if err := r.readInfo(); err != nil {
		return nil, fmt.Errorf("reading rarc info block: %w", err)
	}
	if err := r.readNodes(); err != nil {
		return nil, err
	}

	return r.archive, nil
}

func (r *reader) readHeader() error {
	h := &r.archive.Header

	magic, err := r.c.Read(4)
	if err != nil {
		return err
	}
	if string(magic) != Magic {
		return fmt.Errorf("%w: %q", ErrBadMagic, magic)
	}
	copy(h.Magic[:], magic)

	fields, err := r.c.ReadU32s(7)
	if err != nil {
		return err
	}
	h.FileLength = fields[0]
	h.HeaderLength = fields[1]
	if h.DataOffset, err = absolute(fields[2]); err != nil {
		return fmt.Errorf("data offset: %w", err)
	}
	h.DataLength = fields[3]
	copy(h.Reserved[:], fields[4:])

	return nil
}

func (r *reader) readInfo() error {
	info := &r.archive.Info

	fields, err := r.c.ReadU32s(6)
	if err != nil {
		return err
	}
	info.NodeCount = fields[0]
	info.EntryCount = fields[2]
	info.StringTableLength = fields[4]
	if info.NodeOffset, err = absolute(fields[1]); err != nil {
		return fmt.Errorf("node offset: %w", err)
	}
	if info.EntryOffset, err = absolute(fields[3]); err != nil {
		return fmt.Errorf("entry offset: %w", err)
	}
	if info.StringTableOffset, err = absolute(fields[5]); err != nil {
		return fmt.Errorf("string table offset: %w", err)
	}

	if info.FileCount, err = r.c.ReadU16(); err != nil {
		return err
	}
	if info.SyncIDs, err = r.c.ReadU16(); err != nil {
		return err
	}
	if info.Reserved, err = r.c.ReadU32(); err != nil {
		return err
	}

	return nil
}

// absolute turns a stored offset, relative to the end of the header, into a
// buffer offset.
func absolute(offset uint32) (uint32, error) {
	if offset > math.MaxUint32-HeaderSize {
		return 0, fmt.Errorf("0x%x past the end of the address space: %w", offset, cursor.ErrOutOfRange)
	}
	return offset + HeaderSize, nil
}

func (r *reader) readNodes() error {
	info := &r.archive.Info

	if err := r.c.Seek(int(info.NodeOffset)); err != nil {
		return fmt.Errorf("seeking to node table: %w", err)
	}

	// refuse counts the buffer cannot hold before allocating for them
	if uint64(info.NodeCount)*NodeSize > uint64(r.c.Remaining()) {
		return fmt.Errorf("node table of %d nodes at 0x%x: %w", info.NodeCount, info.NodeOffset, cursor.ErrOutOfRange)
	}

	r.archive.Nodes = make([]Node, info.NodeCount)
	for i := range r.archive.Nodes {
		if err := r.readNode(&r.archive.Nodes[i]); err != nil {
			return fmt.Errorf("reading node %d: %w", i, err)
		}
	}

	if r.entry != info.EntryCount {
		slog.Debug("Nodes consumed a different number of entries than declared",
			"consumed", r.entry,
			"declared", info.EntryCount)
	}

	return nil
}

func (r *reader) readNode(n *Node) error {
	id, err := r.c.Read(4)
	if err != nil {
		return err
	}
	copy(n.ID[:], id)

	if n.NameOffset, err = r.c.ReadU32(); err != nil {
		return err
	}
	if n.Hash, err = r.c.ReadU16(); err != nil {
		return err
	}
	if n.EntryCount, err = r.c.ReadU16(); err != nil {
		return err
	}
	if n.FirstEntryIndex, err = r.c.ReadU32(); err != nil {
		return err
	}

	if n.FirstEntryIndex != r.entry {
		slog.Warn("Node entries are not stored where its first entry index points",
			"node", string(n.ID[:]),
			"first_entry_index", n.FirstEntryIndex,
			"sequential_index", r.entry)
	}

	start := int(r.archive.Info.EntryOffset) + int(r.entry)*EntrySize
	n.Entries, err = cursor.ReadAt(r.c, start, func(c *cursor.Cursor) ([]Entry, error) {
		entries := make([]Entry, 0, n.EntryCount)
		for i := 0; i < int(n.EntryCount); i++ {
			e, err := r.readEntry()
			if err != nil {
				return nil, fmt.Errorf("reading entry %d: %w", r.entry, err)
			}
			entries = append(entries, e)
			r.entry++
		}
		return entries, nil
	})
	if err != nil {
		return err
	}

	if n.Name, err = r.name(n.NameOffset); err != nil {
		return fmt.Errorf("resolving node name: %w", err)
	}

	return nil
}

func (r *reader) readEntry() (Entry, error) {
	var e Entry

	halves, err := r.c.ReadU16s(4)
	if err != nil {
		return e, err
	}
	e.Index = halves[0]
	e.Hash = halves[1]
	e.Type = halves[2]
	e.NameOffset = halves[3]

	words, err := r.c.ReadU32s(3)
	if err != nil {
		return e, err
	}
	e.DataOffset = words[0]
	e.DataLength = words[1]
	e.Reserved = words[2]

	if e.Name, err = r.name(uint32(e.NameOffset)); err != nil {
		return e, fmt.Errorf("resolving entry name: %w", err)
	}

	if e.IsFile() {
		offset := int(r.archive.Header.DataOffset) + int(e.DataOffset)
		payload, err := cursor.ReadAt(r.c, offset, func(c *cursor.Cursor) ([]byte, error) {
			return c.Read(int(e.DataLength))
		})
		if err != nil {
			return e, fmt.Errorf("reading payload of %q: %w", e.Name, err)
		}
		e.Data = bytes.Clone(payload)
	}

	return e, nil
}

// name resolves a string table offset without moving the cursor.
func (r *reader) name(offset uint32) (string, error) {
	return r.c.CStringAt(int(r.archive.Info.StringTableOffset) + int(offset))
}
