package rarc

import "strings"

// Fixed sizes and markers of the RARC layout.
const (
	Magic = "RARC"

	HeaderSize = 0x20
	InfoSize   = 0x20
	NodeSize   = 0x10
	EntrySize  = 0x14

	// EntryTypeFile marks an entry that carries a payload.
	EntryTypeFile uint16 = 0x1100
	// EntryTypeFolder marks an entry that points at a child node.
	EntryTypeFolder uint16 = 0x0200

	// NoIndex is the file index stored on folder entries.
	NoIndex uint16 = 0xffff
	// NoNode is the node index stored on the ".." entry of the root node.
	NoNode uint32 = 0xffffffff

	// alignment of every section and of each file payload
	alignment = 0x20
)

// Header is the first block of an archive. DataOffset is absolute once read.
type Header struct {
	Magic        [4]byte
	FileLength   uint32
	HeaderLength uint32
	DataOffset   uint32
	DataLength   uint32
	Reserved     [3]uint32
}

// InfoBlock follows the header and locates the tables. All offsets are
// absolute once read.
type InfoBlock struct {
	NodeCount         uint32
	NodeOffset        uint32
	EntryCount        uint32
	EntryOffset       uint32
	StringTableLength uint32
	StringTableOffset uint32
	FileCount         uint16
	SyncIDs           uint16
	Reserved          uint32
}

// Node is one folder level and the entries that are its immediate children.
type Node struct {
	ID              [4]byte
	NameOffset      uint32
	Hash            uint16
	EntryCount      uint16
	FirstEntryIndex uint32

	Name    string
	Entries []Entry
}

// Entry is a directory-table record for either a file or a folder. For
// folders DataOffset holds the index of the child node.
type Entry struct {
	Index      uint16
	Hash       uint16
	Type       uint16
	NameOffset uint16
	DataOffset uint32
	DataLength uint32
	Reserved   uint32

	Name string
	Data []byte
}

// IsFolder reports whether the entry is a folder. Folder is the default: an
// entry is only a file when it has the file type and a real file index.
func (e *Entry) IsFolder() bool {
	return e.Type != EntryTypeFile || e.Index == NoIndex
}

func (e *Entry) IsFile() bool {
	return !e.IsFolder()
}

// IsSpecial reports whether the entry is one of the "." or ".." links.
func (e *Entry) IsSpecial() bool {
	return e.Name == "." || e.Name == ".."
}

// HasPathName reports whether the name can stand as one element of a path.
// Names that are empty or contain a slash or zero byte cannot, and neither
// can the "." and ".." links.
func (e *Entry) HasPathName() bool {
	return e.Name != "" && !e.IsSpecial() && !strings.ContainsAny(e.Name, "/\\\x00")
}

// NodeIndex returns the node a folder entry points at.
func (e *Entry) NodeIndex() (int, bool) {
	if !e.IsFolder() || e.DataOffset == NoNode {
		return 0, false
	}
	return int(e.DataOffset), true
}

// Archive is a parsed RARC image. Nodes are stored flat and folder entries
// refer to their child by index; Nodes[0] is the root.
type Archive struct {
	Header Header
	Info   InfoBlock
	Nodes  []Node
}

// Root returns the root node, or nil for an archive without nodes.
func (a *Archive) Root() *Node {
	if len(a.Nodes) == 0 {
		return nil
	}
	return &a.Nodes[0]
}

// Node returns the node at index i, or nil when i is out of range.
func (a *Archive) Node(i int) *Node {
	if i < 0 || i >= len(a.Nodes) {
		return nil
	}
	return &a.Nodes[i]
}

// Child returns the node a folder entry points at.
func (a *Archive) Child(e *Entry) *Node {
	i, ok := e.NodeIndex()
	if !ok {
		return nil
	}
	return a.Node(i)
}

// nodeID derives the four character node identifier from a folder name.
func nodeID(name string) [4]byte {
	var id [4]byte
	copy(id[:], strings.ToUpper(name)+"    ")
	return id
}
