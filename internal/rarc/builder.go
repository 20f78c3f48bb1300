package rarc

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Builder assembles a new archive from files and folders. Children keep the
// order they were added in.
type Builder struct {
	root *buildDir
}

type buildDir struct {
	name     string
	children []*buildItem
	byName   map[string]*buildItem
}

type buildItem struct {
	name string
	dir  *buildDir
	data []byte
}

// NewBuilder creates a builder whose root node is called rootName.
func NewBuilder(rootName string) *Builder {
	return &Builder{root: newBuildDir(rootName)}
}

func newBuildDir(name string) *buildDir {
	return &buildDir{name: name, byName: make(map[string]*buildItem)}
}

// AddDir creates a folder and any missing parents.
func (b *Builder) AddDir(p string) error {
	_, err := b.mkdirAll(splitPath(p))
	return err
}

// AddFile adds a file, creating missing parent folders.
func (b *Builder) AddFile(p string, data []byte) error {
	parts := splitPath(p)
	if len(parts) == 0 {
		return fmt.Errorf("add file: empty path")
	}

	dir, err := b.mkdirAll(parts[:len(parts)-1])
	if err != nil {
		return err
	}

	name := parts[len(parts)-1]
	if _, exists := dir.byName[name]; exists {
		return &fs.PathError{Op: "add", Path: p, Err: fs.ErrExist}
	}
	item := &buildItem{name: name, data: data}
	dir.children = append(dir.children, item)
	dir.byName[name] = item
	return nil
}

func (b *Builder) mkdirAll(parts []string) (*buildDir, error) {
	dir := b.root
	for i, part := range parts {
		item, exists := dir.byName[part]
		if !exists {
			item = &buildItem{name: part, dir: newBuildDir(part)}
			dir.children = append(dir.children, item)
			dir.byName[part] = item
		}
		if item.dir == nil {
			return nil, &fs.PathError{Op: "mkdir", Path: path.Join(parts[:i+1]...), Err: fs.ErrExist}
		}
		dir = item.dir
	}
	return dir, nil
}

func splitPath(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Build lays the tree out as nodes in breadth-first order. Each node lists
// its children followed by the "." and ".." links, file indices count up
// across the archive and every node's first entry index matches its place
// in the entry table.
func (b *Builder) Build() (*Archive, error) {
	type queued struct {
		dir    *buildDir
		parent uint32
	}

	a := &Archive{}
	copy(a.Header.Magic[:], Magic)
	a.Header.HeaderLength = HeaderSize

	queue := []queued{{dir: b.root, parent: NoNode}}
	var entryIndex uint32
	var fileIndex uint16

	for i := 0; i < len(queue); i++ {
		q := queue[i]
		n := Node{
			Name:            q.dir.name,
			Hash:            Hash(q.dir.name),
			FirstEntryIndex: entryIndex,
		}
		if i == 0 {
			copy(n.ID[:], "ROOT")
		} else {
			n.ID = nodeID(q.dir.name)
		}

		for _, child := range q.dir.children {
			e := Entry{Name: child.name, Hash: Hash(child.name)}
			if child.dir != nil {
				e.Index = NoIndex
				e.Type = EntryTypeFolder
				e.DataOffset = uint32(len(queue))
				queue = append(queue, queued{dir: child.dir, parent: uint32(i)})
			} else {
				if fileIndex == NoIndex {
					return nil, fmt.Errorf("archive holds more than %d files", NoIndex)
				}
				e.Index = fileIndex
				e.Type = EntryTypeFile
				e.DataLength = uint32(len(child.data))
				e.Data = child.data
				fileIndex++
			}
			n.Entries = append(n.Entries, e)
		}

		n.Entries = append(n.Entries,
			Entry{Index: NoIndex, Hash: Hash("."), Type: EntryTypeFolder, Name: ".", DataOffset: uint32(i)},
			Entry{Index: NoIndex, Hash: Hash(".."), Type: EntryTypeFolder, Name: "..", DataOffset: q.parent},
		)
		n.EntryCount = uint16(len(n.Entries))
		entryIndex += uint32(len(n.Entries))

		a.Nodes = append(a.Nodes, n)
	}

	a.Info.NodeCount = uint32(len(a.Nodes))
	a.Info.EntryCount = entryIndex
	a.Info.FileCount = fileIndex

	return a, nil
}

// Bytes builds and serializes the archive.
func (b *Builder) Bytes() ([]byte, error) {
	a, err := b.Build()
	if err != nil {
		return nil, err
	}
	return Marshal(a)
}

// FromFS creates a builder holding every file and folder under root in fsys.
// The root node takes the base name of root.
func FromFS(fsys fs.FS, root string) (*Builder, error) {
	name := path.Base(root)
	if name == "." || name == "/" {
		name = "root"
	}
	b := NewBuilder(name)

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel := strings.TrimPrefix(p, root+"/")
		if root == "." {
			rel = p
		}

		if d.IsDir() {
			return b.AddDir(rel)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		return b.AddFile(rel, data)
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return b, nil
}
