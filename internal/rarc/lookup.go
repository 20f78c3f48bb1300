package rarc

import (
	"log/slog"
	"path"
	"strings"
)

// File is a file entry together with its slash-separated path below the
// root node.
type File struct {
	Path  string
	Entry *Entry
}

// find returns the child entry called name. The stored hash filters
// candidates before the exact comparison; a case-insensitive pass follows
// because names in game data are not consistently cased.
func (n *Node) find(name string) *Entry {
	h := Hash(name)
	for i := range n.Entries {
		e := &n.Entries[i]
		if e.Hash == h && e.Name == name {
			return e
		}
	}
	for i := range n.Entries {
		e := &n.Entries[i]
		if !e.IsSpecial() && strings.EqualFold(e.Name, name) {
			return e
		}
	}
	return nil
}

// Lookup resolves a slash-separated path below the root node. It returns the
// entry and, for folders, the node the entry points at.
func (a *Archive) Lookup(p string) (*Entry, *Node, bool) {
	node := a.Root()
	if node == nil {
		return nil, nil, false
	}

	parts := splitPath(p)
	if len(parts) == 0 {
		return nil, node, true
	}

	for i, part := range parts {
		e := node.find(part)
		if e == nil {
			return nil, nil, false
		}
		if i == len(parts)-1 {
			return e, a.Child(e), true
		}
		if node = a.Child(e); node == nil {
			return nil, nil, false
		}
	}
	return nil, nil, false
}

// Walk calls fn for every file and folder entry reachable from the root,
// depth first in entry order, with the entry's path below the root. Nodes
// reachable twice are only visited once and entries whose name cannot be a
// path element are skipped.
func (a *Archive) Walk(fn func(p string, e *Entry) error) error {
	seen := make(map[*Node]bool)

	var walk func(n *Node, prefix string) error
	walk = func(n *Node, prefix string) error {
		if n == nil || seen[n] {
			return nil
		}
		seen[n] = true

		for i := range n.Entries {
			e := &n.Entries[i]
			if e.IsSpecial() {
				continue
			}
			if !e.HasPathName() {
				slog.Warn("Skipping entry with unusable name", "node", n.Name, "name", e.Name)
				continue
			}
			p := path.Join(prefix, e.Name)
			if err := fn(p, e); err != nil {
				return err
			}
			if e.IsFolder() {
				if err := walk(a.Child(e), p); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(a.Root(), "")
}

// Files lists every file in the archive in Walk order.
func (a *Archive) Files() []File {
	var files []File
	_ = a.Walk(func(p string, e *Entry) error {
		if e.IsFile() {
			files = append(files, File{Path: p, Entry: e})
		}
		return nil
	})
	return files
}
