package rarc

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"
)

// archiveFS implements fs.FS over a parsed archive. Paths are relative to
// the root node and the "." and ".." links are hidden.
type archiveFS struct {
	archive *Archive
}

// FS returns a read-only file system view of the archive.
func (a *Archive) FS() fs.FS {
	return &archiveFS{archive: a}
}

func (afs *archiveFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	e, node, ok := afs.archive.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if e != nil && e.IsFile() {
		return &archiveFile{
			entry:  e,
			reader: bytes.NewReader(e.Data),
		}, nil
	}

	// folders whose node index is dangling cannot be listed
	if node == nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return &archiveDir{path: name, node: node}, nil
}

func (afs *archiveFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	e, _, ok := afs.archive.Lookup(name)
	if !ok || e == nil || !e.IsFile() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	return bytes.Clone(e.Data), nil
}

func (afs *archiveFS) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := afs.Open(name)
	if err != nil {
		return nil, err
	}
	dir, ok := f.(*archiveDir)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fmt.Errorf("not a directory")}
	}
	dirents, err := dir.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(dirents, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return dirents, nil
}

// archiveFile implements fs.File for file entries
type archiveFile struct {
	entry  *Entry
	reader *bytes.Reader
}

func (f *archiveFile) Read(p []byte) (int, error) {
	return f.reader.Read(p)
}

func (f *archiveFile) ReadAt(p []byte, off int64) (int, error) {
	return f.reader.ReadAt(p, off)
}

func (f *archiveFile) Seek(offset int64, whence int) (int64, error) {
	return f.reader.Seek(offset, whence)
}

func (f *archiveFile) Close() error {
	return nil
}

func (f *archiveFile) Stat() (fs.FileInfo, error) {
	return entryInfo(f.entry), nil
}

// archiveDir implements fs.ReadDirFile for nodes
type archiveDir struct {
	path   string
	node   *Node
	offset int
}

func (d *archiveDir) Read(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.path, Err: fmt.Errorf("is a directory")}
}

func (d *archiveDir) Close() error {
	return nil
}

func (d *archiveDir) Stat() (fs.FileInfo, error) {
	name := path.Base(d.path)
	if d.path == "." {
		name = "."
	}
	return &fileInfo{name: name, dir: true}, nil
}

func (d *archiveDir) ReadDir(n int) ([]fs.DirEntry, error) {
	dirents := []fs.DirEntry{}

	for d.offset < len(d.node.Entries) {
		e := &d.node.Entries[d.offset]
		d.offset++
		if e.IsSpecial() {
			continue
		}
		if !e.HasPathName() {
			slog.Warn("Hiding entry with unusable name", "path", d.path, "name", e.Name)
			continue
		}

		dirents = append(dirents, fs.FileInfoToDirEntry(entryInfo(e)))

		if n > 0 && len(dirents) >= n {
			return dirents, nil
		}
	}

	if n > 0 && len(dirents) == 0 {
		return dirents, io.EOF
	}

	return dirents, nil
}

// fileInfo implements fs.FileInfo for archive entries
type fileInfo struct {
	name string
	size int64
	dir  bool
}

func entryInfo(e *Entry) *fileInfo {
	if e.IsFolder() {
		return &fileInfo{name: e.Name, dir: true}
	}
	return &fileInfo{name: e.Name, size: int64(len(e.Data))}
}

func (fi *fileInfo) Name() string {
	return fi.name
}

func (fi *fileInfo) Size() int64 {
	return fi.size
}

func (fi *fileInfo) Mode() fs.FileMode {
	if fi.dir {
		return 0o444 | fs.ModeDir
	}
	return 0o444
}

func (fi *fileInfo) ModTime() time.Time {
	return time.Unix(0, 0)
}

func (fi *fileInfo) IsDir() bool {
	return fi.dir
}

func (fi *fileInfo) Sys() any {
	return nil
}
