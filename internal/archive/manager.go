package archive

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/jchantrell/dolhouse/internal/cache"
	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/jchantrell/dolhouse/internal/yay0"
)

// ManagerOptions configures a Manager
type ManagerOptions struct {
	// Cache holds decompressed Yay0 images. Nil disables caching.
	Cache *cache.Cache
}

// Source is an archive together with what was known about the file it came from
type Source struct {
	Path       string
	Size       int64
	Compressed bool
	Archive    *rarc.Archive
}

// Manager provides a high-level API for opening archives that may be Yay0
// compressed. Opened archives are kept until they are released or the
// manager is closed.
type Manager struct {
	cache *cache.Cache

	mu     sync.Mutex
	opened map[string]*Source
}

// NewManager creates a new archive manager
func NewManager(opts *ManagerOptions) *Manager {
	m := &Manager{opened: make(map[string]*Source)}
	if opts != nil {
		m.cache = opts.Cache
	}
	return m
}

// Open reads and parses the archive at path
func (m *Manager) Open(path string) (*rarc.Archive, error) {
	src, err := m.OpenSource(path)
	if err != nil {
		return nil, err
	}
	return src.Archive, nil
}

// OpenSource reads and parses the archive at path, decompressing it first
// when it is a Yay0 image.
func (m *Manager) OpenSource(path string) (*Source, error) {
	m.mu.Lock()
	src, ok := m.opened[path]
	m.mu.Unlock()
	if ok {
		return src, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	src, err = m.load(data, path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.opened[path] = src
	m.mu.Unlock()

	return src, nil
}

// Load parses an in-memory archive. name is only used in messages.
func (m *Manager) Load(data []byte, name string) (*rarc.Archive, error) {
	src, err := m.load(data, name)
	if err != nil {
		return nil, err
	}
	return src.Archive, nil
}

func (m *Manager) load(data []byte, name string) (*Source, error) {
	src := &Source{Path: name, Size: int64(len(data))}

	if yay0.IsCompressed(data) {
		decompressed, err := m.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", name, err)
		}
		data = decompressed
		src.Compressed = true
	}

	a, err := rarc.Read(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	src.Archive = a

	slog.Debug("Archive loaded", "name", name, "compressed", src.Compressed, "nodes", len(a.Nodes), "entries", a.Info.EntryCount)

	return src, nil
}

// Decompress expands a Yay0 image, consulting the cache first when one is
// configured. Cache failures are logged and otherwise ignored.
func (m *Manager) Decompress(data []byte) ([]byte, error) {
	if m.cache == nil {
		return yay0.Decompress(data)
	}

	key := cache.Key(data)
	if cached, ok := m.cache.Get(key); ok {
		slog.Debug("Using cached decompressed image", "key", key)
		return cached, nil
	}

	out, err := yay0.Decompress(data)
	if err != nil {
		return nil, err
	}

	if err := m.cache.Put(key, out); err != nil {
		slog.Warn("Failed to cache decompressed image", "key", key, "error", err)
	}
	return out, nil
}

// FileExists checks if a file exists inside an archive
func (m *Manager) FileExists(archivePath, inner string) bool {
	a, err := m.Open(archivePath)
	if err != nil {
		return false
	}
	e, _, ok := a.Lookup(inner)
	return ok && e != nil && e.IsFile()
}

// GetFile reads the contents of a file inside an archive
func (m *Manager) GetFile(archivePath, inner string) ([]byte, error) {
	a, err := m.Open(archivePath)
	if err != nil {
		return nil, err
	}

	e, _, ok := a.Lookup(inner)
	if !ok || e == nil || !e.IsFile() {
		slog.Debug("File not found in archive", "archive", archivePath, "path", inner)
		return nil, &fs.PathError{
			Op:   "open",
			Path: inner,
			Err:  fs.ErrNotExist,
		}
	}

	slog.Debug("Found file in archive", "archive", archivePath, "path", inner, "index", e.Index, "size", len(e.Data))

	return e.Data, nil
}

// Release forgets the archive opened from path so it can be collected. A
// later Open reads it again.
func (m *Manager) Release(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.opened, path)
}

// Close releases the opened archives
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.opened)
	return nil
}
