package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Cache stores decompressed Yay0 images on disk, keyed by the hash of the
// compressed image they came from.
type Cache struct {
	dir string
}

// CacheManager creates a cache rooted at dir. An empty dir selects the
// default location under the home directory.
func CacheManager(dir string) *Cache {
	return &Cache{dir: dir}
}

// GetCacheDir returns the cache directory
func (m *Cache) GetCacheDir() string {
	if m.dir != "" {
		return m.dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dolhouse", "cache")
	}
	return filepath.Join(homeDir, ".dolhouse", "cache")
}

// EnsureDir creates a directory and all parent directories
func (m *Cache) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func (m *Cache) FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// GetFileSize returns the size of a file, or 0 if it doesn't exist
func (m *Cache) GetFileSize(filename string) int64 {
	info, err := os.Stat(filename)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Key derives the cache key of a compressed image.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetEntryPath returns where the image for key is stored. Entries are fanned
// out over subdirectories named after the first two hex digits.
func (m *Cache) GetEntryPath(key string) string {
	return filepath.Join(m.GetCacheDir(), key[:2], key+".bin")
}

// Get returns the cached image for key.
func (m *Cache) Get(key string) ([]byte, bool) {
	path := m.GetEntryPath(key)
	if !m.FileExists(path) {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("Cache read failed", "path", path, "error", err)
		return nil, false
	}
	return data, true
}

// Put stores an image under key. The file is written next to its final
// location and renamed into place so readers never see a partial entry.
func (m *Cache) Put(key string, data []byte) error {
	path := m.GetEntryPath(key)
	if err := m.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving cache file into place: %w", err)
	}

	slog.Debug("Cached decompressed image", "key", key, "size", len(data))
	return nil
}
