package archive

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/jchantrell/dolhouse/internal/cache"
	"github.com/jchantrell/dolhouse/internal/cursor"
	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/jchantrell/dolhouse/internal/yay0"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T) []byte {
	t.Helper()
	b := rarc.NewBuilder("stage")
	require.NoError(t, b.AddFile("scene.bin", []byte("scene data")))
	require.NoError(t, b.AddFile("map/map.bmd", []byte("model")))
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestManager_OpenPlainAndCompressed(t *testing.T) {
	dir := t.TempDir()
	plain := buildArchive(t)
	compressed, err := yay0.Compress(plain)
	require.NoError(t, err)

	plainPath := writeFile(t, dir, "stage.arc", plain)
	compressedPath := writeFile(t, dir, "stage.szs", compressed)

	c := cache.CacheManager(filepath.Join(dir, "cache"))
	m := NewManager(&ManagerOptions{Cache: c})
	defer m.Close()

	src, err := m.OpenSource(plainPath)
	require.NoError(t, err)
	assert.False(t, src.Compressed)
	assert.Equal(t, int64(len(plain)), src.Size)

	src, err = m.OpenSource(compressedPath)
	require.NoError(t, err)
	assert.True(t, src.Compressed)
	assert.Equal(t, int64(len(compressed)), src.Size)

	_, ok := c.Get(cache.Key(compressed))
	assert.True(t, ok, "decompressed image is cached")

	data, err := m.GetFile(compressedPath, "MAP/map.bmd")
	require.NoError(t, err)
	assert.Equal(t, []byte("model"), data)

	assert.True(t, m.FileExists(plainPath, "scene.bin"))
	assert.False(t, m.FileExists(plainPath, "map"))

	_, err = m.GetFile(plainPath, "missing.bin")
	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestManager_Release(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stage.arc", buildArchive(t))
	m := NewManager(nil)
	defer m.Close()

	first, err := m.OpenSource(path)
	require.NoError(t, err)
	again, err := m.OpenSource(path)
	require.NoError(t, err)
	assert.Same(t, first, again, "opened archives are kept")

	m.Release(path)
	m.mu.Lock()
	assert.Empty(t, m.opened)
	m.mu.Unlock()

	reopened, err := m.OpenSource(path)
	require.NoError(t, err)
	assert.NotSame(t, first, reopened)

	m.Release("never/opened.arc")
}

func TestManager_UsesCachedImage(t *testing.T) {
	dir := t.TempDir()
	compressed, err := yay0.Compress(buildArchive(t))
	require.NoError(t, err)

	c := cache.CacheManager(dir)
	other := rarc.NewBuilder("other")
	require.NoError(t, other.AddFile("from-cache.txt", []byte("hit")))
	cached, err := other.Bytes()
	require.NoError(t, err)
	require.NoError(t, c.Put(cache.Key(compressed), cached))

	a, err := NewManager(&ManagerOptions{Cache: c}).Load(compressed, "stage.szs")
	require.NoError(t, err)
	assert.Equal(t, "other", a.Root().Name)
}

func TestManager_LoadErrors(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Load([]byte("not an archive at all, just text"), "junk")
	require.ErrorIs(t, err, rarc.ErrBadMagic)

	// a valid Yay0 image whose payload is not an archive
	compressed, err := yay0.Compress([]byte("plain text payload"))
	require.NoError(t, err)
	_, err = m.Load(compressed, "text.szs")
	require.ErrorIs(t, err, cursor.ErrFormat)

	_, err = m.Open(filepath.Join(t.TempDir(), "missing.arc"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	plain := buildArchive(t)
	compressed, err := yay0.Compress(plain)
	require.NoError(t, err)

	writeFile(t, dir, "b/stage.arc", plain)
	writeFile(t, dir, "a/stage.szs", compressed)
	writeFile(t, dir, "a/readme.txt", []byte("RAR"))
	writeFile(t, dir, "c/empty", nil)
	writeFile(t, dir, "c/misnamed.szs", []byte("not yay0"))

	found, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a/stage.szs"),
		filepath.Join(dir, "b/stage.arc"),
	}, found)

	assert.Equal(t, FormatRARC, Detect(plain))
	assert.Equal(t, FormatYay0, Detect(compressed))
	assert.Equal(t, FormatUnknown, Detect([]byte("RA")))
	assert.Equal(t, "yay0", FormatYay0.String())

	_, err = Discover(filepath.Join(dir, "nope"))
	require.Error(t, err)
}
