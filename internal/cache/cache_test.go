package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	c := CacheManager(t.TempDir())

	key := Key([]byte("Yay0 compressed image"))
	assert.Len(t, key, 64)

	_, ok := c.Get(key)
	assert.False(t, ok)

	require.NoError(t, c.Put(key, []byte("decompressed")))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("decompressed"), got)

	path := c.GetEntryPath(key)
	assert.True(t, c.FileExists(path))
	assert.Equal(t, int64(len("decompressed")), c.GetFileSize(path))
	assert.Equal(t, key[:2], filepath.Base(filepath.Dir(path)))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCache_Overwrite(t *testing.T) {
	c := CacheManager(t.TempDir())
	key := Key(nil)

	require.NoError(t, c.Put(key, []byte("first")))
	require.NoError(t, c.Put(key, []byte("second")))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
}

func TestCache_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, ".dolhouse", "cache"), CacheManager("").GetCacheDir())
	assert.Equal(t, 0, int(CacheManager("").GetFileSize(filepath.Join(t.TempDir(), "missing"))))
}
