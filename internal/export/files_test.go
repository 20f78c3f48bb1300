package export

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/jchantrell/dolhouse/internal/yay0"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type yay0Decompressor struct{}

func (yay0Decompressor) Decompress(data []byte) ([]byte, error) {
	return yay0.Decompress(data)
}

func testArchiveFS(t *testing.T) (*rarc.Archive, []byte) {
	t.Helper()
	nested, err := yay0.Compress([]byte("nested archive bytes, nested archive bytes"))
	require.NoError(t, err)

	b := rarc.NewBuilder("stage")
	require.NoError(t, b.AddFile("scene.bin", []byte("scene")))
	require.NoError(t, b.AddFile("map/map.bmd", []byte("model")))
	require.NoError(t, b.AddFile("map/inner.szs", nested))
	require.NoError(t, b.AddDir("empty"))
	data, err := b.Bytes()
	require.NoError(t, err)

	a, err := rarc.Read(data)
	require.NoError(t, err)
	return a, nested
}

func TestExporter_ExportAll(t *testing.T) {
	a, nested := testArchiveFS(t)
	out := t.TempDir()

	var calls []string
	err := NewExporter(a.FS(), out, nil).ExportAll(func(current, total int, description string) {
		assert.Equal(t, 3, total)
		assert.Equal(t, len(calls)+1, current)
		calls = append(calls, description)
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"scene.bin", "map/map.bmd", "map/inner.szs"}, calls)

	got, err := os.ReadFile(filepath.Join(out, "map", "map.bmd"))
	require.NoError(t, err)
	assert.Equal(t, []byte("model"), got)

	got, err = os.ReadFile(filepath.Join(out, "map", "inner.szs"))
	require.NoError(t, err)
	assert.Equal(t, nested, got, "nested images stay compressed by default")

	info, err := os.Stat(filepath.Join(out, "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExporter_DecompressNested(t *testing.T) {
	a, _ := testArchiveFS(t)
	out := t.TempDir()

	require.NoError(t, NewExporter(a.FS(), out, yay0Decompressor{}).ExportFiles([]string{"map/inner.szs"}, nil))

	got, err := os.ReadFile(filepath.Join(out, "map", "inner.szs"))
	require.NoError(t, err)
	assert.Equal(t, []byte("nested archive bytes, nested archive bytes"), got)
}

func TestExporter_Errors(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.szs": {Data: []byte("Yay0\x00\x00\x00\x10\x00\x00\x00\x00\x00\x00\x00\x00")},
	}
	out := t.TempDir()

	err := NewExporter(fsys, out, nil).ExportFiles([]string{"missing.bin"}, nil)
	require.Error(t, err)

	err = NewExporter(fsys, out, yay0Decompressor{}).ExportFiles([]string{"bad.szs"}, nil)
	require.Error(t, err)

	require.NoError(t, NewExporter(fsys, out, nil).ExportFiles(nil, nil))
}

func TestExporter_StaysInOutputDir(t *testing.T) {
	b := rarc.NewBuilder("stage")
	require.NoError(t, b.AddFile("scene.bin", []byte("scene")))
	require.NoError(t, b.AddFile("escaped/x.bin", []byte("x")))
	a, err := b.Build()
	require.NoError(t, err)

	for i := range a.Nodes[0].Entries {
		if e := &a.Nodes[0].Entries[i]; e.Name == "escaped" {
			e.Name = "../escaped"
			e.Hash = rarc.Hash(e.Name)
		}
	}
	data, err := rarc.Marshal(a)
	require.NoError(t, err)
	a, err = rarc.Read(data)
	require.NoError(t, err)

	root := t.TempDir()
	out := filepath.Join(root, "out")

	var calls []string
	err = NewExporter(a.FS(), out, nil).ExportAll(func(_, _ int, description string) {
		calls = append(calls, description)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"scene.bin"}, calls)
	assert.NoDirExists(t, filepath.Join(root, "escaped"))
	assert.FileExists(t, filepath.Join(out, "scene.bin"))

	err = NewExporter(a.FS(), out, nil).ExportFiles([]string{"../escaped/x.bin"}, nil)
	require.ErrorIs(t, err, fs.ErrInvalid)
	assert.NoFileExists(t, filepath.Join(root, "escaped", "x.bin"))
}
