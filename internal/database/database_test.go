package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jchantrell/dolhouse/internal/rarc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	db, err := NewDatabase(DefaultDatabaseOptions(path))
	require.NoError(t, err)
	require.Equal(t, path, db.Path())
	t.Cleanup(func() { db.Close() })
	return db
}

func testArchive(t *testing.T) *rarc.Archive {
	t.Helper()
	b := rarc.NewBuilder("stage")
	require.NoError(t, b.AddFile("scene.bin", []byte("scene")))
	require.NoError(t, b.AddFile("map/map.bmd", []byte("model data")))
	require.NoError(t, b.AddFile("map/col/map.col", []byte("collision")))
	data, err := b.Bytes()
	require.NoError(t, err)
	a, err := rarc.Read(data)
	require.NoError(t, err)
	return a
}

func TestBuildConnectionString(t *testing.T) {
	assert.Equal(t,
		"x.db?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000&_synchronous=NORMAL",
		buildConnectionString(DefaultDatabaseOptions("x.db")))
	assert.Equal(t,
		"x.db?_busy_timeout=1000&_synchronous=NORMAL",
		buildConnectionString(&DatabaseOptions{Path: "x.db", BusyTimeout: time.Second}))
}

func TestNewDatabase_Errors(t *testing.T) {
	_, err := NewDatabase(nil)
	require.Error(t, err)
	_, err = NewDatabase(&DatabaseOptions{})
	require.Error(t, err)
}

func TestCatalog_InsertArchive(t *testing.T) {
	ctx := context.Background()
	db := openTestDatabase(t)

	has, err := db.HasCatalog(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	catalog := NewCatalog(db)
	require.NoError(t, catalog.CreateSchema(ctx))
	require.NoError(t, catalog.CreateSchema(ctx), "schema creation is idempotent")

	has, err = db.HasCatalog(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	inserter := NewBulkInserter(db, &BulkInsertOptions{BatchSize: 2})
	record := &ArchiveRecord{Path: "files/stage.szs", Size: 1234, Compressed: true, Archive: testArchive(t)}

	id, err := inserter.InsertArchive(ctx, record)
	require.NoError(t, err)

	var root string
	var compressed bool
	var nodes, entries, files int
	require.NoError(t, db.QueryRow(ctx,
		`SELECT root, compressed, node_count, entry_count, file_count FROM archives WHERE id = ?`, id,
	).Scan(&root, &compressed, &nodes, &entries, &files))
	assert.Equal(t, "stage", root)
	assert.True(t, compressed)
	assert.Equal(t, 3, nodes)
	assert.Equal(t, 5, entries)
	assert.Equal(t, 3, files)

	var size int64
	var fileIndex int64
	require.NoError(t, db.QueryRow(ctx,
		`SELECT size, file_index FROM entries WHERE archive_id = ? AND path = ?`, id, "map/col/map.col",
	).Scan(&size, &fileIndex))
	assert.Equal(t, int64(len("collision")), size)
	assert.Equal(t, int64(2), fileIndex)

	var nodeIndex int64
	require.NoError(t, db.QueryRow(ctx,
		`SELECT node_index FROM entries WHERE archive_id = ? AND path = ? AND is_folder = 1`, id, "map/col",
	).Scan(&nodeIndex))
	assert.Equal(t, int64(2), nodeIndex)

	var hash int
	require.NoError(t, db.QueryRow(ctx,
		`SELECT hash FROM entries WHERE name = ?`, "scene.bin",
	).Scan(&hash))
	assert.Equal(t, int(rarc.Hash("scene.bin")), hash)

	// cataloguing the same path again replaces the earlier rows
	_, err = inserter.InsertArchive(ctx, record)
	require.NoError(t, err)

	stats, err := catalog.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &CatalogStats{Archives: 1, Entries: 5, Files: 3}, stats)

	_, err = inserter.InsertArchive(ctx, nil)
	require.Error(t, err)
}

func TestClosedDatabase(t *testing.T) {
	ctx := context.Background()
	db := openTestDatabase(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.Query(ctx, "SELECT 1")
	require.ErrorIs(t, err, ErrClosed)
	_, err = db.BeginTx(ctx, nil)
	require.ErrorIs(t, err, ErrClosed)
	_, err = db.HasCatalog(ctx)
	require.ErrorIs(t, err, ErrClosed)
}
