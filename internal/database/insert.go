package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jchantrell/dolhouse/internal/rarc"
)

// BulkInserter handles efficient batch insertion of archive entries
type BulkInserter struct {
	db        *Database
	batchSize int
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many entries to insert per transaction
	BatchSize int
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize: 1000,
	}
}

// NewBulkInserter creates a new bulk inserter with the given database and options
func NewBulkInserter(db *Database, options *BulkInsertOptions) *BulkInserter {
	if options == nil || options.BatchSize <= 0 {
		options = DefaultBulkInsertOptions()
	}

	return &BulkInserter{
		db:        db,
		batchSize: options.BatchSize,
	}
}

// ArchiveRecord is one archive file to catalogue
type ArchiveRecord struct {
	Path       string
	Size       int64
	Compressed bool
	Archive    *rarc.Archive
}

// EntryRow is one catalogued file or folder entry
type EntryRow struct {
	Path      string
	Name      string
	Hash      uint16
	Type      uint16
	IsFolder  bool
	FileIndex *int64
	Size      *int64
	NodeIndex *int64
}

const insertEntrySQL = `INSERT INTO entries (archive_id, path, name, hash, type, is_folder, file_index, size, node_index)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// EntryRows flattens the entries reachable from the archive root
func EntryRows(a *rarc.Archive) []EntryRow {
	var rows []EntryRow

	_ = a.Walk(func(p string, e *rarc.Entry) error {
		row := EntryRow{
			Path:     p,
			Name:     e.Name,
			Hash:     e.Hash,
			Type:     e.Type,
			IsFolder: e.IsFolder(),
		}
		if e.IsFile() {
			index, size := int64(e.Index), int64(len(e.Data))
			row.FileIndex, row.Size = &index, &size
		} else if n, ok := e.NodeIndex(); ok {
			node := int64(n)
			row.NodeIndex = &node
		}
		rows = append(rows, row)
		return nil
	})

	return rows
}

// InsertArchive catalogues an archive and its entries. An archive already
// catalogued under the same path is replaced. It returns the archive id.
func (bi *BulkInserter) InsertArchive(ctx context.Context, record *ArchiveRecord) (int64, error) {
	if record == nil || record.Archive == nil {
		return 0, fmt.Errorf("archive record cannot be nil")
	}

	rows := EntryRows(record.Archive)

	archiveID, err := bi.insertArchiveRow(ctx, record, rows)
	if err != nil {
		return 0, fmt.Errorf("inserting archive %s: %w", record.Path, err)
	}

	for i := 0; i < len(rows); i += bi.batchSize {
		end := min(i+bi.batchSize, len(rows))

		if err := bi.insertBatch(ctx, archiveID, rows[i:end]); err != nil {
			return 0, fmt.Errorf("inserting entries %d-%d for %s: %w", i, end-1, record.Path, err)
		}
	}

	slog.Debug("Catalogued archive", "path", record.Path, "id", archiveID, "entries", len(rows))
	return archiveID, nil
}

func (bi *BulkInserter) insertArchiveRow(ctx context.Context, record *ArchiveRecord, rows []EntryRow) (int64, error) {
	tx, err := bi.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Safe to call even after commit

	for _, query := range []string{
		`DELETE FROM entries WHERE archive_id IN (SELECT id FROM archives WHERE path = ?)`,
		`DELETE FROM archives WHERE path = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, record.Path); err != nil {
			return 0, fmt.Errorf("removing previous catalogue rows: %w", err)
		}
	}

	var files int64
	for _, row := range rows {
		if !row.IsFolder {
			files++
		}
	}

	a := record.Archive
	var rootName string
	if root := a.Root(); root != nil {
		rootName = root.Name
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO archives (path, size, compressed, root, node_count, entry_count, file_count) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Path, record.Size, record.Compressed, rootName, len(a.Nodes), len(rows), files)
	if err != nil {
		return 0, fmt.Errorf("inserting archive row: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading archive id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	return id, nil
}

// insertBatch inserts a single batch of entries within a transaction
func (bi *BulkInserter) insertBatch(ctx context.Context, archiveID int64, batch []EntryRow) error {
	tx, err := bi.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Safe to call even after commit

	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx,
			archiveID, row.Path, row.Name, row.Hash, row.Type, row.IsFolder,
			row.FileIndex, row.Size, row.NodeIndex,
		); err != nil {
			return fmt.Errorf("inserting entry %s: %w", row.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
