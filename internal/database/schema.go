package database

import (
	"context"
	"fmt"
	"log/slog"
)

// catalogDDL creates the archive catalog. Entries belong to one archive and
// go away with it.
var catalogDDL = []string{
	`CREATE TABLE IF NOT EXISTS archives (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    size INTEGER NOT NULL,
    compressed INTEGER NOT NULL,
    root TEXT NOT NULL,
    node_count INTEGER NOT NULL,
    entry_count INTEGER NOT NULL,
    file_count INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS entries (
    archive_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    name TEXT NOT NULL,
    hash INTEGER NOT NULL,
    type INTEGER NOT NULL,
    is_folder INTEGER NOT NULL,
    file_index INTEGER,
    size INTEGER,
    node_index INTEGER,
    FOREIGN KEY (archive_id) REFERENCES archives(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_archive ON entries(archive_id, path)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_name ON entries(name)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_hash ON entries(hash)`,
}

// Catalog manages the archive catalog tables
type Catalog struct {
	db *Database
}

// NewCatalog creates a new catalog over db
func NewCatalog(db *Database) *Catalog {
	return &Catalog{db: db}
}

// CreateSchema creates the catalog tables and indexes if they are missing
func (c *Catalog) CreateSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ddl := range catalogDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}

	slog.Debug("Catalog schema ready", "statements", len(catalogDDL))
	return nil
}

// CatalogStats summarises the catalog contents
type CatalogStats struct {
	Archives int64
	Entries  int64
	Files    int64
}

// Stats counts the catalogued archives and entries
func (c *Catalog) Stats(ctx context.Context) (*CatalogStats, error) {
	var stats CatalogStats

	row := c.db.QueryRow(ctx, `SELECT
    (SELECT COUNT(*) FROM archives),
    (SELECT COUNT(*) FROM entries),
    (SELECT COUNT(*) FROM entries WHERE is_folder = 0)`)
	if err := row.Scan(&stats.Archives, &stats.Entries, &stats.Files); err != nil {
		return nil, fmt.Errorf("counting catalog rows: %w", err)
	}

	return &stats, nil
}
